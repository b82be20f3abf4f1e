package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/insuraai/insuraai/internal/config"
	"github.com/insuraai/insuraai/internal/core"
	db "github.com/insuraai/insuraai/internal/core/database"
	"github.com/insuraai/insuraai/internal/core/extraction"
	"github.com/insuraai/insuraai/internal/core/llm"
	"github.com/insuraai/insuraai/internal/core/mailer"
	"github.com/insuraai/insuraai/internal/core/scheduler"
	"github.com/insuraai/insuraai/internal/core/storage"
	"github.com/insuraai/insuraai/internal/services"
)

type App struct {
	DBClient core.DbClient
	LLM      *llm.GeminiLLM
	Sweeper  *scheduler.Sweeper
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	var (
		objStorage core.ObjectStorage
		uploadDir  string
	)
	switch cfg.StorageBackend {
	case "s3":
		objStorage, err = storage.NewS3Storage(appCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize s3 storage: %w", err)
		}
	default:
		local, err := storage.NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize local storage: %w", err)
		}
		objStorage = local
		uploadDir = local.Dir()
	}
	log.Println("Document storage initialized and ready.")

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm provider: %w", err)
	}

	pipeline := extraction.NewPipeline(
		extraction.NewDocconvExtractor(),
		extraction.NewNormalizer(llmProvider),
	)

	var mail core.Mailer
	if smtp, err := mailer.NewSMTPMailer(cfg); err == nil {
		mail = smtp
	} else {
		log.Printf("SMTP not configured (%v), reminders will be logged only", err)
		mail = mailer.NewLogMailer(logger)
	}

	policyService := services.NewPolicyService(dbClient, mail)
	sweeper := scheduler.NewSweeper(dbClient, mail, logger, cfg.SweepSchedule, cfg.RepeatReminder)

	server := NewServer(cfg, dbClient, policyService, pipeline, objStorage, uploadDir)

	return &App{DBClient: dbClient, LLM: llmProvider, Sweeper: sweeper, Server: server}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
