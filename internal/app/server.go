package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/insuraai/insuraai/internal/api/handlers"
	appMiddleware "github.com/insuraai/insuraai/internal/api/middlewares"
	"github.com/insuraai/insuraai/internal/config"
	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/core/extraction"
	"github.com/insuraai/insuraai/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, policies *services.PolicyService, pipeline *extraction.Pipeline, storage core.ObjectStorage, uploadDir string) *Server {
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	policyHandler := handlers.NewPolicyHandler(policies, storage, cfg.MaxUploadSize)
	extractHandler := handlers.NewExtractHandler(pipeline, cfg.MaxUploadSize)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://insuraai.vercel.app", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Locally stored policy documents are served statically; fileUrl on a
	// policy is a relative path under /uploads.
	if uploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
		r.Handle("/uploads/*", fileServer)
	}

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)
		api.Post("/extractRoutes/extract", extractHandler.Extract)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Post("/policies", policyHandler.Create)
			protected.Get("/policies", policyHandler.List)
			protected.Get("/policies/{id}", policyHandler.Get)
			protected.Put("/policies/{id}", policyHandler.Update)
			protected.Delete("/policies/{id}", policyHandler.Delete)
			protected.Post("/policies/{id}/renew", policyHandler.Renew)
			protected.Post("/policies/{id}/remind", policyHandler.Remind)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
