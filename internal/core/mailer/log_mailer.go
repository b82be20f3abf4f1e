package mailer

import (
	"context"
	"log/slog"

	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

var _ core.Mailer = (*LogMailer)(nil)

// LogMailer records reminders instead of sending them. Used when SMTP
// credentials are not configured, so local runs don't need a mail account.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "mailer.log")}
}

func (m *LogMailer) SendRenewalReminder(ctx context.Context, toEmail, toName string, policy *models.Policy) error {
	m.logger.Info("renewal reminder (not sent, SMTP unconfigured)",
		"to", toEmail,
		"policy_number", policy.PolicyNumber,
		"end_date", policy.EndDate.Format("2006-01-02"))
	return nil
}
