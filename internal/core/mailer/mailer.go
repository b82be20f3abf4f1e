package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/insuraai/insuraai/internal/config"
	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

const reminderSubject = "Policy Renewal Reminder"

var _ core.Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers reminder emails over SMTP. Construct once at startup
// and share the handle; the client dials per send.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		return nil, fmt.Errorf("SMTP credentials not set")
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUser),
		mail.WithPassword(cfg.SMTPPass),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.MailFrom}, nil
}

func (m *SMTPMailer) SendRenewalReminder(ctx context.Context, toEmail, toName string, policy *models.Policy) error {
	if toName == "" {
		toName = "User"
	}

	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your policy <b>%s</b> (%s) is due for renewal.</p>
		<p>Please renew before <b>%s</b> to avoid expiry.</p>
		<br/>
		<p>&ndash; InsuraAI Team</p>
	`, toName, policy.PolicyNumber, policy.Type, policy.EndDate.Format("Mon Jan 2 2006"))

	msg := mail.NewMsg()
	if err := msg.FromFormat("InsuraAI", m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(reminderSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
