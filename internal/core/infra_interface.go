package core

import (
	"context"
	"time"

	"github.com/insuraai/insuraai/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)
	GetUserByID(ctx context.Context, id string) (user *models.User, err error)

	CreatePolicy(ctx context.Context, policy *models.Policy) error
	GetPolicyByID(ctx context.Context, id string) (*models.Policy, error)
	GetPolicyByNumber(ctx context.Context, userID, policyNumber string) (*models.Policy, error)
	ListPoliciesByUser(ctx context.Context, userID string) ([]models.Policy, error)
	UpdatePolicy(ctx context.Context, policy *models.Policy) error
	DeletePolicy(ctx context.Context, id, userID string) (deleted bool, err error)

	// Sweep queries. ExpireOverduePolicies flips every active policy whose
	// end date has passed; running it again is a no-op.
	ExpireOverduePolicies(ctx context.Context, now time.Time) (int64, error)
	ListRenewalDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkReminded(ctx context.Context, policyID string, at time.Time) error

	Close() error
}

// ObjectStorage stores uploaded policy documents and returns the URL the
// policy record should reference. Local disk and S3 both implement it.
type ObjectStorage interface {
	SaveDocument(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	DeleteDocument(ctx context.Context, key string) error
}

// TextExtractor recovers a raw text block from an uploaded file. No
// structural interpretation happens here; the content type hint picks the
// decoding strategy (PDF text layer vs. OCR).
type TextExtractor interface {
	ExtractText(ctx context.Context, path string, contentType string) (string, error)
}

// Mailer delivers renewal reminder emails.
type Mailer interface {
	SendRenewalReminder(ctx context.Context, toEmail, toName string, policy *models.Policy) error
}
