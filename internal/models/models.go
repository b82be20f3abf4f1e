package models

import (
	"time"
)

// Policy status values. Transitions are owned by the policy service and the
// daily sweep; clients only set status through an explicit override.
const (
	PolicyStatusActive  = "active"
	PolicyStatusExpired = "expired"
	PolicyStatusPending = "pending"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Policy represents one insurance policy owned by a user.
// SumInsured and Deductible are optional on real policy schedules, so they are
// pointers: nil means "not stated", which is not the same as zero.
type Policy struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	PolicyNumber   string     `db:"policy_number" json:"policyNumber"`
	Type           string     `db:"type" json:"type"`
	PremiumAmount  float64    `db:"premium_amount" json:"premiumAmount"`
	SumInsured     *float64   `db:"sum_insured" json:"sumInsured,omitempty"`
	Deductible     *float64   `db:"deductible" json:"deductible,omitempty"`
	StartDate      time.Time  `db:"start_date" json:"startDate"`
	EndDate        time.Time  `db:"end_date" json:"endDate"`
	RenewalDueDate time.Time  `db:"renewal_due_date" json:"renewalDueDate"`
	FileURL        string     `db:"file_url" json:"fileUrl,omitempty"`
	Status         string     `db:"status" json:"status"`
	LastRemindedAt *time.Time `db:"last_reminded_at" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// PolicyFields is the seven-key normalized field set every extraction path
// converges on. It lives only for one upload-review cycle and is never
// persisted; an empty string means the field could not be recovered and the
// user completes it manually.
type PolicyFields struct {
	PolicyNumber  string `json:"policyNumber"`
	Type          string `json:"type"`
	PremiumAmount string `json:"premiumAmount"`
	SumInsured    string `json:"sumInsured"`
	Deductible    string `json:"deductible"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
}

// Reminder pairs a policy due for renewal with its owner's contact details,
// as loaded by the sweep query.
type Reminder struct {
	Policy     Policy
	OwnerName  string
	OwnerEmail string
}
