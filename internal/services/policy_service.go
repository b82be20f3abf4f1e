package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

// Renewal terms: renewing extends the end date by six months from its
// current value (so repeated renewals compound), and reminders start 15 days
// before the end date.
const (
	renewalTermMonths = 6
	renewalNoticeDays = 15
)

// RenewalDueDate derives the reminder trigger date from an end date. It is
// recomputed every time the end date changes.
func RenewalDueDate(endDate time.Time) time.Time {
	return endDate.AddDate(0, 0, -renewalNoticeDays)
}

// PolicyService owns the policy state machine: creation, renewal, partial
// updates, deletion, and the expiry transition used by the daily sweep.
type PolicyService struct {
	db     core.DbClient
	mailer core.Mailer
}

func NewPolicyService(db core.DbClient, mailer core.Mailer) *PolicyService {
	return &PolicyService{db: db, mailer: mailer}
}

// CreatePolicyInput carries the validated fields for a new policy.
type CreatePolicyInput struct {
	PolicyNumber  string
	Type          string
	PremiumAmount float64
	SumInsured    *float64
	Deductible    *float64
	StartDate     time.Time
	EndDate       time.Time
	FileURL       string
	Status        string // optional override; defaults to active
}

// Create persists a new policy for the owner. A second policy with the same
// (policyNumber, owner) pair is rejected with ErrDuplicatePolicy so the
// caller can tell it apart from other failures and skip silently.
func (s *PolicyService) Create(ctx context.Context, userID string, in CreatePolicyInput) (*models.Policy, error) {
	if in.PolicyNumber == "" || in.Type == "" {
		return nil, errors.New("policyNumber and type are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, errors.New("endDate precedes startDate")
	}

	existing, err := s.db.GetPolicyByNumber(ctx, userID, in.PolicyNumber)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, core.ErrDuplicatePolicy
	}

	status := in.Status
	if status == "" {
		status = models.PolicyStatusActive
	}

	now := time.Now()
	policy := &models.Policy{
		ID:             uuid.NewString(),
		UserID:         userID,
		PolicyNumber:   in.PolicyNumber,
		Type:           in.Type,
		PremiumAmount:  in.PremiumAmount,
		SumInsured:     in.SumInsured,
		Deductible:     in.Deductible,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		RenewalDueDate: RenewalDueDate(in.EndDate),
		FileURL:        in.FileURL,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.CreatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}
	return policy, nil
}

// List returns all policies owned by the user.
func (s *PolicyService) List(ctx context.Context, userID string) ([]models.Policy, error) {
	return s.db.ListPoliciesByUser(ctx, userID)
}

// Get returns one policy scoped to the owner. Another owner's policy is
// reported as not found, never as forbidden.
func (s *PolicyService) Get(ctx context.Context, userID, id string) (*models.Policy, error) {
	policy, err := s.db.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy == nil || policy.UserID != userID {
		return nil, core.ErrPolicyNotFound
	}
	return policy, nil
}

// PolicyPatch is a partial update; only non-nil fields are applied.
type PolicyPatch struct {
	Type          *string
	PremiumAmount *float64
	SumInsured    *float64
	Deductible    *float64
	StartDate     *time.Time
	EndDate       *time.Time
	Status        *string
}

// Update applies the supplied fields. Patching the end date recomputes the
// renewal due date so the derivation invariant holds.
func (s *PolicyService) Update(ctx context.Context, userID, id string, patch PolicyPatch) (*models.Policy, error) {
	policy, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Type != nil {
		policy.Type = *patch.Type
	}
	if patch.PremiumAmount != nil {
		policy.PremiumAmount = *patch.PremiumAmount
	}
	if patch.SumInsured != nil {
		policy.SumInsured = patch.SumInsured
	}
	if patch.Deductible != nil {
		policy.Deductible = patch.Deductible
	}
	if patch.StartDate != nil {
		policy.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		policy.EndDate = *patch.EndDate
		policy.RenewalDueDate = RenewalDueDate(*patch.EndDate)
	}
	if patch.Status != nil {
		policy.Status = *patch.Status
	}

	if err := s.db.UpdatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	return policy, nil
}

// Delete removes the policy permanently. A policy owned by someone else is
// indistinguishable from one that never existed.
func (s *PolicyService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.db.DeletePolicy(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return core.ErrPolicyNotFound
	}
	return nil
}

// Renew extends the end date six months from its current value (not from
// now, so stacked renewals compound correctly), recomputes the renewal due
// date, and forces the policy back to active whatever its prior state.
// Only the owner may renew.
func (s *PolicyService) Renew(ctx context.Context, userID, id string) (*models.Policy, error) {
	policy, err := s.db.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, core.ErrPolicyNotFound
	}
	if policy.UserID != userID {
		return nil, core.ErrNotOwner
	}

	policy.EndDate = policy.EndDate.AddDate(0, renewalTermMonths, 0)
	policy.RenewalDueDate = RenewalDueDate(policy.EndDate)
	policy.Status = models.PolicyStatusActive
	// Re-arm once-per-cycle reminders for the new term.
	policy.LastRemindedAt = nil

	if err := s.db.UpdatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("renew policy: %w", err)
	}
	return policy, nil
}

// Remind sends one reminder email for the policy to its owner, on demand.
func (s *PolicyService) Remind(ctx context.Context, userID, id string) error {
	policy, err := s.db.GetPolicyByID(ctx, id)
	if err != nil {
		return err
	}
	if policy == nil {
		return core.ErrPolicyNotFound
	}
	if policy.UserID != userID {
		return core.ErrNotOwner
	}

	owner, err := s.db.GetUserByID(ctx, policy.UserID)
	if err != nil {
		return err
	}
	if owner == nil || owner.Email == "" {
		return core.ErrNoOwnerEmail
	}

	if err := s.mailer.SendRenewalReminder(ctx, owner.Email, owner.Name, policy); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// ExpireOverdue transitions every active policy past its end date to
// expired. Repeated calls are no-ops for already-expired policies.
func (s *PolicyService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.db.ExpireOverduePolicies(ctx, now)
}
