package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
	"github.com/insuraai/insuraai/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService() (*PolicyService, *testutil.FakeDB, *testutil.FakeMailer) {
	db := testutil.NewFakeDB()
	mailer := &testutil.FakeMailer{}
	return NewPolicyService(db, mailer), db, mailer
}

func seedUser(db *testutil.FakeDB, id, name, email string) {
	db.Users[id] = &models.User{ID: id, Name: name, Email: email}
}

func seedPolicy(db *testutil.FakeDB, id, userID, number string, end time.Time, status string) *models.Policy {
	p := &models.Policy{
		ID:             id,
		UserID:         userID,
		PolicyNumber:   number,
		Type:           "Health",
		PremiumAmount:  4500,
		StartDate:      end.AddDate(-1, 0, 0),
		EndDate:        end,
		RenewalDueDate: RenewalDueDate(end),
		Status:         status,
	}
	db.Policies[id] = p
	return p
}

func TestCreate_DerivesRenewalDueDate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	end := date(2024, time.December, 31)

	policy, err := svc.Create(context.Background(), "user-1", CreatePolicyInput{
		PolicyNumber:  "HL-1",
		Type:          "Health",
		PremiumAmount: 4500,
		StartDate:     date(2024, time.January, 1),
		EndDate:       end,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if want := date(2024, time.December, 16); !policy.RenewalDueDate.Equal(want) {
		t.Errorf("RenewalDueDate = %v, want %v", policy.RenewalDueDate, want)
	}
	if policy.Status != models.PolicyStatusActive {
		t.Errorf("Status = %q, want active by default", policy.Status)
	}
}

func TestCreate_StatusOverride(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()

	policy, err := svc.Create(context.Background(), "user-1", CreatePolicyInput{
		PolicyNumber:  "HL-1",
		Type:          "Health",
		PremiumAmount: 4500,
		StartDate:     date(2024, time.January, 1),
		EndDate:       date(2024, time.December, 31),
		Status:        models.PolicyStatusPending,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if policy.Status != models.PolicyStatusPending {
		t.Errorf("Status = %q, want pending", policy.Status)
	}
}

func TestCreate_DuplicateRejectedAndNothingWritten(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	_, err := svc.Create(context.Background(), "user-1", CreatePolicyInput{
		PolicyNumber:  "HL-1",
		Type:          "Health",
		PremiumAmount: 4500,
		StartDate:     date(2024, time.January, 1),
		EndDate:       date(2024, time.December, 31),
	})
	if !errors.Is(err, core.ErrDuplicatePolicy) {
		t.Fatalf("Create() error = %v, want ErrDuplicatePolicy", err)
	}
	if len(db.Policies) != 1 {
		t.Errorf("policy count = %d, want 1 (no new record)", len(db.Policies))
	}
}

func TestCreate_SameNumberDifferentOwnerAllowed(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	if _, err := svc.Create(context.Background(), "user-2", CreatePolicyInput{
		PolicyNumber:  "HL-1",
		Type:          "Health",
		PremiumAmount: 4500,
		StartDate:     date(2024, time.January, 1),
		EndDate:       date(2024, time.December, 31),
	}); err != nil {
		t.Fatalf("Create() error = %v, want success for a different owner", err)
	}
}

func TestRenew_ExtendsSixMonthsAndReactivates(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	end := date(2024, time.December, 31)
	seedPolicy(db, "p-1", "user-1", "HL-1", end, models.PolicyStatusExpired)

	policy, err := svc.Renew(context.Background(), "user-1", "p-1")
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}

	wantEnd := end.AddDate(0, 6, 0)
	if !policy.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", policy.EndDate, wantEnd)
	}
	if want := wantEnd.AddDate(0, 0, -15); !policy.RenewalDueDate.Equal(want) {
		t.Errorf("RenewalDueDate = %v, want %v", policy.RenewalDueDate, want)
	}
	if policy.Status != models.PolicyStatusActive {
		t.Errorf("Status = %q, want active after renewal", policy.Status)
	}
}

func TestRenew_CompoundsAcrossRenewals(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	end := date(2024, time.June, 30)
	seedPolicy(db, "p-1", "user-1", "HL-1", end, models.PolicyStatusActive)

	if _, err := svc.Renew(context.Background(), "user-1", "p-1"); err != nil {
		t.Fatalf("first Renew() error = %v", err)
	}
	policy, err := svc.Renew(context.Background(), "user-1", "p-1")
	if err != nil {
		t.Fatalf("second Renew() error = %v", err)
	}

	// Two renewals extend from the stored end date each time, not from now.
	if want := end.AddDate(0, 12, 0); !policy.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", policy.EndDate, want)
	}
}

func TestRenew_OwnershipAndExistence(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	end := date(2024, time.December, 31)
	seedPolicy(db, "p-1", "user-1", "HL-1", end, models.PolicyStatusActive)

	if _, err := svc.Renew(context.Background(), "user-2", "p-1"); !errors.Is(err, core.ErrNotOwner) {
		t.Errorf("Renew() by non-owner error = %v, want ErrNotOwner", err)
	}
	if !db.Policies["p-1"].EndDate.Equal(end) {
		t.Errorf("EndDate changed by rejected renewal")
	}

	if _, err := svc.Renew(context.Background(), "user-1", "missing"); !errors.Is(err, core.ErrPolicyNotFound) {
		t.Errorf("Renew() of missing policy error = %v, want ErrPolicyNotFound", err)
	}
}

func TestUpdate_EndDatePatchRecomputesRenewalDueDate(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	newEnd := date(2025, time.March, 31)
	policy, err := svc.Update(context.Background(), "user-1", "p-1", PolicyPatch{EndDate: &newEnd})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if want := date(2025, time.March, 16); !policy.RenewalDueDate.Equal(want) {
		t.Errorf("RenewalDueDate = %v, want %v", policy.RenewalDueDate, want)
	}
}

func TestUpdate_PartialPatch(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	sum := 250000.0
	ded := 500.0
	policy, err := svc.Update(context.Background(), "user-1", "p-1", PolicyPatch{
		SumInsured: &sum,
		Deductible: &ded,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if policy.SumInsured == nil || *policy.SumInsured != sum {
		t.Errorf("SumInsured = %v, want %v", policy.SumInsured, sum)
	}
	if policy.Deductible == nil || *policy.Deductible != ded {
		t.Errorf("Deductible = %v, want %v", policy.Deductible, ded)
	}
	if policy.Type != "Health" || policy.PremiumAmount != 4500 {
		t.Errorf("untouched fields changed: type=%q premium=%v", policy.Type, policy.PremiumAmount)
	}
	if want := date(2024, time.December, 16); !policy.RenewalDueDate.Equal(want) {
		t.Errorf("RenewalDueDate = %v, want unchanged %v", policy.RenewalDueDate, want)
	}
}

func TestUpdate_OtherOwnerIsNotFound(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	typ := "Motor"
	if _, err := svc.Update(context.Background(), "user-2", "p-1", PolicyPatch{Type: &typ}); !errors.Is(err, core.ErrPolicyNotFound) {
		t.Errorf("Update() error = %v, want ErrPolicyNotFound (no existence leak)", err)
	}
	if db.Policies["p-1"].Type != "Health" {
		t.Errorf("record mutated by rejected update")
	}
}

func TestDelete_ScopedToOwner(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	if err := svc.Delete(context.Background(), "user-2", "p-1"); !errors.Is(err, core.ErrPolicyNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want ErrPolicyNotFound", err)
	}
	if _, ok := db.Policies["p-1"]; !ok {
		t.Fatal("policy removed by non-owner delete")
	}

	if err := svc.Delete(context.Background(), "user-1", "p-1"); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
	if _, ok := db.Policies["p-1"]; ok {
		t.Error("policy still present after owner delete")
	}
}

func TestExpireOverdue_Idempotent(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	now := date(2025, time.January, 10)
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)
	seedPolicy(db, "p-2", "user-1", "HL-2", date(2025, time.June, 30), models.PolicyStatusActive)

	n, err := svc.ExpireOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("ExpireOverdue() error = %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}
	if db.Policies["p-1"].Status != models.PolicyStatusExpired {
		t.Errorf("overdue policy status = %q, want expired", db.Policies["p-1"].Status)
	}
	if db.Policies["p-2"].Status != models.PolicyStatusActive {
		t.Errorf("current policy status = %q, want active", db.Policies["p-2"].Status)
	}

	n, err = svc.ExpireOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("second ExpireOverdue() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep expired = %d, want 0 (idempotent)", n)
	}
}

func TestRemind_SendsToOwner(t *testing.T) {
	t.Parallel()

	svc, db, mailer := newTestService()
	seedUser(db, "user-1", "Ada", "ada@example.com")
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	if err := svc.Remind(context.Background(), "user-1", "p-1"); err != nil {
		t.Fatalf("Remind() error = %v", err)
	}
	if mailer.SentCount() != 1 {
		t.Fatalf("sent = %d, want 1", mailer.SentCount())
	}
	if mailer.Sent[0].To != "ada@example.com" || mailer.Sent[0].PolicyNumber != "HL-1" {
		t.Errorf("sent = %+v, want owner email and policy number", mailer.Sent[0])
	}
}

func TestRemind_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	svc, db, mailer := newTestService()
	seedUser(db, "user-1", "Ada", "ada@example.com")
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	if err := svc.Remind(context.Background(), "user-2", "p-1"); !errors.Is(err, core.ErrNotOwner) {
		t.Errorf("Remind() by non-owner error = %v, want ErrNotOwner", err)
	}
	if mailer.SentCount() != 0 {
		t.Errorf("sent = %d, want 0", mailer.SentCount())
	}
}

func TestCreate_RacedDuplicateFromUniqueIndex(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService()
	// A concurrent insert between the pre-check and the write surfaces as a
	// unique-index violation from the database layer.
	db.CreatePolicyErr = core.ErrDuplicatePolicy

	_, err := svc.Create(context.Background(), "user-1", CreatePolicyInput{
		PolicyNumber:  "HL-1",
		Type:          "Health",
		PremiumAmount: 4500,
		StartDate:     date(2024, time.January, 1),
		EndDate:       date(2024, time.December, 31),
	})
	if !errors.Is(err, core.ErrDuplicatePolicy) {
		t.Fatalf("Create() error = %v, want ErrDuplicatePolicy", err)
	}
}

func TestRemind_OwnerWithoutEmail(t *testing.T) {
	t.Parallel()

	svc, db, mailer := newTestService()
	seedUser(db, "user-1", "Ada", "")
	seedPolicy(db, "p-1", "user-1", "HL-1", date(2024, time.December, 31), models.PolicyStatusActive)

	if err := svc.Remind(context.Background(), "user-1", "p-1"); !errors.Is(err, core.ErrNoOwnerEmail) {
		t.Errorf("Remind() error = %v, want ErrNoOwnerEmail", err)
	}
	if mailer.SentCount() != 0 {
		t.Errorf("sent = %d, want 0", mailer.SentCount())
	}
}
