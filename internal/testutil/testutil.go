// Package testutil provides in-memory fakes for service and scheduler tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/insuraai/insuraai/internal/models"
)

// FakeDB is an in-memory core.DbClient. Zero value is not usable; call NewFakeDB.
type FakeDB struct {
	mu       sync.Mutex
	Users    map[string]*models.User
	Policies map[string]*models.Policy

	// Err, when set, is returned by every method. CreatePolicyErr fails only
	// CreatePolicy, for simulating constraint violations.
	Err             error
	CreatePolicyErr error
}

func NewFakeDB() *FakeDB {
	return &FakeDB{
		Users:    make(map[string]*models.User),
		Policies: make(map[string]*models.Policy),
	}
}

func (f *FakeDB) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	cp := *user
	f.Users[user.ID] = &cp
	return nil
}

func (f *FakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, u := range f.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	u, ok := f.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *FakeDB) CreatePolicy(_ context.Context, policy *models.Policy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.CreatePolicyErr != nil {
		return f.CreatePolicyErr
	}
	cp := *policy
	f.Policies[policy.ID] = &cp
	return nil
}

func (f *FakeDB) GetPolicyByID(_ context.Context, id string) (*models.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.Policies[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *FakeDB) GetPolicyByNumber(_ context.Context, userID, policyNumber string) (*models.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, p := range f.Policies {
		if p.UserID == userID && p.PolicyNumber == policyNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeDB) ListPoliciesByUser(_ context.Context, userID string) ([]models.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []models.Policy
	for _, p := range f.Policies {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *FakeDB) UpdatePolicy(_ context.Context, policy *models.Policy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	cp := *policy
	f.Policies[policy.ID] = &cp
	return nil
}

func (f *FakeDB) DeletePolicy(_ context.Context, id, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	p, ok := f.Policies[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(f.Policies, id)
	return true, nil
}

func (f *FakeDB) ExpireOverduePolicies(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	var n int64
	for _, p := range f.Policies {
		if p.Status == models.PolicyStatusActive && p.EndDate.Before(now) {
			p.Status = models.PolicyStatusExpired
			n++
		}
	}
	return n, nil
}

func (f *FakeDB) ListRenewalDue(_ context.Context, now time.Time) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []models.Reminder
	for _, p := range f.Policies {
		if p.Status != models.PolicyStatusActive || p.RenewalDueDate.After(now) {
			continue
		}
		r := models.Reminder{Policy: *p}
		if u, ok := f.Users[p.UserID]; ok {
			r.OwnerName = u.Name
			r.OwnerEmail = u.Email
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *FakeDB) MarkReminded(_ context.Context, policyID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if p, ok := f.Policies[policyID]; ok {
		t := at
		p.LastRemindedAt = &t
	}
	return nil
}

func (f *FakeDB) Close() error { return nil }

// SentReminder records one reminder delivered through FakeMailer.
type SentReminder struct {
	To           string
	Name         string
	PolicyNumber string
}

// FakeMailer captures reminders instead of sending them.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentReminder

	// Err, when set, fails every send.
	Err error
}

func (m *FakeMailer) SendRenewalReminder(_ context.Context, toEmail, toName string, policy *models.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentReminder{To: toEmail, Name: toName, PolicyNumber: policy.PolicyNumber})
	return nil
}

// SentCount returns the number of reminders delivered so far.
func (m *FakeMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
