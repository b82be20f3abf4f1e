// Package scheduler runs the daily policy sweep: expire overdue policies,
// then dispatch renewal reminders.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/insuraai/insuraai/internal/core"
)

// Sweeper is the recurring job behind policy expiry and renewal reminders.
// Reminder failures are logged and swallowed; the sweep is best-effort and
// never retries a send.
type Sweeper struct {
	db       core.DbClient
	mailer   core.Mailer
	logger   *slog.Logger
	schedule string
	repeat   bool
	now      func() time.Time
}

// NewSweeper builds a sweeper on the given cron schedule (standard 5-field
// spec, e.g. "0 0 * * *" for midnight daily). With repeat true, a policy due
// for renewal is reminded on every run until it is renewed or expires; with
// repeat false each policy is reminded once per renewal cycle.
func NewSweeper(db core.DbClient, mailer core.Mailer, logger *slog.Logger, schedule string, repeat bool) *Sweeper {
	return &Sweeper{
		db:       db,
		mailer:   mailer,
		logger:   logger.With("component", "scheduler.sweep"),
		schedule: schedule,
		repeat:   repeat,
		now:      time.Now,
	}
}

// Run schedules the sweep and blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx, s.now()); err != nil {
			s.logger.Error("sweep run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.logger.Info("sweep scheduler started", "schedule", s.schedule, "repeat_reminders", s.repeat)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweep scheduler stopped")
	return nil
}

// RunOnce performs one sweep pass as of now: (a) bulk-expire active policies
// past their end date, (b) send a reminder for every active policy whose
// renewal due date has passed.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) error {
	expired, err := s.db.ExpireOverduePolicies(ctx, now)
	if err != nil {
		return fmt.Errorf("expire overdue: %w", err)
	}
	if expired > 0 {
		s.logger.Info("expired overdue policies", "count", expired)
	}

	due, err := s.db.ListRenewalDue(ctx, now)
	if err != nil {
		return fmt.Errorf("list renewals due: %w", err)
	}

	sent := 0
	for _, r := range due {
		if !s.repeat && r.Policy.LastRemindedAt != nil {
			continue
		}
		if r.OwnerEmail == "" {
			continue
		}
		if err := s.mailer.SendRenewalReminder(ctx, r.OwnerEmail, r.OwnerName, &r.Policy); err != nil {
			s.logger.Error("reminder send failed",
				"policy_number", r.Policy.PolicyNumber, "error", err)
			continue
		}
		sent++
		if !s.repeat {
			if err := s.db.MarkReminded(ctx, r.Policy.ID, now); err != nil {
				s.logger.Error("mark reminded failed",
					"policy_number", r.Policy.PolicyNumber, "error", err)
			}
		}
	}
	s.logger.Info("sweep finished", "due", len(due), "reminders_sent", sent)
	return nil
}
