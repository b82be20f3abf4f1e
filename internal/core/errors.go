package core

import "errors"

var (
	// ErrDuplicatePolicy is returned when a (policyNumber, owner) pair already
	// exists; callers can ignore it silently instead of re-adding.
	ErrDuplicatePolicy = errors.New("policy number already exists")

	// ErrPolicyNotFound covers both a missing record and a record owned by
	// someone else on owner-scoped lookups, so existence never leaks across
	// owners.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrNotOwner is returned when a caller targets another user's policy on
	// operations that distinguish ownership from existence (renew, remind).
	ErrNotOwner = errors.New("not authorized for this policy")

	// ErrNoOwnerEmail is returned by manual reminders when the policy owner has
	// no email address on file; a client problem, not a server one.
	ErrNoOwnerEmail = errors.New("owner has no email on file")
)
