package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/insuraai/insuraai/internal/config"
	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the db interface for policies

const policyColumns = `
	id, user_id, policy_number, type, premium_amount, sum_insured, deductible,
	start_date, end_date, renewal_due_date, file_url, status, last_reminded_at,
	created_at, updated_at
`

func scanPolicy(row interface {
	Scan(dest ...any) error
}) (*models.Policy, error) {
	var (
		p       models.Policy
		fileURL sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.PolicyNumber, &p.Type, &p.PremiumAmount,
		&p.SumInsured, &p.Deductible, &p.StartDate, &p.EndDate,
		&p.RenewalDueDate, &fileURL, &p.Status, &p.LastRemindedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.FileURL = fileURL.String
	return &p, nil
}

func (c *DatabaseClient) CreatePolicy(ctx context.Context, policy *models.Policy) error {
	if policy == nil {
		return errors.New("nil policy")
	}
	const q = `
		INSERT INTO policies
			(id, user_id, policy_number, type, premium_amount, sum_insured, deductible,
			 start_date, end_date, renewal_due_date, file_url, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12,
			 COALESCE($13, now()), COALESCE($14, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		policy.ID, policy.UserID, policy.PolicyNumber, policy.Type, policy.PremiumAmount,
		policy.SumInsured, policy.Deductible, policy.StartDate, policy.EndDate,
		policy.RenewalDueDate, policy.FileURL, policy.Status, policy.CreatedAt, policy.UpdatedAt)
	// The composite (policy_number, user_id) index catches duplicates that
	// race past the service-level pre-check.
	if isUniqueViolation(err) {
		return core.ErrDuplicatePolicy
	}
	return err
}

// Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (c *DatabaseClient) GetPolicyByID(ctx context.Context, id string) (*models.Policy, error) {
	q := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`
	p, err := scanPolicy(c.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *DatabaseClient) GetPolicyByNumber(ctx context.Context, userID, policyNumber string) (*models.Policy, error) {
	q := `SELECT ` + policyColumns + ` FROM policies WHERE user_id = $1 AND policy_number = $2`
	p, err := scanPolicy(c.db.QueryRowContext(ctx, q, userID, policyNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *DatabaseClient) ListPoliciesByUser(ctx context.Context, userID string) ([]models.Policy, error) {
	q := `SELECT ` + policyColumns + ` FROM policies WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdatePolicy(ctx context.Context, policy *models.Policy) error {
	if policy == nil {
		return errors.New("nil policy")
	}
	const q = `
		UPDATE policies
		SET policy_number = $2, type = $3, premium_amount = $4, sum_insured = $5,
		    deductible = $6, start_date = $7, end_date = $8, renewal_due_date = $9,
		    file_url = NULLIF($10, ''), status = $11, last_reminded_at = $12,
		    updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q,
		policy.ID, policy.PolicyNumber, policy.Type, policy.PremiumAmount,
		policy.SumInsured, policy.Deductible, policy.StartDate, policy.EndDate,
		policy.RenewalDueDate, policy.FileURL, policy.Status, policy.LastRemindedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("policy not found: %s", policy.ID)
	}
	return nil
}

func (c *DatabaseClient) DeletePolicy(ctx context.Context, id, userID string) (bool, error) {
	const q = `DELETE FROM policies WHERE id = $1 AND user_id = $2`
	res, err := c.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Sweep queries

func (c *DatabaseClient) ExpireOverduePolicies(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE policies
		SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND end_date < $1
	`
	res, err := c.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DatabaseClient) ListRenewalDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	const q = `
		SELECT p.id, p.user_id, p.policy_number, p.type, p.premium_amount,
		       p.sum_insured, p.deductible, p.start_date, p.end_date,
		       p.renewal_due_date, p.file_url, p.status, p.last_reminded_at,
		       p.created_at, p.updated_at,
		       u.name, u.email
		FROM policies p
		JOIN users u ON u.id = p.user_id
		WHERE p.status = 'active' AND p.renewal_due_date <= $1
		ORDER BY p.renewal_due_date ASC
	`
	rows, err := c.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		var (
			r       models.Reminder
			fileURL sql.NullString
		)
		if err := rows.Scan(
			&r.Policy.ID, &r.Policy.UserID, &r.Policy.PolicyNumber, &r.Policy.Type,
			&r.Policy.PremiumAmount, &r.Policy.SumInsured, &r.Policy.Deductible,
			&r.Policy.StartDate, &r.Policy.EndDate, &r.Policy.RenewalDueDate,
			&fileURL, &r.Policy.Status, &r.Policy.LastRemindedAt,
			&r.Policy.CreatedAt, &r.Policy.UpdatedAt,
			&r.OwnerName, &r.OwnerEmail,
		); err != nil {
			return nil, err
		}
		r.Policy.FileURL = fileURL.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) MarkReminded(ctx context.Context, policyID string, at time.Time) error {
	const q = `UPDATE policies SET last_reminded_at = $2 WHERE id = $1`
	_, err := c.db.ExecContext(ctx, q, policyID, at)
	return err
}
