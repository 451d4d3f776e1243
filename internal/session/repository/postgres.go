package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auth-session-service/internal/session/domain"
)

// PostgresRepository stores sessions in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, account_id, token, device_info, ip_address, created_at, last_activity`

// GetByToken returns the session whose token exactly matches, or nil.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token)
	return scanSession(row)
}

// GetByAccountAndID returns the session matching both accountID and id, or nil.
func (r *PostgresRepository) GetByAccountAndID(ctx context.Context, accountID, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 AND id = $2`, accountID, id)
	return scanSession(row)
}

// ListByAccount returns all sessions for the account, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Session{}
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Token, &s.DeviceInfo, &s.IPAddress, &s.CreatedAt, &s.LastActivity); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// CountByAccount returns the number of active sessions for the account.
func (r *PostgresRepository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sessions WHERE account_id = $1`, accountID).Scan(&n)
	return n, err
}

// Create persists the session inside a transaction holding a per-account
// advisory lock, so concurrent count-then-insert sequences for the same
// account serialize even across processes sharing this database.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, s.AccountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.AccountID, s.Token, s.DeviceInfo, s.IPAddress, s.CreatedAt, s.LastActivity); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the session by id. Returns whether a session existed.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAllByAccount removes every session owned by the account and returns
// the number removed.
func (r *PostgresRepository) DeleteAllByAccount(ctx context.Context, accountID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Touch updates LastActivity for the given session id.
func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = $2 WHERE id = $1`, id, at)
	return err
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.AccountID, &s.Token, &s.DeviceInfo, &s.IPAddress, &s.CreatedAt, &s.LastActivity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
