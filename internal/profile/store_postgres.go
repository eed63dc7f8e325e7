package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "opsdash/pkg/domain"
	"opsdash/pkg/platform/sentinel"
)

// pgUniqueViolation is the Postgres error code for unique constraint
// violations, used to surface username conflicts as sentinel.ErrConflict.
const pgUniqueViolation = "23505"

// PostgresStore persists profiles in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a profile store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the profiles DDL, applied by migrations and by integration
// tests.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	username   TEXT NOT NULL UNIQUE,
	privilege  TEXT NOT NULL DEFAULT 'viewer',
	department TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	deleted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const profileColumns = `id, name, username, privilege, department, avatar_url, deleted_at, created_at, updated_at`

func (s *PostgresStore) Find(ctx context.Context, userID id.UserID) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1 AND deleted_at IS NULL`,
		userID.String(),
	)
	return scanProfile(row)
}

func (s *PostgresStore) DeletionStatus(ctx context.Context, userID id.UserID) (DeletionStatus, error) {
	var deletedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT deleted_at FROM profiles WHERE id = $1`,
		userID.String(),
	).Scan(&deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeletionStatus{}, sentinel.ErrNotFound
	}
	if err != nil {
		return DeletionStatus{}, fmt.Errorf("query deletion status: %w", err)
	}
	return DeletionStatus{DeletedAt: deletedAt}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p *Profile) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, name, username, privilege, department, avatar_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+profileColumns,
		p.ID.String(), p.Name, p.Username, string(p.Privilege), p.Department, p.AvatarURL,
	)
	inserted, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("insert profile: %w", sentinel.ErrConflict)
		}
		return nil, err
	}
	return inserted, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID id.UserID, patch Patch) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE profiles SET
			name       = COALESCE($2, name),
			username   = COALESCE($3, username),
			department = COALESCE($4, department),
			avatar_url = COALESCE($5, avatar_url),
			updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+profileColumns,
		userID.String(), patch.Name, patch.Username, patch.Department, patch.AvatarURL,
	)
	updated, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("update profile: %w", sentinel.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

// Deactivate sets the soft-delete marker without removing the row.
func (s *PostgresStore) Deactivate(ctx context.Context, userID id.UserID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`,
		userID.String(),
	)
	if err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p         Profile
		rawID     string
		privilege string
	)
	err := row.Scan(&rawID, &p.Name, &p.Username, &privilege, &p.Department,
		&p.AvatarURL, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("profile id column: %w", err)
	}
	p.ID = userID
	p.Privilege = Privilege(privilege)
	return &p, nil
}
