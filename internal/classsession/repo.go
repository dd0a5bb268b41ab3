package classsession

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Repository persists class sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new session. A colliding id comes back as ErrDuplicateID.
func (r *Repository) Insert(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_sessions (class_id, branch, division, subject, faculty_id, faculty_ip, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.Branch, s.Division, s.Subject, s.FacultyID, s.FacultyIP, s.CreatedAt, s.ExpiresAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateID
	}
	return err
}

// Get returns a session by id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT class_id, branch, division, subject, faculty_id, faculty_ip, created_at, expires_at
		FROM class_sessions WHERE class_id = $1
	`, id).Scan(&s.ID, &s.Branch, &s.Division, &s.Subject, &s.FacultyID, &s.FacultyIP, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}
