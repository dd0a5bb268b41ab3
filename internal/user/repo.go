package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Repository persists users and role profiles in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the user row and its role profile in one transaction.
// Returns ErrUsernameTaken when the username is already claimed.
func (r *Repository) Create(ctx context.Context, u User, profile Profile) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, password, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id
	`, u.Username, u.PasswordHash, u.FullName, u.Role).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}

	switch p := profile.(type) {
	case StudentProfile:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO students (user_id, branch, division, semester)
			VALUES ($1, $2, $3, $4)
		`, userID, p.Branch, p.Division, p.Semester)
	case FacultyProfile:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO faculty (user_id, branch)
			VALUES ($1, $2)
		`, userID, p.Branch)
	default:
		err = fmt.Errorf("unknown profile type %T", profile)
	}
	if err != nil {
		return 0, err
	}

	return userID, tx.Commit()
}

// GetByUsername returns the user owning a username, or ErrNotFound.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, password, full_name, role
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetByID returns a user by id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, userID int64) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, password, full_name, role
		FROM users WHERE user_id = $1
	`, userID).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// StudentByUserID returns the student profile for a user, or ErrNotFound.
func (r *Repository) StudentByUserID(ctx context.Context, userID int64) (StudentProfile, error) {
	var p StudentProfile
	err := r.db.QueryRowContext(ctx, `
		SELECT branch, division, semester FROM students WHERE user_id = $1
	`, userID).Scan(&p.Branch, &p.Division, &p.Semester)
	if errors.Is(err, sql.ErrNoRows) {
		return StudentProfile{}, ErrNotFound
	}
	if err != nil {
		return StudentProfile{}, err
	}
	return p, nil
}

// FacultyByUserID returns the faculty profile for a user, or ErrNotFound.
func (r *Repository) FacultyByUserID(ctx context.Context, userID int64) (FacultyProfile, error) {
	var p FacultyProfile
	err := r.db.QueryRowContext(ctx, `
		SELECT faculty_id, branch FROM faculty WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.Branch)
	if errors.Is(err, sql.ErrNoRows) {
		return FacultyProfile{}, ErrNotFound
	}
	if err != nil {
		return FacultyProfile{}, err
	}
	return p, nil
}
