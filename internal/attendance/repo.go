package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ExistsForDay reports whether a record already exists for the triple. This
// is the fast path only; Insert's conflict handling is authoritative.
func (r *Repository) ExistsForDay(ctx context.Context, userID int64, classID string, day time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance WHERE user_id = $1 AND class_id = $2 AND date = $3
		)
	`, userID, classID, day).Scan(&exists)
	return exists, err
}

// Insert writes a record. The composite unique index on (user_id, class_id,
// date) makes concurrent duplicates lose the race: a conflicting insert
// affects zero rows and comes back as ErrAlreadyMarked.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (attendance_id, user_id, class_id, date, status, marked_time, marked_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, class_id, date) DO NOTHING
	`, rec.ID, rec.UserID, rec.ClassID, rec.Date, rec.Status, rec.MarkedTime, rec.MarkedIP)
	if err != nil {
		return Record{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Record{}, err
	}
	if affected == 0 {
		return Record{}, ErrAlreadyMarked
	}
	return rec, nil
}

// ListForUser returns a student's history, most recent day first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.class_id, c.subject, c.branch, c.division, a.date, a.status, a.marked_time
		FROM attendance a
		JOIN class_sessions c ON c.class_id = a.class_id
		WHERE a.user_id = $1
		ORDER BY a.date DESC, a.marked_time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ClassID, &e.Subject, &e.Branch, &e.Division, &e.Date, &e.Status, &e.MarkedTime); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListForFaculty returns the marks collected by a faculty member's sessions,
// with the student name attached.
func (r *Repository) ListForFaculty(ctx context.Context, facultyID int64) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.class_id, c.subject, c.branch, c.division, a.date, a.status, a.marked_time, u.full_name
		FROM attendance a
		JOIN class_sessions c ON c.class_id = a.class_id
		JOIN users u ON u.user_id = a.user_id
		WHERE c.faculty_id = $1
		ORDER BY a.date DESC, c.class_id, u.full_name
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ClassID, &e.Subject, &e.Branch, &e.Division, &e.Date, &e.Status, &e.MarkedTime, &e.Student); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
