// Package schedule serves the weekly timetable: the division view for
// students and the teaching view for faculty.
package schedule

import (
	"context"
	"database/sql"
)

// Entry is one timetable slot.
type Entry struct {
	DayOfWeek string `json:"day_of_week"`
	TimeSlot  string `json:"time_slot"`
	Subject   string `json:"subject"`
	Division  string `json:"division,omitempty"`
	Faculty   string `json:"faculty_name,omitempty"`
}

// Repository reads the schedule table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ForDivision returns the weekly slots for a division and semester. Slots
// with no semester set apply to every semester of the division.
func (r *Repository) ForDivision(ctx context.Context, division string, semester int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.day_of_week, s.time_slot, s.subject, COALESCE(u.full_name, '')
		FROM schedule s
		LEFT JOIN faculty f ON f.faculty_id = s.faculty_id
		LEFT JOIN users u ON u.user_id = f.user_id
		WHERE s.division = $1 AND (s.semester = $2 OR s.semester IS NULL)
		ORDER BY CASE s.day_of_week
			WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3
			WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6
			ELSE 7 END,
			s.time_slot
	`, division, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.DayOfWeek, &e.TimeSlot, &e.Subject, &e.Faculty); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ForFaculty returns the weekly teaching slots of a faculty member.
func (r *Repository) ForFaculty(ctx context.Context, facultyID int64) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day_of_week, time_slot, subject, division
		FROM schedule
		WHERE faculty_id = $1
		ORDER BY CASE day_of_week
			WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3
			WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6
			ELSE 7 END,
			time_slot
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.DayOfWeek, &e.TimeSlot, &e.Subject, &e.Division); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
