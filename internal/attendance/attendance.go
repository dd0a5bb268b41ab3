// Package attendance records one attendance mark per student, session and day.
package attendance

import (
	"errors"
	"time"
)

// Status of a record. Only "present" is written today; the column is an enum
// so absent/excused can be added without a schema change.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusExcused = "excused"
)

// Named rejections, in the order the mark pipeline checks them.
var (
	ErrNoProfile       = errors.New("student record not found")
	ErrSessionNotFound = errors.New("class session not found")
	ErrSessionExpired  = errors.New("class session has expired")
	ErrNotEnrolled     = errors.New("student not enrolled in this class")
	ErrNotOnNetwork    = errors.New("student not on the faculty network")
	ErrAlreadyMarked   = errors.New("attendance already marked today")
)

// Record is one attendance mark. (UserID, ClassID, Date) is the identity;
// the store enforces its uniqueness and rows are never mutated or deleted.
type Record struct {
	ID         string    `json:"attendance_id"`
	UserID     int64     `json:"user_id"`
	ClassID    string    `json:"class_id"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	MarkedTime time.Time `json:"marked_time"`
	MarkedIP   string    `json:"-"`
}

// HistoryEntry is a record joined with its session, for the history views.
type HistoryEntry struct {
	ClassID    string    `json:"class_id"`
	Subject    string    `json:"subject"`
	Branch     string    `json:"branch"`
	Division   string    `json:"division"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	MarkedTime time.Time `json:"marked_time"`
	Student    string    `json:"student,omitempty"`
}
