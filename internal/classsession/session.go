// Package classsession manages faculty-created, time-boxed attendance windows.
package classsession

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("class session not found")
	ErrFacultyUnknown = errors.New("faculty record not found")
	ErrBranchMismatch = errors.New("faculty cannot create sessions outside their branch")
	ErrDuplicateID    = errors.New("class session id already exists")
)

// Session is a class session. Rows are immutable once written; expiry is a
// property of the clock, not a stored state, and expired sessions are kept
// as history.
type Session struct {
	ID        string    `json:"class_id"`
	Branch    string    `json:"branch"`
	Division  string    `json:"division"`
	Subject   string    `json:"subject"`
	FacultyID int64     `json:"-"`
	FacultyIP string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the session's validity window has passed. The
// boundary instant itself counts as expired.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// newSessionID builds the human-readable session id: the first three letters of
// the branch and the division uppercased, plus the creation unix timestamp.
// Two creations for the same branch/division in the same second collide; the
// store's primary key turns that into ErrDuplicateID rather than masking it.
func newSessionID(branch, division string, at time.Time) string {
	prefix := branch
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-%s-%d", strings.ToUpper(prefix), strings.ToUpper(division), at.Unix())
}
