package classsession

import (
	"context"
	"errors"
	"time"

	"classattend/internal/user"
)

// Repo is the persistence surface the manager needs. *Repository satisfies it.
type Repo interface {
	Insert(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
}

// FacultyDirectory resolves the faculty profile behind an authenticated user.
type FacultyDirectory interface {
	FacultyByUserID(ctx context.Context, userID int64) (user.FacultyProfile, error)
}

// Manager creates and reads class sessions. There is no background sweep;
// every consumer evaluates expiry lazily against its own clock.
type Manager struct {
	repo     Repo
	faculty  FacultyDirectory
	duration time.Duration
	now      func() time.Time
}

// NewManager builds a manager. duration is the fixed validity window applied
// to every session.
func NewManager(repo Repo, faculty FacultyDirectory, duration time.Duration) *Manager {
	if duration <= 0 {
		duration = 2 * time.Hour
	}
	return &Manager{repo: repo, faculty: faculty, duration: duration, now: time.Now}
}

// Create opens a session for the requesting faculty member. The faculty's own
// branch must match the requested branch; this is an authorization rule, not
// a shape check.
func (m *Manager) Create(ctx context.Context, facultyUserID int64, branch, division, subject, creatorIP string) (Session, error) {
	prof, err := m.faculty.FacultyByUserID(ctx, facultyUserID)
	if errors.Is(err, user.ErrNotFound) {
		return Session{}, ErrFacultyUnknown
	}
	if err != nil {
		return Session{}, err
	}
	if prof.Branch != branch {
		return Session{}, ErrBranchMismatch
	}

	createdAt := m.now()
	s := Session{
		ID:        newSessionID(branch, division, createdAt),
		Branch:    branch,
		Division:  division,
		Subject:   subject,
		FacultyID: prof.ID,
		FacultyIP: creatorIP,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(m.duration),
	}
	if err := m.repo.Insert(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Get returns a session by id, or ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	return m.repo.Get(ctx, id)
}
