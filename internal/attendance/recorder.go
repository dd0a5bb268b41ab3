package attendance

import (
	"context"
	"errors"
	"time"

	"classattend/internal/classsession"
	"classattend/internal/user"
)

// Repo is the persistence surface the recorder needs. *Repository satisfies it.
type Repo interface {
	ExistsForDay(ctx context.Context, userID int64, classID string, day time.Time) (bool, error)
	Insert(ctx context.Context, rec Record) (Record, error)
}

// Sessions resolves class sessions by id.
type Sessions interface {
	Get(ctx context.Context, id string) (classsession.Session, error)
}

// Students resolves the student profile behind an authenticated user.
type Students interface {
	StudentByUserID(ctx context.Context, userID int64) (user.StudentProfile, error)
}

// Proximity is the subnet co-location heuristic.
type Proximity interface {
	SameSubnet(a, b string) bool
}

// Recorder validates and records attendance marks. Every check short-circuits
// with a named rejection; the store's uniqueness constraint is what actually
// prevents duplicates under concurrency, not the pre-check.
type Recorder struct {
	repo      Repo
	sessions  Sessions
	students  Students
	proximity Proximity
	now       func() time.Time
}

// NewRecorder builds a recorder.
func NewRecorder(repo Repo, sessions Sessions, students Students, proximity Proximity) *Recorder {
	return &Recorder{
		repo:      repo,
		sessions:  sessions,
		students:  students,
		proximity: proximity,
		now:       time.Now,
	}
}

// Mark records attendance for a student in a session. The error, when set, is
// one of the package's named rejections or a store failure.
func (rec *Recorder) Mark(ctx context.Context, studentUserID int64, classID, clientIP string) (Record, error) {
	profile, err := rec.students.StudentByUserID(ctx, studentUserID)
	if errors.Is(err, user.ErrNotFound) {
		return Record{}, ErrNoProfile
	}
	if err != nil {
		return Record{}, err
	}

	session, err := rec.sessions.Get(ctx, classID)
	if errors.Is(err, classsession.ErrNotFound) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, err
	}

	now := rec.now()
	if session.ExpiredAt(now) {
		return Record{}, ErrSessionExpired
	}

	if profile.Branch != session.Branch || profile.Division != session.Division {
		return Record{}, ErrNotEnrolled
	}

	if !rec.proximity.SameSubnet(clientIP, session.FacultyIP) {
		return Record{}, ErrNotOnNetwork
	}

	day := now.UTC().Truncate(24 * time.Hour)
	exists, err := rec.repo.ExistsForDay(ctx, studentUserID, classID, day)
	if err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, ErrAlreadyMarked
	}

	return rec.repo.Insert(ctx, Record{
		UserID:     studentUserID,
		ClassID:    classID,
		Date:       day,
		Status:     StatusPresent,
		MarkedTime: now,
		MarkedIP:   clientIP,
	})
}
