package user

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Repo is the persistence surface the service needs. *Repository satisfies it.
type Repo interface {
	Create(ctx context.Context, u User, profile Profile) (int64, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, userID int64) (User, error)
	StudentByUserID(ctx context.Context, userID int64) (StudentProfile, error)
	FacultyByUserID(ctx context.Context, userID int64) (FacultyProfile, error)
}

// Service handles registration, credential checks and profile reads.
type Service struct {
	repo Repo
}

// NewService creates a service backed by a repo.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the registration fields. Division and Semester are
// only meaningful for students.
type RegisterInput struct {
	Username string
	Password string
	FullName string
	Role     string
	Branch   string
	Division string
	Semester int
}

// Register validates input, hashes the password and creates the user with its
// role profile atomically. Returns ErrUsernameTaken or a *ValidationError.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := validateUsername(in.Username); err != nil {
		return User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return User{}, err
	}
	if err := validateFullName(in.FullName); err != nil {
		return User{}, err
	}
	if in.Role != RoleStudent && in.Role != RoleFaculty {
		return User{}, invalidf("invalid role")
	}
	if err := validateBranch(in.Branch); err != nil {
		return User{}, err
	}

	var profile Profile
	if in.Role == RoleStudent {
		if err := validateDivision(in.Division); err != nil {
			return User{}, err
		}
		if err := validateSemester(in.Semester); err != nil {
			return User{}, err
		}
		profile = StudentProfile{Branch: in.Branch, Division: in.Division, Semester: in.Semester}
	} else {
		profile = FacultyProfile{Branch: in.Branch}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u := User{
		Username:     in.Username,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		PasswordHash: string(hash),
	}
	id, err := s.repo.Create(ctx, u, profile)
	if err != nil {
		return User{}, err
	}
	u.ID = id
	return u, nil
}

// Authenticate checks a username/password pair. Unknown user and wrong
// password both come back as ErrInvalidCredentials so the response does not
// reveal which usernames exist.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// ProfileView is a user joined with their role profile.
type ProfileView struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Branch   string `json:"branch"`
	Division string `json:"division,omitempty"`
	Semester int    `json:"semester,omitempty"`
}

// Profile returns the joined view for a user, or ErrNotFound.
func (s *Service) Profile(ctx context.Context, userID int64) (ProfileView, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return ProfileView{}, err
	}
	view := ProfileView{Username: u.Username, FullName: u.FullName, Role: u.Role}
	switch u.Role {
	case RoleStudent:
		p, err := s.repo.StudentByUserID(ctx, userID)
		if err != nil {
			return ProfileView{}, err
		}
		view.Branch = p.Branch
		view.Division = p.Division
		view.Semester = p.Semester
	case RoleFaculty:
		p, err := s.repo.FacultyByUserID(ctx, userID)
		if err != nil {
			return ProfileView{}, err
		}
		view.Branch = p.Branch
	}
	return view, nil
}
