// Package user owns identity records and their role profiles.
package user

import "errors"

// Role values stored on a user row.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

// User is an identity record. PasswordHash never leaves this package.
type User struct {
	ID           int64  `json:"user_id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

// Profile is the role-specific half of a user: exactly one of the two
// variants exists per user, created in the same transaction as the user row.
type Profile interface {
	ProfileRole() string
}

// StudentProfile pins a student to a branch, division and semester.
type StudentProfile struct {
	Branch   string `json:"branch"`
	Division string `json:"division"`
	Semester int    `json:"semester"`
}

func (StudentProfile) ProfileRole() string { return RoleStudent }

// FacultyProfile pins a faculty member to a branch. ID is the faculty table
// key, distinct from the user id, and is what class sessions reference.
type FacultyProfile struct {
	ID     int64  `json:"-"`
	Branch string `json:"branch"`
}

func (FacultyProfile) ProfileRole() string { return RoleFaculty }
