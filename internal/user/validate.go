package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ValidationError marks a client-fault input problem; handlers map it to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	fullNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return invalidf("username must be between 3 and 50 characters")
	}
	if !usernameRe.MatchString(username) {
		return invalidf("username can only contain letters, numbers, and underscores")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return invalidf("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return invalidf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return invalidf("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return invalidf("password must contain at least one number")
	}
	return nil
}

func validateFullName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 || len(trimmed) > 100 {
		return invalidf("name must be between 2 and 100 characters")
	}
	if !fullNameRe.MatchString(trimmed) {
		return invalidf("name can only contain letters and spaces")
	}
	return nil
}

func validateBranch(branch string) error {
	if branch == "" || len(branch) > 50 {
		return invalidf("invalid branch")
	}
	return nil
}

func validateDivision(division string) error {
	if division == "" || len(division) > 10 {
		return invalidf("invalid division")
	}
	return nil
}

func validateSemester(semester int) error {
	if semester < 1 || semester > 8 {
		return invalidf("semester must be between 1 and 8")
	}
	return nil
}
