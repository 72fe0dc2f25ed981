package model

import (
	"errors"
	"regexp"
)

const (
	RolePatient   = "patient"
	RoleCaretaker = "caretaker"
	RoleAdmin     = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrUnknownRole        = errors.New("unknown role")
	ErrInvalidUsername    = errors.New("invalid username")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username     string
	Password     string
	CaptchaToken string
	RemoteIP     string
}

type LoginPage struct {
	RecaptchaSiteKey string `json:"recaptcha_site_key"`
}

func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleCaretaker, RoleAdmin:
		return true
	}
	return false
}

// ValidUsername reports whether username may be used for a new account:
// 1-64 letters, digits, dots, underscores or dashes, starting with a letter
// or digit.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// HomePath is where a user lands after logging in.
func HomePath(role string) string {
	switch role {
	case RolePatient:
		return "/patient"
	case RoleCaretaker:
		return "/caretaker"
	case RoleAdmin:
		return "/admin"
	}
	return "/gallery"
}
