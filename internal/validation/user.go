// Package validation performs request-shape checks before anything touches
// the database. Failures are reported per field; a request with any entry in
// the returned map is rejected and nothing is persisted.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
)

// UserRegister validates a registration request. Password complexity rules:
// 8 to 30 characters with at least one upper-case letter, one lower-case
// letter and one digit. Usernames are 3 to 20 characters of letters, digits
// and underscores. Lengths count runes, not bytes, so multibyte input is
// measured the way users perceive it.
func UserRegister(username, email, password string) map[string]string {
	errs := map[string]string{}

	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required."
	case utf8.RuneCountInString(email) < 5 || utf8.RuneCountInString(email) > 50:
		errs["email"] = "Email must be between 5 and 50 characters."
	case !emailRe.MatchString(email):
		errs["email"] = "Email is not valid."
	}

	switch {
	case password == "":
		errs["password"] = "Password is required."
	case utf8.RuneCountInString(password) < 8 || utf8.RuneCountInString(password) > 30:
		errs["password"] = "Password must be between 8 and 30 characters."
	case !upperRe.MatchString(password) || !lowerRe.MatchString(password) || !digitRe.MatchString(password):
		errs["password"] = "Password must contain at least one uppercase letter, one lowercase letter, and one number."
	}

	switch {
	case strings.TrimSpace(username) == "":
		errs["username"] = "Username is required."
	case utf8.RuneCountInString(username) < 3 || utf8.RuneCountInString(username) > 20:
		errs["username"] = "Username must be between 3 and 20 characters."
	case !usernameRe.MatchString(username):
		errs["username"] = "Username must contain only letters, numbers, and underscores."
	}

	return errs
}

// UserLogin validates a login request. Only shape is checked here; whether
// the credentials are correct is decided later and reported uniformly.
func UserLogin(email, password string) map[string]string {
	errs := map[string]string{}

	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required."
	case !emailRe.MatchString(email):
		errs["email"] = "Email is not valid."
	}

	if password == "" {
		errs["password"] = "Password is required."
	}

	return errs
}
