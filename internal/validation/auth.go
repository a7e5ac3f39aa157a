// Package validation provides pure input checks for the auth mutations.
package validation

import "strings"

// Result is the outcome of validating one mutation's input.
type Result struct {
	Valid  bool
	Errors map[string]string
}

func newResult(errs map[string]string) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateRegisterInput checks every registration field. confirmPassword is
// only compared when password itself is non-blank.
func ValidateRegisterInput(username, email, password, confirmPassword string) Result {
	errs := map[string]string{}
	if blank(username) {
		errs["username"] = "Username must not be empty"
	}
	if blank(email) {
		errs["email"] = "Email must not be empty"
	}
	if blank(password) {
		errs["password"] = "Password must not be empty"
	} else if confirmPassword != password {
		errs["confirmPassword"] = "Passwords must match"
	}
	return newResult(errs)
}

// ValidateLoginInput checks that both credentials are non-blank.
func ValidateLoginInput(username, password string) Result {
	errs := map[string]string{}
	if blank(username) {
		errs["username"] = "Username must not be empty"
	}
	if blank(password) {
		errs["password"] = "Password must not be empty"
	}
	return newResult(errs)
}
