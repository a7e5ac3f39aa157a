package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegisterInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		username   string
		email      string
		password   string
		confirm    string
		wantValid  bool
		wantFields []string
	}{
		{"Valid", "alice", "a@b.com", "secret1", "secret1", true, nil},
		{"Untrimmed values are fine", " alice ", "a@b.com", " pw ", " pw ", true, nil},
		{"Blank username only", "", "a@b.com", "pw", "pw", false, []string{"username"}},
		{"Whitespace username", "   ", "a@b.com", "pw", "pw", false, []string{"username"}},
		{"Blank email", "alice", "", "pw", "pw", false, []string{"email"}},
		{"Passwords differ", "alice", "a@b.com", "pw", "other", false, []string{"confirmPassword"}},
		{"Confirm compared untrimmed", "alice", "a@b.com", "pw", "pw ", false, []string{"confirmPassword"}},
		{"Blank password skips confirm", "alice", "a@b.com", "", "x", false, []string{"password"}},
		{"Everything blank", "", "", "", "", false, []string{"username", "email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateRegisterInput(tt.username, tt.email, tt.password, tt.confirm)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Len(t, res.Errors, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, res.Errors, f)
			}
		})
	}
}

func TestValidateLoginInput(t *testing.T) {
	t.Parallel()

	res := ValidateLoginInput("", "")
	assert.False(t, res.Valid)
	assert.Equal(t, "Username must not be empty", res.Errors["username"])
	assert.Equal(t, "Password must not be empty", res.Errors["password"])

	res = ValidateLoginInput("alice", " ")
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors, "password")

	res = ValidateLoginInput("alice", "secret1")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}
