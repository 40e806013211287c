package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Code     string `json:"code" validate:"omitempty,otp"`
	Country  string `json:"country" validate:"required,country"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestRegisteredTags(t *testing.T) {
	v := newValidator()
	ok := signupForm{Username: "alice_1", Email: "a@b.io", Password: "longenough", Code: "123456", Country: "ID"}
	assert.NoError(t, v.Struct(ok))

	bad := signupForm{Username: "a!", Email: "nope", Password: "short", Code: "12ab56", Country: "IDN"}
	details := ToDetails(v.Struct(bad))
	assert.Equal(t, map[string]string{
		"username": "must be 3-32 characters of letters, digits, '.', '_' or '-'",
		"email":    "must be a valid email",
		"password": "must be between 8 and 72 characters",
		"code":     "must be a 6 digit code",
		"country":  "must be an ISO 3166 alpha-2 code",
	}, details)
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var x map[string]any
	err := json.Unmarshal([]byte("{"), &x)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("eof")))
	assert.Nil(t, ToDetails(nil))
}
