package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email   string   `json:"email" validate:"required,email"`
	LeadIDs []string `json:"leadIds" validate:"required,min=1"`
	Op      string   `json:"tagOperation" validate:"omitempty,oneof=add remove"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	errs := Validate(&sample{Email: "nope", Op: "toggle"})

	assert.Equal(t, map[string]string{
		"email":        "email",
		"leadIds":      "required",
		"tagOperation": "oneof=add remove",
	}, errs)
}

func TestValidateOK(t *testing.T) {
	assert.Nil(t, Validate(&sample{Email: "a@b.co", LeadIDs: []string{"x"}, Op: "add"}))
}
