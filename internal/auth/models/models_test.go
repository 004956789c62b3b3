package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "landregistry/pkg/domain-errors"
)

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("abc"))
	assert.NotEqual(t, h, HashToken("abd"))
}

func TestLoginRequestValidation(t *testing.T) {
	req := LoginRequest{Email: "  Asha@Example.COM ", Name: " Asha "}
	req.Normalize()
	assert.Equal(t, "asha@example.com", req.Email)
	assert.Equal(t, "Asha", req.Name)
	assert.NoError(t, req.Validate())

	bad := LoginRequest{Email: "not-an-email"}
	bad.Normalize()
	assert.True(t, dErrors.Is(bad.Validate(), dErrors.CodeValidation))

	missing := LoginRequest{}
	assert.True(t, dErrors.Is(missing.Validate(), dErrors.CodeValidation))
}

func TestGovernmentLoginRequestValidation(t *testing.T) {
	req := GovernmentLoginRequest{Email: "Officer@Gov.Example", Password: "s3cret"}
	req.Normalize()
	assert.Equal(t, "officer@gov.example", req.Email)
	assert.NoError(t, req.Validate())

	assert.Error(t, (&GovernmentLoginRequest{Email: "a@b.c"}).Validate())
}
