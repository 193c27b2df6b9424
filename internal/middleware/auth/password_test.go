package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPasswordPolicy(t *testing.T) {
	valid := []string{"Admin@123!", "User@123!", "aB#45678", "Sixteen!Chars123"}
	for _, p := range valid {
		assert.NoError(t, CheckPasswordPolicy(p), p)
	}

	invalid := map[string]string{
		"too short":        "aB#4567",
		"too long":         "Seventeen!Chars12",
		"no upper":         "admin@123!",
		"no lower":         "ADMIN@123!",
		"no special":       "Admin12345",
		"space not enough": "Admin 12345",
	}
	for name, p := range invalid {
		assert.ErrorIs(t, CheckPasswordPolicy(p), ErrWeakPassword, name)
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("Admin@123!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Admin@123!", hash)

	assert.NoError(t, VerifyPassword(hash, "Admin@123!"))
	assert.ErrorIs(t, VerifyPassword(hash, "admin@123!"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestHashPassword_BadCostFallsBack(t *testing.T) {
	hash, err := HashPassword("Admin@123!", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
