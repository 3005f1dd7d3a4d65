package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	hash, err := HashPassword("s3cret-panel")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-panel", hash)
	assert.True(t, CheckPassword("s3cret-panel", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long-enough"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
}
