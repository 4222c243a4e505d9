package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordProducesDistinctHashes(t *testing.T) {
	h1, err := HashPassword("Password1", 4)
	require.NoError(t, err)
	h2, err := HashPassword("Password1", 4)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "bcrypt must salt per call")
	assert.True(t, CheckPassword(h1, "Password1"))
	assert.True(t, CheckPassword(h2, "Password1"))
}

func TestCheckPasswordRejectsWrongPassword(t *testing.T) {
	h, err := HashPassword("Password1", 4)
	require.NoError(t, err)

	assert.False(t, CheckPassword(h, "Password2"))
	assert.False(t, CheckPassword(h, ""))
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "Password1"))
	assert.False(t, CheckPassword("", "Password1"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	// Out-of-range cost falls back to the default instead of erroring.
	h, err := HashPassword("Password1", 99)
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "Password1"))
}
