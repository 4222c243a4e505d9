package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken(t *testing.T) {
	t1, err := GenerateOpaqueToken(32)
	require.NoError(t, err)
	t2, err := GenerateOpaqueToken(32)
	require.NoError(t, err)

	assert.Len(t, t1, 64, "32 bytes hex-encoded")
	assert.NotEqual(t, t1, t2)
}

func TestGenerateOpaqueTokenEnforcesMinimumLength(t *testing.T) {
	tok, err := GenerateOpaqueToken(4)
	require.NoError(t, err)
	assert.Len(t, tok, 64, "short requests are raised to 32 bytes")
}
