package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	userID, token, err := GenerateGuestToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ExtractUserIDFromHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestGuestTokensAreDistinct(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	a, _, err := GenerateGuestToken()
	require.NoError(t, err)
	b, _, err := GenerateGuestToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateGuestTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, _, err := GenerateGuestToken()
	assert.Error(t, err)
}

func TestExtractUserIDFromHeaderRejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	cases := []string{
		"",
		"Bearer",
		"Bearer not-a-token",
		"Basic abcdef",
	}
	for _, header := range cases {
		got, err := ExtractUserIDFromHeader(header)
		assert.Error(t, err, "header %q", header)
		assert.Equal(t, uuid.Nil, got)
	}
}

func TestExtractUserIDFromHeaderRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	_, token, err := GenerateGuestToken()
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "a-different-secret")
	_, err = ExtractUserIDFromHeader("Bearer " + token)
	assert.Error(t, err)
}
