package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("  alice ")
	require.NoError(t, err)
	assert.Equal(t, UserID("alice"), id)

	_, err = ParseUserID("   ")
	require.ErrorIs(t, err, ErrUserIDEmpty)

	_, err = ParseUserID(strings.Repeat("x", MaxUserIDLen+1))
	require.ErrorIs(t, err, ErrUserIDTooLong)
}
