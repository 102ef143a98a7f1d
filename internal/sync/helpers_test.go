package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimePtr_RFC3339(t *testing.T) {
	got := parseTimePtr("2026-01-15T10:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 2026, got.Year())
}

func TestParseTimePtr_DateOnly(t *testing.T) {
	got := parseTimePtr("2026-01-15")
	require.NotNil(t, got)
	assert.Equal(t, 15, got.Day())
}

func TestParseTimePtr_EmptyReturnsNil(t *testing.T) {
	assert.Nil(t, parseTimePtr(""))
}

func TestParseTimePtr_UnparsableReturnsNil(t *testing.T) {
	assert.Nil(t, parseTimePtr("not-a-date"))
}
