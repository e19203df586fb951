package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldKind(t *testing.T) {
	k, err := ParseFieldKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAuto, k)

	k, err = ParseFieldKind("father_name")
	require.NoError(t, err)
	assert.Equal(t, KindFatherName, k)

	_, err = ParseFieldKind("phone")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseAccessMode(t *testing.T) {
	m, err := ParseAccessMode("public")
	require.NoError(t, err)
	assert.Equal(t, ModePublic, m)

	_, err = ParseAccessMode("PUBLIC")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidIdentifier, ErrValidation)
	assert.ErrorIs(t, ErrInvalidQuery, ErrValidation)
	assert.False(t, errors.Is(ErrBanned, ErrAccessDenied))

	var err error = &RateLimitError{RetryAfter: 1500 * time.Millisecond}
	assert.ErrorIs(t, err, ErrRateLimited)
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 1500*time.Millisecond, rl.RetryAfter)
}

func TestActionAdminOnly(t *testing.T) {
	assert.False(t, ActionSearch.AdminOnly())
	assert.False(t, ActionInfo.AdminOnly())
	for _, a := range []Action{ActionSetMode, ActionBroadcast, ActionBan, ActionLogs, ActionStats, ActionAdmin} {
		assert.True(t, a.AdminOnly(), a)
	}
}
