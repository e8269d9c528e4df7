package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = ParseID("  " + "5F1B2C3D4E5F6A7B8C9D0E1F" + " ")
	require.NoError(t, err)
	assert.Equal(t, "5f1b2c3d4e5f6a7b8c9d0e1f", parsed)

	for _, bad := range []string{"", "123", "not-an-object-id-at-all!", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := ParseID(bad)
		require.Error(t, err, bad)
		assert.True(t, IsInvalidID(err))
		assert.Contains(t, err.Error(), "Id invalido")
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPendiente.Valid())
	assert.True(t, StatusTerminada.Valid())
	assert.False(t, Status("pendiente").Valid())
	assert.False(t, Status("").Valid())
}

func TestNextDate(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)

	first := NextDate(nil, now)
	assert.Equal(t, now.Truncate(time.Millisecond), first)

	// Same instant again must still move forward.
	second := NextDate(&first, now)
	assert.True(t, second.After(first))
	assert.Equal(t, time.Millisecond, second.Sub(first))

	// A clock going backwards does not move the date backwards either.
	third := NextDate(&second, now.Add(-time.Hour))
	assert.True(t, third.After(second))

	later := NextDate(&third, now.Add(time.Hour))
	assert.Equal(t, now.Add(time.Hour).Truncate(time.Millisecond), later)
}

func TestDomainErrors(t *testing.T) {
	notFound := &NotFoundError{ID: "abc"}
	assert.True(t, IsNotFound(notFound))
	assert.Contains(t, notFound.Error(), "Id invalido")

	cause := errors.New("connection refused")
	persistence := &PersistenceError{Op: "crear", Err: cause}
	assert.ErrorIs(t, persistence, cause)
	assert.Contains(t, persistence.Error(), "connection refused")
	assert.False(t, IsNotFound(persistence))
}
