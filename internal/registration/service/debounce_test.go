package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "cornerstone/pkg/domain"
)

func TestPendingEditsLastWriteWins(t *testing.T) {
	p := NewPendingEdits()
	attendeeID := id.NewAttendeeID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p.Queue(attendeeID, "first_name", "Art", base)
	p.Queue(attendeeID, "first_name", "Arthur", base.Add(time.Second))
	// Stale arrival after the newer edit is dropped.
	p.Queue(attendeeID, "first_name", "A", base.Add(500*time.Millisecond))

	updates := p.Flush()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[attendeeID].FirstName)
	assert.Equal(t, "Arthur", *updates[attendeeID].FirstName)
}

func TestPendingEditsOneUpdatePerAttendee(t *testing.T) {
	p := NewPendingEdits()
	first := id.NewAttendeeID()
	second := id.NewAttendeeID()
	now := time.Now()

	p.Queue(first, "first_name", "Arthur", now)
	p.Queue(first, "dietary", "vegetarian", now)
	p.Queue(second, "last_name", "Holt", now)
	assert.Equal(t, 3, p.Len())

	updates := p.Flush()
	require.Len(t, updates, 2)
	assert.Equal(t, "vegetarian", *updates[first].Dietary)
	assert.Equal(t, "Holt", *updates[second].LastName)

	// Flush empties the buffer.
	assert.Zero(t, p.Len())
	assert.Empty(t, p.Flush())
}

func TestPendingEditsUnknownFieldDropped(t *testing.T) {
	p := NewPendingEdits()
	attendeeID := id.NewAttendeeID()

	p.Queue(attendeeID, "no_such_field", "value", time.Now())

	assert.Empty(t, p.Flush())
}

func TestPendingEditsBoolField(t *testing.T) {
	p := NewPendingEdits()
	attendeeID := id.NewAttendeeID()

	p.Queue(attendeeID, "grand_officer", "true", time.Now())

	updates := p.Flush()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[attendeeID].GrandOfficer)
	assert.True(t, *updates[attendeeID].GrandOfficer)
}
