package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublisherCollects(t *testing.T) {
	p := NewInMemoryPublisher()
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{
		RegistrationID: "reg-1",
		Action:         EventRegistrationStarted,
		At:             time.Now(),
	}))
	require.NoError(t, p.Emit(ctx, Event{
		RegistrationID: "reg-1",
		Action:         EventAttendeeAdded,
		AttendeeID:     "att-1",
		At:             time.Now(),
	}))
	require.NoError(t, p.Emit(ctx, Event{
		RegistrationID: "reg-1",
		Action:         EventAttendeeAdded,
		AttendeeID:     "att-2",
		At:             time.Now(),
	}))

	assert.Len(t, p.Events(), 3)
	assert.Len(t, p.ByAction(EventAttendeeAdded), 2)
	assert.Empty(t, p.ByAction(EventRegistrationCancelled))
}

func TestInMemoryPublisherEventsReturnsCopy(t *testing.T) {
	p := NewInMemoryPublisher()
	require.NoError(t, p.Emit(context.Background(), Event{RegistrationID: "reg-1", Action: EventRegistrationStarted}))

	events := p.Events()
	events[0].RegistrationID = "mutated"

	assert.Equal(t, "reg-1", p.Events()[0].RegistrationID)
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	require.NoError(t, p.Emit(context.Background(), Event{Action: EventSelectionChanged}))
	require.NoError(t, p.Close())
}
