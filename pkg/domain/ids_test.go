package domain

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cornerstone/pkg/domain-errors"
)

func TestParseAttendeeID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAttendeeID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAttendeeID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAttendeeID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseAttendeeID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AttendeeID(valid), id)
	})
}

func TestNewIDsAreTimeOrdered(t *testing.T) {
	// UUIDv7 embeds a millisecond timestamp; generated ids must sort in
	// creation order when compared as strings.
	ids := make([]string, 0, 50)
	for range 50 {
		ids = append(ids, NewAttendeeID().String())
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, ids)
}

func TestIDJSONRoundTrip(t *testing.T) {
	type payload struct {
		Attendee AttendeeID  `json:"attendee"`
		Partner  *AttendeeID `json:"partner,omitempty"`
	}
	partner := NewAttendeeID()
	in := payload{Attendee: NewAttendeeID(), Partner: &partner}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), in.Attendee.String())

	var out payload
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.Attendee, out.Attendee)
	require.NotNil(t, out.Partner)
	assert.Equal(t, partner, *out.Partner)
}

func TestIsZero(t *testing.T) {
	assert.True(t, AttendeeID{}.IsZero())
	assert.False(t, NewAttendeeID().IsZero())
}
