package service

import (
	"sort"
	"strconv"
	"time"

	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
)

// PendingEdits buffers keystroke-level field edits between saves. Edits are
// keyed by (attendee, field) with last-write-wins by client timestamp, so
// out-of-order arrivals from a laggy connection never resurrect stale text.
type PendingEdits struct {
	edits map[id.AttendeeID]map[string]fieldEdit
}

type fieldEdit struct {
	value string
	at    time.Time
}

func NewPendingEdits() *PendingEdits {
	return &PendingEdits{edits: make(map[id.AttendeeID]map[string]fieldEdit)}
}

// Queue records one field edit. An edit older than the one already buffered
// for the same field is dropped.
func (p *PendingEdits) Queue(attendeeID id.AttendeeID, field, value string, at time.Time) {
	byField, ok := p.edits[attendeeID]
	if !ok {
		byField = make(map[string]fieldEdit)
		p.edits[attendeeID] = byField
	}
	if existing, ok := byField[field]; ok && existing.at.After(at) {
		return
	}
	byField[field] = fieldEdit{value: value, at: at}
}

// Len returns the number of buffered field edits across all attendees.
func (p *PendingEdits) Len() int {
	n := 0
	for _, byField := range p.edits {
		n += len(byField)
	}
	return n
}

// Flush collapses the buffer into one update per attendee and empties it.
// Unknown field names are silently dropped.
func (p *PendingEdits) Flush() map[id.AttendeeID]models.AttendeeUpdate {
	out := make(map[id.AttendeeID]models.AttendeeUpdate, len(p.edits))
	for attendeeID, byField := range p.edits {
		upd := models.AttendeeUpdate{}
		fields := make([]string, 0, len(byField))
		for field := range byField {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			applyField(&upd, field, byField[field].value)
		}
		if !upd.IsEmpty() {
			out[attendeeID] = upd
		}
	}
	p.edits = make(map[id.AttendeeID]map[string]fieldEdit)
	return out
}

func applyField(upd *models.AttendeeUpdate, field, value string) {
	switch field {
	case "title":
		upd.Title = &value
	case "first_name":
		upd.FirstName = &value
	case "last_name":
		upd.LastName = &value
	case "contact_preference":
		pref := models.NormalizeContactPreference(models.ContactPreference(value))
		upd.ContactPreference = &pref
	case "email":
		upd.Email = &value
	case "phone":
		upd.Phone = &value
	case "rank":
		upd.Rank = &value
	case "grand_rank":
		upd.GrandRank = &value
	case "grand_officer":
		b, err := strconv.ParseBool(value)
		if err == nil {
			upd.GrandOfficer = &b
		}
	case "lodge_id":
		upd.LodgeID = &value
	case "lodge_name":
		upd.LodgeName = &value
	case "relationship":
		upd.Relationship = &value
	case "dietary":
		upd.Dietary = &value
	case "special_needs":
		upd.SpecialNeeds = &value
	}
}
