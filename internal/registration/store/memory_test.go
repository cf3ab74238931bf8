package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
	"cornerstone/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func sampleSnapshot() Snapshot {
	primary := id.NewAttendeeID()
	partner := id.NewAttendeeID()
	partnerRef := partner
	primaryRef := primary
	saved := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	return Snapshot{
		Version:        SnapshotVersion,
		RegistrationID: id.NewRegistrationID(),
		EventID:        "grand-installation-2026",
		Category:       "annual-banquet",
		Status:         models.OrderStatusDraft,
		Step:           3,
		MaxStep:        4,
		Attendees: []*models.Attendee{
			{ID: primary, Role: models.RoleMember, IsPrimary: true, PartnerID: &partnerRef,
				FirstName: "Ada", LastName: "Lovelace", ContactPreference: models.ContactDirectly,
				Email: "ada@example.com", Phone: "0400000000", CreatedAt: saved, UpdatedAt: saved},
			{ID: partner, Role: models.RoleGuest, PartnerOf: &primaryRef,
				FirstName: "Grace", LastName: "Hopper", CreatedAt: saved, UpdatedAt: saved},
		},
		Selections: map[id.AttendeeID]ledger.Selections{
			primary: {
				Tickets: []models.TicketRecord{{
					ID: id.NewTicketRecordID(), AttendeeID: primary,
					Ticket:   models.TicketMetadata{ID: "t1", PriceMinor: 5000, Currency: "AUD"},
					Quantity: 2, SubtotalMinor: 10000, CreatedAt: saved,
				}},
				SubtotalMinor: 10000,
			},
		},
		CatalogTickets: []models.TicketMetadata{{ID: "t1", PriceMinor: 5000, Currency: "AUD"}},
		SavedAt:        saved,
	}
}

func (s *InMemoryStoreSuite) TestSaveAndFindRoundTrip() {
	snap := sampleSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, snap))

	got, err := s.store.Find(s.ctx, snap.RegistrationID)
	s.Require().NoError(err)
	s.Equal(snap, got)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, id.NewRegistrationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestSaveOverwrites() {
	snap := sampleSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, snap))

	snap.Status = models.OrderStatusPending
	s.Require().NoError(s.store.Save(s.ctx, snap))

	got, err := s.store.Find(s.ctx, snap.RegistrationID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, got.Status)
}

func (s *InMemoryStoreSuite) TestDelete() {
	snap := sampleSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, snap))
	s.Require().NoError(s.store.Delete(s.ctx, snap.RegistrationID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, snap.RegistrationID), sentinel.ErrNotFound)
}

// Loading must tolerate unknown fields and missing fields: old snapshots from
// newer or older writers decode to zero values instead of failing.
func TestSnapshotDecodeTolerance(t *testing.T) {
	raw := []byte(`{
		"version": 0,
		"registration_id": "018f4c2e-0000-7000-8000-000000000001",
		"category": "annual-banquet",
		"attendees": [
			{"id": "018f4c2e-0000-7000-8000-000000000002", "role": "member", "is_primary": true,
			 "contact_preference": "mason-or-guest",
			 "some_removed_field": {"nested": true}}
		],
		"a_field_from_the_future": 42
	}`)

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode legacy snapshot: %v", err)
	}
	if len(snap.Attendees) != 1 {
		t.Fatalf("expected 1 attendee, got %d", len(snap.Attendees))
	}
	if snap.EventID != "" || snap.Step != 0 {
		t.Fatalf("missing fields must decode to zero values")
	}
	// Legacy contact preference survives decode; normalization happens on
	// roster restore, not here.
	if snap.Attendees[0].ContactPreference != "mason-or-guest" {
		t.Fatalf("unexpected contact preference %q", snap.Attendees[0].ContactPreference)
	}
}
