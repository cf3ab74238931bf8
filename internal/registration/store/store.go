// Package store persists registration snapshots: the flat, restorable shape
// of one registration's full engine state. Implementations return sentinel
// errors; the service layer translates them into domain errors.
package store

import (
	"context"
	"time"

	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
)

// SnapshotVersion is stamped on every write. Loading tolerates older
// versions: unknown fields are ignored and missing fields take their zero
// value, so field removals and renames across versions never fail a load.
const SnapshotVersion = 1

// Snapshot is the serializable state of one registration.
type Snapshot struct {
	Version            int                `json:"version"`
	RegistrationID     id.RegistrationID  `json:"registration_id"`
	EventID            string             `json:"event_id"`
	Category           string             `json:"category"`
	Status             models.OrderStatus `json:"status"`
	ConfirmationNumber string             `json:"confirmation_number,omitempty"`

	Step    int `json:"step"`
	MaxStep int `json:"max_step"`

	Attendees  []*models.Attendee                  `json:"attendees"`
	Selections map[id.AttendeeID]ledger.Selections `json:"selections"`

	CatalogTickets  []models.TicketMetadata  `json:"catalog_tickets"`
	CatalogPackages []models.PackageMetadata `json:"catalog_packages"`

	SavedAt time.Time `json:"saved_at"`
}

// SnapshotStore is the persistence boundary for registration snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Find(ctx context.Context, registrationID id.RegistrationID) (Snapshot, error)
	Delete(ctx context.Context, registrationID id.RegistrationID) error
}
