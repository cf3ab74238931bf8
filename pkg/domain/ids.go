// Package domain defines the typed identifiers shared across the registration
// engine. Distinct types keep attendee, registration, and ledger-record ids
// from being confused at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "cornerstone/pkg/domain-errors"
)

// Identifiers are UUIDv7 so they sort by creation time, which keeps ledger
// records and attendees in insertion order even after a snapshot round trip.
type (
	RegistrationID  uuid.UUID
	AttendeeID      uuid.UUID
	TicketRecordID  uuid.UUID
	PackageRecordID uuid.UUID
)

// newV7 falls back to a random UUID if the monotonic source fails; ordering is
// an optimization, uniqueness is the requirement.
func newV7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func NewRegistrationID() RegistrationID   { return RegistrationID(newV7()) }
func NewAttendeeID() AttendeeID           { return AttendeeID(newV7()) }
func NewTicketRecordID() TicketRecordID   { return TicketRecordID(newV7()) }
func NewPackageRecordID() PackageRecordID { return PackageRecordID(newV7()) }

func (id RegistrationID) String() string  { return uuid.UUID(id).String() }
func (id AttendeeID) String() string      { return uuid.UUID(id).String() }
func (id TicketRecordID) String() string  { return uuid.UUID(id).String() }
func (id PackageRecordID) String() string { return uuid.UUID(id).String() }

func (id RegistrationID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AttendeeID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TicketRecordID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PackageRecordID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshalling so typed ids serialize as canonical UUID strings in
// snapshots and API payloads rather than as byte arrays.

func (id RegistrationID) MarshalText() ([]byte, error)  { return marshalID(uuid.UUID(id)) }
func (id AttendeeID) MarshalText() ([]byte, error)      { return marshalID(uuid.UUID(id)) }
func (id TicketRecordID) MarshalText() ([]byte, error)  { return marshalID(uuid.UUID(id)) }
func (id PackageRecordID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }

func (id *RegistrationID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = RegistrationID(u)
	return err
}

func (id *AttendeeID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = AttendeeID(u)
	return err
}

func (id *TicketRecordID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = TicketRecordID(u)
	return err
}

func (id *PackageRecordID) UnmarshalText(b []byte) error {
	u, err := unmarshalID(b)
	*id = PackageRecordID(u)
	return err
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalID(b []byte) (uuid.UUID, error) {
	if len(b) == 0 {
		return uuid.Nil, nil
	}
	return uuid.Parse(string(b))
}

// ParseRegistrationID validates raw id input at trust boundaries. IDs must be
// valid, non-empty, non-nil UUIDs.
func ParseRegistrationID(raw string) (RegistrationID, error) {
	u, err := parseUUID(raw)
	return RegistrationID(u), err
}

// ParseAttendeeID validates raw attendee id input at trust boundaries.
func ParseAttendeeID(raw string) (AttendeeID, error) {
	u, err := parseUUID(raw)
	return AttendeeID(u), err
}

// ParseTicketRecordID validates raw ticket-record id input.
func ParseTicketRecordID(raw string) (TicketRecordID, error) {
	u, err := parseUUID(raw)
	return TicketRecordID(u), err
}

// ParsePackageRecordID validates raw package-record id input.
func ParsePackageRecordID(raw string) (PackageRecordID, error) {
	u, err := parseUUID(raw)
	return PackageRecordID(u), err
}

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}
