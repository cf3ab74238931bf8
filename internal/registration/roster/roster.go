// Package roster holds the ordered attendee collection for one registration
// and enforces its structural invariants: at most one primary, mutual
// partner links, no dangling references after a removal cascade.
//
// The roster itself is not locked; the owning registration serializes every
// mutation, matching the engine's single-writer model.
package roster

import (
	"context"
	"log/slog"

	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
	"cornerstone/pkg/requestcontext"
)

type Roster struct {
	log       *slog.Logger
	category  string
	attendees []*models.Attendee // insertion order preserved
}

func New(log *slog.Logger) *Roster {
	if log == nil {
		log = slog.Default()
	}
	return &Roster{log: log}
}

// SetCategory records the registration category chosen at the type-selection
// step. AddPrimary refuses to run before this is set.
func (r *Roster) SetCategory(category string) { r.category = category }

func (r *Roster) Category() string { return r.category }

// AddPrimary creates the single primary registrant. It fails with
// invalid_state if any attendee already exists or no category has been
// chosen. Contact preference starts unset on purpose; the caller must force
// an explicit choice.
func (r *Roster) AddPrimary(ctx context.Context) (id.AttendeeID, error) {
	if r.category == "" {
		return id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidState, "registration category must be chosen before adding the primary attendee")
	}
	if len(r.attendees) > 0 {
		return id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidState, "primary attendee already exists")
	}
	now := requestcontext.Now(ctx)
	a := &models.Attendee{
		ID:        id.NewAttendeeID(),
		Role:      models.RoleMember,
		IsPrimary: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.attendees = append(r.attendees, a)
	return a.ID, nil
}

// AddMember creates an additional member-role attendee.
func (r *Roster) AddMember(ctx context.Context) (id.AttendeeID, error) {
	if len(r.attendees) == 0 {
		return id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidState, "primary attendee must be added first")
	}
	now := requestcontext.Now(ctx)
	a := &models.Attendee{
		ID:        id.NewAttendeeID(),
		Role:      models.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.attendees = append(r.attendees, a)
	return a.ID, nil
}

// AddGuest creates a guest. A non-nil hostID must reference an existing
// member; the link is informational and never drives the removal cascade.
func (r *Roster) AddGuest(ctx context.Context, hostID *id.AttendeeID) (id.AttendeeID, error) {
	if len(r.attendees) == 0 {
		return id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidState, "primary attendee must be added first")
	}
	if hostID != nil {
		host := r.find(*hostID)
		if host == nil {
			return id.AttendeeID{}, dErrors.Newf(dErrors.CodeNotFound, "host attendee %s does not exist", hostID)
		}
		if host.Role != models.RoleMember {
			return id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidInput, "guests can only be hosted by members")
		}
	}
	now := requestcontext.Now(ctx)
	a := &models.Attendee{
		ID:        id.NewAttendeeID(),
		Role:      models.RoleGuest,
		HostID:    hostID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.attendees = append(r.attendees, a)
	return a.ID, nil
}

// AddPartner creates the guest-shaped partner of an existing attendee and
// links the pair mutually. If the owner already has a partner the call is a
// no-op: it returns the existing partner id together with a conflict error,
// so repeated calls are idempotent. Partners never have partners of their
// own.
func (r *Roster) AddPartner(ctx context.Context, ownerID id.AttendeeID) (id.AttendeeID, error) {
	owner := r.find(ownerID)
	if owner == nil {
		return id.AttendeeID{}, dErrors.Newf(dErrors.CodeNotFound, "attendee %s does not exist", ownerID)
	}
	if owner.IsPartner() {
		return id.AttendeeID{}, dErrors.New(dErrors.CodeInvalidState, "a partner cannot have a partner")
	}
	if owner.PartnerID != nil {
		existing := *owner.PartnerID
		return existing, dErrors.Newf(dErrors.CodeConflict, "attendee %s already has a partner", ownerID)
	}
	now := requestcontext.Now(ctx)
	ownerRef := ownerID
	partner := &models.Attendee{
		ID:        id.NewAttendeeID(),
		Role:      models.RoleGuest,
		PartnerOf: &ownerRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	partnerRef := partner.ID
	owner.PartnerID = &partnerRef
	r.attendees = append(r.attendees, partner)
	return partner.ID, nil
}

// Update merges fields into the attendee. A missing id is tolerated silently
// (logged, not returned) because UI unmounts race with pending writes.
func (r *Roster) Update(ctx context.Context, attendeeID id.AttendeeID, upd models.AttendeeUpdate) {
	a := r.find(attendeeID)
	if a == nil {
		r.log.WarnContext(ctx, "update for removed attendee dropped", "attendee_id", attendeeID.String())
		return
	}
	upd.Apply(a)
	a.UpdatedAt = requestcontext.Now(ctx)
}

// Remove deletes an attendee and runs the cascade:
//   - removing a partner clears the owner's forward link
//   - removing an attendee that owns a partner removes that partner too
//     (once; partners never have partners)
//   - removing a member clears HostID on every guest that pointed at it,
//     without removing the guests
//
// The primary attendee is excluded from direct removal: a no-op with a
// logged warning. An unknown id fails with not_found.
func (r *Roster) Remove(ctx context.Context, attendeeID id.AttendeeID) error {
	target := r.find(attendeeID)
	if target == nil {
		return dErrors.Newf(dErrors.CodeNotFound, "attendee %s does not exist", attendeeID)
	}
	if target.IsPrimary {
		r.log.WarnContext(ctx, "remove of primary attendee ignored", "attendee_id", attendeeID.String())
		return nil
	}

	removed := map[id.AttendeeID]bool{target.ID: true}
	if target.PartnerID != nil {
		removed[*target.PartnerID] = true
	}

	kept := r.attendees[:0]
	for _, a := range r.attendees {
		if !removed[a.ID] {
			kept = append(kept, a)
		}
	}
	r.attendees = kept

	// Clear every reference left pointing into the removal set.
	now := requestcontext.Now(ctx)
	for _, a := range r.attendees {
		touched := false
		if a.PartnerID != nil && removed[*a.PartnerID] {
			a.PartnerID = nil
			touched = true
		}
		if a.PartnerOf != nil && removed[*a.PartnerOf] {
			a.PartnerOf = nil
			touched = true
		}
		if a.HostID != nil && removed[*a.HostID] {
			a.HostID = nil
			touched = true
		}
		if touched {
			a.UpdatedAt = now
		}
	}
	return nil
}

// Get returns a copy of the attendee.
func (r *Roster) Get(attendeeID id.AttendeeID) (*models.Attendee, bool) {
	a := r.find(attendeeID)
	if a == nil {
		return nil, false
	}
	return a.Clone(), true
}

// Has reports whether the attendee exists. Used by the ledger for reference
// checks.
func (r *Roster) Has(attendeeID id.AttendeeID) bool {
	return r.find(attendeeID) != nil
}

// List returns copies of all attendees in insertion order. Display-time
// sorting (primary first, partners adjacent) is the caller's concern.
func (r *Roster) List() []*models.Attendee {
	out := make([]*models.Attendee, 0, len(r.attendees))
	for _, a := range r.attendees {
		out = append(out, a.Clone())
	}
	return out
}

// Find returns copies of attendees matching the predicate.
func (r *Roster) Find(pred func(*models.Attendee) bool) []*models.Attendee {
	var out []*models.Attendee
	for _, a := range r.attendees {
		if pred(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Primary returns a copy of the primary attendee, if one exists.
func (r *Roster) Primary() (*models.Attendee, bool) {
	for _, a := range r.attendees {
		if a.IsPrimary {
			return a.Clone(), true
		}
	}
	return nil, false
}

func (r *Roster) Len() int { return len(r.attendees) }

// Clear destroys the whole collection; used when a registration is restarted.
func (r *Roster) Clear() {
	r.attendees = nil
	r.category = ""
}

// Restore replaces the roster contents from a snapshot. Contact preferences
// are normalized so legacy values load as unset.
func (r *Roster) Restore(category string, attendees []*models.Attendee) {
	r.category = category
	r.attendees = make([]*models.Attendee, 0, len(attendees))
	for _, a := range attendees {
		c := a.Clone()
		c.ContactPreference = models.NormalizeContactPreference(c.ContactPreference)
		r.attendees = append(r.attendees, c)
	}
}

func (r *Roster) find(attendeeID id.AttendeeID) *models.Attendee {
	// O(n) scan; the roster holds tens of attendees, not thousands.
	for _, a := range r.attendees {
		if a.ID == attendeeID {
			return a
		}
	}
	return nil
}
