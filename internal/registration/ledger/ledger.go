// Package ledger tracks per-attendee ticket and package selections. Every
// record carries a frozen copy of its catalog metadata and a subtotal
// computed at selection time; later catalog refreshes never alter it.
//
// Like the roster, the ledger is not internally locked; the owning
// registration serializes mutations.
package ledger

import (
	"context"
	"log/slog"

	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
	"cornerstone/pkg/requestcontext"
)

// AttendeeChecker is the slice of the roster the ledger needs: reference
// checks only, no mutation.
type AttendeeChecker interface {
	Has(id.AttendeeID) bool
}

// Catalog is the slice of the catalog cache the ledger needs.
type Catalog interface {
	Ticket(ticketID string) (models.TicketMetadata, bool)
	Package(packageID string) (models.PackageMetadata, bool)
}

// Kind selects which record list RemoveSelection searches.
type Kind string

const (
	KindTicket  Kind = "ticket"
	KindPackage Kind = "package"
)

// Selections is the per-attendee view: chosen packages, individually chosen
// tickets, and the cached subtotal over both.
type Selections struct {
	Packages      []models.PackageRecord `json:"packages"`
	Tickets       []models.TicketRecord  `json:"tickets"`
	SubtotalMinor int64                  `json:"subtotal_minor"`
}

func (s Selections) clone() Selections {
	c := Selections{SubtotalMinor: s.SubtotalMinor}
	c.Packages = append([]models.PackageRecord(nil), s.Packages...)
	for i := range c.Packages {
		c.Packages[i].GeneratedTickets = append([]models.TicketRecord(nil), c.Packages[i].GeneratedTickets...)
	}
	c.Tickets = append([]models.TicketRecord(nil), s.Tickets...)
	return c
}

type Ledger struct {
	log        *slog.Logger
	roster     AttendeeChecker
	catalog    Catalog
	selections map[id.AttendeeID]*Selections
}

func New(log *slog.Logger, roster AttendeeChecker, catalog Catalog) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		log:        log,
		roster:     roster,
		catalog:    catalog,
		selections: make(map[id.AttendeeID]*Selections),
	}
}

// SelectPackage records a package selection. The package expands into one
// generated ticket record per distinct included ticket (quantity multiplies
// at the package level, not the record count). A prior selection of the same
// package by the same attendee is replaced, and any individual ticket
// selection covered by the package is cleared: packages are exclusive with
// overlapping individual picks.
func (l *Ledger) SelectPackage(ctx context.Context, attendeeID id.AttendeeID, packageID string, quantity int) (models.PackageRecord, error) {
	if err := l.checkAttendee(attendeeID); err != nil {
		return models.PackageRecord{}, err
	}
	meta, ok := l.catalog.Package(packageID)
	if !ok {
		return models.PackageRecord{}, dErrors.Newf(dErrors.CodeNotFound, "package %q is not in the catalog", packageID)
	}
	if quantity < 1 {
		return models.PackageRecord{}, dErrors.New(dErrors.CodeInvalidInput, "quantity must be at least 1")
	}

	now := requestcontext.Now(ctx)
	record := models.PackageRecord{
		ID:            id.NewPackageRecordID(),
		AttendeeID:    attendeeID,
		Package:       meta,
		Quantity:      quantity,
		SubtotalMinor: meta.PriceMinor * int64(quantity),
		CreatedAt:     now,
	}
	for _, t := range meta.IncludedTickets {
		record.GeneratedTickets = append(record.GeneratedTickets, models.TicketRecord{
			ID:            id.NewTicketRecordID(),
			AttendeeID:    attendeeID,
			Ticket:        t,
			Quantity:      quantity,
			FromPackageID: meta.ID,
			CreatedAt:     now,
		})
	}

	sel := l.get(attendeeID)

	// Replace a prior selection of this package.
	for i, p := range sel.Packages {
		if p.Package.ID == meta.ID {
			sel.SubtotalMinor -= p.SubtotalMinor
			sel.Packages = append(sel.Packages[:i], sel.Packages[i+1:]...)
			break
		}
	}

	// Clear covered individual tickets.
	kept := sel.Tickets[:0]
	for _, t := range sel.Tickets {
		if meta.Includes(t.Ticket.ID) {
			sel.SubtotalMinor -= t.SubtotalMinor
			l.log.DebugContext(ctx, "individual ticket superseded by package",
				"attendee_id", attendeeID.String(), "ticket_id", t.Ticket.ID, "package_id", meta.ID)
			continue
		}
		kept = append(kept, t)
	}
	sel.Tickets = kept

	sel.Packages = append(sel.Packages, record)
	sel.SubtotalMinor += record.SubtotalMinor
	return record, nil
}

// SelectTicket records or updates an individual ticket selection. The price
// snapshot is re-taken on update; package selections are untouched.
func (l *Ledger) SelectTicket(ctx context.Context, attendeeID id.AttendeeID, ticketID string, quantity int) (models.TicketRecord, error) {
	if err := l.checkAttendee(attendeeID); err != nil {
		return models.TicketRecord{}, err
	}
	meta, ok := l.catalog.Ticket(ticketID)
	if !ok {
		return models.TicketRecord{}, dErrors.Newf(dErrors.CodeNotFound, "ticket %q is not in the catalog", ticketID)
	}
	if quantity < 1 {
		return models.TicketRecord{}, dErrors.New(dErrors.CodeInvalidInput, "quantity must be at least 1")
	}

	record := models.TicketRecord{
		ID:            id.NewTicketRecordID(),
		AttendeeID:    attendeeID,
		Ticket:        meta,
		Quantity:      quantity,
		SubtotalMinor: meta.PriceMinor * int64(quantity),
		CreatedAt:     requestcontext.Now(ctx),
	}

	sel := l.get(attendeeID)
	for i, t := range sel.Tickets {
		if t.Ticket.ID == ticketID {
			sel.SubtotalMinor -= t.SubtotalMinor
			sel.Tickets[i] = record
			sel.SubtotalMinor += record.SubtotalMinor
			return record, nil
		}
	}
	sel.Tickets = append(sel.Tickets, record)
	sel.SubtotalMinor += record.SubtotalMinor
	return record, nil
}

// RemoveSelection deletes one record and decrements the attendee's cached
// subtotal by the removed record's subtotal.
func (l *Ledger) RemoveSelection(ctx context.Context, attendeeID id.AttendeeID, recordID string, kind Kind) error {
	sel, ok := l.selections[attendeeID]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "attendee %s has no selections", attendeeID)
	}
	switch kind {
	case KindPackage:
		for i, p := range sel.Packages {
			if p.ID.String() == recordID {
				sel.SubtotalMinor -= p.SubtotalMinor
				sel.Packages = append(sel.Packages[:i], sel.Packages[i+1:]...)
				return nil
			}
		}
	case KindTicket:
		for i, t := range sel.Tickets {
			if t.ID.String() == recordID {
				sel.SubtotalMinor -= t.SubtotalMinor
				sel.Tickets = append(sel.Tickets[:i], sel.Tickets[i+1:]...)
				return nil
			}
		}
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown selection kind %q", kind)
	}
	return dErrors.Newf(dErrors.CodeNotFound, "selection %s not found for attendee %s", recordID, attendeeID)
}

// ClearAttendee empties all selections for one attendee. The roster does not
// call this automatically; the orchestrating caller invokes removal and
// clearing as one logical unit.
func (l *Ledger) ClearAttendee(attendeeID id.AttendeeID) {
	delete(l.selections, attendeeID)
}

// Selections returns a copy of one attendee's selections.
func (l *Ledger) Selections(attendeeID id.AttendeeID) (Selections, bool) {
	sel, ok := l.selections[attendeeID]
	if !ok {
		return Selections{}, false
	}
	return sel.clone(), true
}

// Subtotal returns the attendee's cached subtotal in minor units.
func (l *Ledger) Subtotal(attendeeID id.AttendeeID) int64 {
	if sel, ok := l.selections[attendeeID]; ok {
		return sel.SubtotalMinor
	}
	return 0
}

// All returns a copy of every attendee's selections.
func (l *Ledger) All() map[id.AttendeeID]Selections {
	out := make(map[id.AttendeeID]Selections, len(l.selections))
	for aid, sel := range l.selections {
		out[aid] = sel.clone()
	}
	return out
}

// Clear destroys all selections; used when a registration restarts.
func (l *Ledger) Clear() {
	l.selections = make(map[id.AttendeeID]*Selections)
}

// Restore replaces ledger contents from a snapshot.
func (l *Ledger) Restore(all map[id.AttendeeID]Selections) {
	l.selections = make(map[id.AttendeeID]*Selections, len(all))
	for aid, sel := range all {
		c := sel.clone()
		l.selections[aid] = &c
	}
}

func (l *Ledger) checkAttendee(attendeeID id.AttendeeID) error {
	if !l.roster.Has(attendeeID) {
		return dErrors.Newf(dErrors.CodeNotFound, "attendee %s does not exist", attendeeID)
	}
	return nil
}

func (l *Ledger) get(attendeeID id.AttendeeID) *Selections {
	sel, ok := l.selections[attendeeID]
	if !ok {
		sel = &Selections{}
		l.selections[attendeeID] = sel
	}
	return sel
}
