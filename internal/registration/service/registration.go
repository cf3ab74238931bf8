package service

import (
	"context"
	"log/slog"
	"sync"

	"cornerstone/internal/registration/catalog"
	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/models"
	"cornerstone/internal/registration/roster"
	"cornerstone/internal/registration/store"
	"cornerstone/internal/registration/wizard"
	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
	"cornerstone/pkg/requestcontext"
)

// registration bundles the engine components of one in-flight registration.
// All mutation goes through the service with reg.mu held; the components
// themselves are not locked.
type registration struct {
	mu sync.Mutex

	id      id.RegistrationID
	eventID string
	status  models.OrderStatus

	confirmationNumber string
	paymentIntentID    string

	roster  *roster.Roster
	catalog *catalog.Cache
	ledger  *ledger.Ledger
	nav     *wizard.Navigator
	pending *PendingEdits
}

func newRegistration(log *slog.Logger, registrationID id.RegistrationID, eventID string) *registration {
	reg := &registration{
		id:      registrationID,
		eventID: eventID,
		status:  models.OrderStatusDraft,
		roster:  roster.New(log),
		catalog: catalog.NewCache(),
		pending: NewPendingEdits(),
	}
	reg.ledger = ledger.New(log, reg.roster, reg.catalog)
	reg.nav = wizard.New(reg.validateStep)
	return reg
}

// finalized reports whether the registration no longer accepts mutation.
func (reg *registration) finalized() bool {
	return reg.status == models.OrderStatusCompleted || reg.status == models.OrderStatusCancelled
}

func (reg *registration) guardMutable() error {
	if reg.finalized() {
		return dErrors.Newf(dErrors.CodeInvalidState, "registration is %s and can no longer be modified", reg.status)
	}
	return nil
}

// validateStep gates forward wizard movement. Each step checks the state it
// owns; later steps trust that earlier gates already passed.
func (reg *registration) validateStep(step wizard.Step, attendees []*models.Attendee) []dErrors.FieldError {
	switch step {
	case wizard.StepTypeSelection:
		if reg.roster.Category() == "" {
			return []dErrors.FieldError{{Field: "category", Message: "a registration category must be chosen"}}
		}
		if _, ok := reg.roster.Primary(); !ok {
			return []dErrors.FieldError{{Field: "attendees", Message: "the registration needs a primary attendee"}}
		}
	case wizard.StepAttendeeDetails:
		var fields []dErrors.FieldError
		for _, a := range attendees {
			fields = append(fields, models.ValidateDetails(a)...)
		}
		return fields
	case wizard.StepTicketSelection:
		var fields []dErrors.FieldError
		for _, a := range attendees {
			sel, ok := reg.ledger.Selections(a.ID)
			if !ok || (len(sel.Tickets) == 0 && len(sel.Packages) == 0) {
				fields = append(fields, dErrors.FieldError{
					AttendeeID: a.ID.String(),
					Field:      "selections",
					Message:    "every attendee needs at least one ticket or package",
				})
			}
		}
		return fields
	case wizard.StepReview:
		// Review re-runs nothing; earlier gates hold.
	case wizard.StepPayment:
		if reg.paymentIntentID == "" {
			return []dErrors.FieldError{{Field: "payment", Message: "a payment intent must be created before confirmation"}}
		}
	}
	return nil
}

// snapshotLocked flattens the registration into its persistence shape.
// Caller holds reg.mu.
func (reg *registration) snapshotLocked(ctx context.Context) store.Snapshot {
	return store.Snapshot{
		Version:            store.SnapshotVersion,
		RegistrationID:     reg.id,
		EventID:            reg.eventID,
		Category:           reg.roster.Category(),
		Status:             reg.status,
		ConfirmationNumber: reg.confirmationNumber,
		Step:               int(reg.nav.Current()),
		MaxStep:            int(reg.nav.MaxReached()),
		Attendees:          reg.roster.List(),
		Selections:         reg.ledger.All(),
		CatalogTickets:     reg.catalog.Tickets(),
		CatalogPackages:    reg.catalog.Packages(),
		SavedAt:            requestcontext.Now(ctx),
	}
}

// restoreLocked rebuilds engine state from a snapshot. Caller holds reg.mu.
func (reg *registration) restoreLocked(snap store.Snapshot) {
	reg.id = snap.RegistrationID
	reg.eventID = snap.EventID
	reg.status = snap.Status
	if reg.status == "" {
		reg.status = models.OrderStatusDraft
	}
	reg.confirmationNumber = snap.ConfirmationNumber
	reg.roster.Restore(snap.Category, snap.Attendees)
	reg.catalog.Restore(snap.CatalogTickets, snap.CatalogPackages)
	reg.ledger.Restore(snap.Selections)
	reg.nav.Restore(wizard.Step(snap.Step), wizard.Step(snap.MaxStep))
	reg.pending = NewPendingEdits()
}
