// Package order derives the normalized order summary from the roster and the
// ledger. Recompute is pure: it never mutates its inputs, so UI layers can
// re-render from its output after every write.
package order

import (
	"context"

	"cornerstone/internal/registration/ledger"
	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
	"cornerstone/pkg/requestcontext"
)

// Recompute sums every attendee's selections into an OrderSummary. Ledger
// entries whose attendee id is no longer in the roster are skipped: an
// attendee removal and its ledger clear are separate operations, and orphaned
// records are recovered lazily here rather than by rollback.
func Recompute(ctx context.Context, attendees []*models.Attendee, selections map[id.AttendeeID]ledger.Selections, status models.OrderStatus) models.OrderSummary {
	summary := models.OrderSummary{
		TotalAttendees:   len(attendees),
		TotalsByCurrency: make(map[string]int64),
		Status:           status,
		UpdatedAt:        requestcontext.Now(ctx),
	}

	present := make(map[id.AttendeeID]bool, len(attendees))
	for _, a := range attendees {
		present[a.ID] = true
	}

	for attendeeID, sel := range selections {
		if !present[attendeeID] {
			continue
		}
		for _, p := range sel.Packages {
			summary.TotalPackages += p.Quantity
			summary.TotalTickets += p.TicketCount()
			summary.SubtotalMinor += p.SubtotalMinor
			summary.TotalsByCurrency[p.Package.Currency] += p.SubtotalMinor
		}
		for _, t := range sel.Tickets {
			summary.TotalTickets += t.Quantity
			summary.SubtotalMinor += t.SubtotalMinor
			summary.TotalsByCurrency[t.Ticket.Currency] += t.SubtotalMinor
		}
	}
	return summary
}
