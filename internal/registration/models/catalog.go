package models

// Availability is derived from the remaining count at ingest time and frozen
// into the snapshot. Refreshing availability means re-ingesting the entry.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityLowStock  Availability = "low_stock"
	AvailabilitySoldOut   Availability = "sold_out"
)

// lowStockThreshold is the remaining-count cutoff below which an entry is
// reported as low stock.
const lowStockThreshold = 10

// DeriveAvailability maps a remaining count to a status. A nil count means
// unlimited stock.
func DeriveAvailability(count *int64) (Availability, bool) {
	if count == nil {
		return AvailabilityAvailable, true
	}
	switch {
	case *count <= 0:
		return AvailabilitySoldOut, false
	case *count <= lowStockThreshold:
		return AvailabilityLowStock, false
	default:
		return AvailabilityAvailable, false
	}
}

// RawTicket is a catalog entry as the external catalog service returns it.
type RawTicket struct {
	ID             string `json:"id"`
	EventID        string `json:"event_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PriceMinor     int64  `json:"price_minor"`
	Currency       string `json:"currency"`
	AvailableCount *int64 `json:"available_count"`
}

// RawPackage is a bundle entry as the external catalog service returns it.
// IncludedTicketIDs reference tickets in the same catalog payload.
type RawPackage struct {
	ID                string   `json:"id"`
	EventID           string   `json:"event_id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	PriceMinor        int64    `json:"price_minor"`
	Currency          string   `json:"currency"`
	AvailableCount    *int64   `json:"available_count"`
	IncludedTicketIDs []string `json:"included_ticket_ids"`
}

// RawCatalog is one catalog fetch response.
type RawCatalog struct {
	Tickets  []RawTicket  `json:"tickets"`
	Packages []RawPackage `json:"packages"`
}

// TicketMetadata is the immutable normalized snapshot of a sellable ticket.
// Ledger records embed copies of it, so a later re-ingest never changes an
// already-made selection.
type TicketMetadata struct {
	ID             string       `json:"id"`
	EventID        string       `json:"event_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	PriceMinor     int64        `json:"price_minor"`
	Currency       string       `json:"currency"`
	Availability   Availability `json:"availability"`
	Unlimited      bool         `json:"unlimited"`
	AvailableCount int64        `json:"available_count"`
}

// PackageMetadata is the immutable normalized snapshot of a package. It embeds
// a snapshot of every ticket it includes.
type PackageMetadata struct {
	ID              string           `json:"id"`
	EventID         string           `json:"event_id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	PriceMinor      int64            `json:"price_minor"`
	Currency        string           `json:"currency"`
	Availability    Availability     `json:"availability"`
	Unlimited       bool             `json:"unlimited"`
	AvailableCount  int64            `json:"available_count"`
	IncludedTickets []TicketMetadata `json:"included_tickets"`
}

// Includes reports whether the package bundles the given ticket id.
func (p PackageMetadata) Includes(ticketID string) bool {
	for _, t := range p.IncludedTickets {
		if t.ID == ticketID {
			return true
		}
	}
	return false
}
