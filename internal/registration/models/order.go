package models

import (
	"time"

	id "cornerstone/pkg/domain"
)

// OrderStatus tracks the registration's order lifecycle.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// TicketRecord is one ticket selection in the ledger. The embedded metadata is
// a snapshot taken at selection time; catalog refreshes never touch it.
// FromPackageID is the catalog package id that generated this record, empty
// for individually chosen tickets.
type TicketRecord struct {
	ID            id.TicketRecordID `json:"id"`
	AttendeeID    id.AttendeeID     `json:"attendee_id"`
	Ticket        TicketMetadata    `json:"ticket"`
	Quantity      int               `json:"quantity"`
	SubtotalMinor int64             `json:"subtotal_minor"`
	FromPackageID string            `json:"from_package_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// PackageRecord is one package selection. Quantity multiplies at the package
// level; GeneratedTickets holds one record per distinct included ticket, each
// tagged with the originating package id.
type PackageRecord struct {
	ID               id.PackageRecordID `json:"id"`
	AttendeeID       id.AttendeeID      `json:"attendee_id"`
	Package          PackageMetadata    `json:"package"`
	Quantity         int                `json:"quantity"`
	SubtotalMinor    int64              `json:"subtotal_minor"`
	GeneratedTickets []TicketRecord     `json:"generated_tickets"`
	CreatedAt        time.Time          `json:"created_at"`
}

// TicketCount is the number of admission tickets this package selection
// represents: every included ticket once per quantity unit.
func (p PackageRecord) TicketCount() int {
	return len(p.GeneratedTickets) * p.Quantity
}

// OrderSummary is the derived totals view over the whole registration. It is
// recomputed, never mutated in place.
type OrderSummary struct {
	TotalAttendees   int              `json:"total_attendees"`
	TotalTickets     int              `json:"total_tickets"`
	TotalPackages    int              `json:"total_packages"`
	SubtotalMinor    int64            `json:"subtotal_minor"`
	TotalsByCurrency map[string]int64 `json:"totals_by_currency"`
	Status           OrderStatus      `json:"status"`

	// ConfirmationNumber is set once the registration completes.
	ConfirmationNumber string    `json:"confirmation_number,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}
