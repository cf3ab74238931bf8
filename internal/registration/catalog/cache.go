// Package catalog holds immutable snapshots of sellable tickets and packages
// for one event. Entries are normalized once at ingest; re-ingesting an id
// overwrites the snapshot (availability refresh) without touching ledger
// records created from the old one.
package catalog

import (
	"sort"

	"cornerstone/internal/registration/models"
)

type Cache struct {
	tickets  map[string]models.TicketMetadata
	packages map[string]models.PackageMetadata
}

func NewCache() *Cache {
	return &Cache{
		tickets:  make(map[string]models.TicketMetadata),
		packages: make(map[string]models.PackageMetadata),
	}
}

// IngestTicket normalizes a raw catalog entry and stores it by id.
func (c *Cache) IngestTicket(raw models.RawTicket) models.TicketMetadata {
	meta := normalizeTicket(raw)
	c.tickets[meta.ID] = meta
	return meta
}

// IngestPackage normalizes a raw package together with the raw entries of
// every ticket it includes. Included tickets are snapshotted into the package
// metadata itself, so a package selection freezes the whole bundle.
func (c *Cache) IngestPackage(raw models.RawPackage, included []models.RawTicket) models.PackageMetadata {
	availability, unlimited := models.DeriveAvailability(raw.AvailableCount)
	meta := models.PackageMetadata{
		ID:           raw.ID,
		EventID:      raw.EventID,
		Name:         raw.Name,
		Description:  raw.Description,
		PriceMinor:   raw.PriceMinor,
		Currency:     raw.Currency,
		Availability: availability,
		Unlimited:    unlimited,
	}
	if raw.AvailableCount != nil {
		meta.AvailableCount = *raw.AvailableCount
	}
	for _, t := range included {
		meta.IncludedTickets = append(meta.IncludedTickets, normalizeTicket(t))
	}
	c.packages[meta.ID] = meta
	return meta
}

// IngestCatalog loads a full fetch response. Package included-ticket ids are
// resolved against the tickets in the same payload; unknown ids are skipped.
func (c *Cache) IngestCatalog(raw models.RawCatalog) {
	byID := make(map[string]models.RawTicket, len(raw.Tickets))
	for _, t := range raw.Tickets {
		byID[t.ID] = t
		c.IngestTicket(t)
	}
	for _, p := range raw.Packages {
		included := make([]models.RawTicket, 0, len(p.IncludedTicketIDs))
		for _, tid := range p.IncludedTicketIDs {
			if t, ok := byID[tid]; ok {
				included = append(included, t)
			}
		}
		c.IngestPackage(p, included)
	}
}

// Ticket returns the snapshot stored for the id.
func (c *Cache) Ticket(ticketID string) (models.TicketMetadata, bool) {
	t, ok := c.tickets[ticketID]
	return t, ok
}

// Package returns the snapshot stored for the id.
func (c *Cache) Package(packageID string) (models.PackageMetadata, bool) {
	p, ok := c.packages[packageID]
	return p, ok
}

// Tickets returns all ticket snapshots sorted by id, for snapshots and
// listings.
func (c *Cache) Tickets() []models.TicketMetadata {
	out := make([]models.TicketMetadata, 0, len(c.tickets))
	for _, t := range c.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Packages returns all package snapshots sorted by id.
func (c *Cache) Packages() []models.PackageMetadata {
	out := make([]models.PackageMetadata, 0, len(c.packages))
	for _, p := range c.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore replaces cache contents from a snapshot.
func (c *Cache) Restore(tickets []models.TicketMetadata, packages []models.PackageMetadata) {
	c.tickets = make(map[string]models.TicketMetadata, len(tickets))
	for _, t := range tickets {
		c.tickets[t.ID] = t
	}
	c.packages = make(map[string]models.PackageMetadata, len(packages))
	for _, p := range packages {
		c.packages[p.ID] = p
	}
}

func normalizeTicket(raw models.RawTicket) models.TicketMetadata {
	availability, unlimited := models.DeriveAvailability(raw.AvailableCount)
	meta := models.TicketMetadata{
		ID:           raw.ID,
		EventID:      raw.EventID,
		Name:         raw.Name,
		Description:  raw.Description,
		PriceMinor:   raw.PriceMinor,
		Currency:     raw.Currency,
		Availability: availability,
		Unlimited:    unlimited,
	}
	if raw.AvailableCount != nil {
		meta.AvailableCount = *raw.AvailableCount
	}
	return meta
}
