package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cornerstone/internal/registration/models"
)

func count(n int64) *int64 { return &n }

func TestDeriveAvailability(t *testing.T) {
	tests := []struct {
		name      string
		count     *int64
		want      models.Availability
		unlimited bool
	}{
		{"nil count is unlimited", nil, models.AvailabilityAvailable, true},
		{"zero is sold out", count(0), models.AvailabilitySoldOut, false},
		{"negative is sold out", count(-3), models.AvailabilitySoldOut, false},
		{"one is low stock", count(1), models.AvailabilityLowStock, false},
		{"ten is low stock", count(10), models.AvailabilityLowStock, false},
		{"eleven is available", count(11), models.AvailabilityAvailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unlimited := models.DeriveAvailability(tt.count)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unlimited, unlimited)
		})
	}
}

func TestIngestTicket(t *testing.T) {
	c := NewCache()
	meta := c.IngestTicket(models.RawTicket{
		ID: "t-dinner", Name: "Festive Dinner", PriceMinor: 8500, Currency: "AUD",
		AvailableCount: count(4),
	})

	assert.Equal(t, models.AvailabilityLowStock, meta.Availability)
	assert.Equal(t, int64(4), meta.AvailableCount)

	got, ok := c.Ticket("t-dinner")
	require.True(t, ok)
	assert.Equal(t, meta, got)
}

func TestReingestOverwritesSnapshot(t *testing.T) {
	c := NewCache()
	c.IngestTicket(models.RawTicket{ID: "t1", PriceMinor: 100, Currency: "AUD", AvailableCount: count(50)})
	c.IngestTicket(models.RawTicket{ID: "t1", PriceMinor: 150, Currency: "AUD", AvailableCount: count(0)})

	got, ok := c.Ticket("t1")
	require.True(t, ok)
	assert.Equal(t, int64(150), got.PriceMinor)
	assert.Equal(t, models.AvailabilitySoldOut, got.Availability)
}

func TestIngestCatalogResolvesIncludedTickets(t *testing.T) {
	c := NewCache()
	c.IngestCatalog(models.RawCatalog{
		Tickets: []models.RawTicket{
			{ID: "t1", Name: "Ceremony", PriceMinor: 5000, Currency: "AUD"},
			{ID: "t2", Name: "Dinner", PriceMinor: 8500, Currency: "AUD"},
			{ID: "t3", Name: "Brunch", PriceMinor: 4000, Currency: "AUD"},
		},
		Packages: []models.RawPackage{
			{
				ID: "complete", Name: "Complete Weekend", PriceMinor: 25000, Currency: "AUD",
				IncludedTicketIDs: []string{"t1", "t2", "t3", "t-unknown"},
			},
		},
	})

	pkg, ok := c.Package("complete")
	require.True(t, ok)
	require.Len(t, pkg.IncludedTickets, 3, "unknown included ids are skipped")
	assert.True(t, pkg.Includes("t2"))
	assert.False(t, pkg.Includes("t-unknown"))

	assert.Len(t, c.Tickets(), 3)
	assert.Len(t, c.Packages(), 1)
}

func TestRestoreRoundTrip(t *testing.T) {
	c := NewCache()
	c.IngestCatalog(models.RawCatalog{
		Tickets:  []models.RawTicket{{ID: "t1", PriceMinor: 100, Currency: "AUD"}},
		Packages: []models.RawPackage{{ID: "p1", PriceMinor: 90, Currency: "AUD", IncludedTicketIDs: []string{"t1"}}},
	})

	restored := NewCache()
	restored.Restore(c.Tickets(), c.Packages())
	assert.Equal(t, c.Tickets(), restored.Tickets())
	assert.Equal(t, c.Packages(), restored.Packages())
}
