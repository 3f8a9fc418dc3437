package shipments

import (
	"context"
	"time"

	"agrichain/internal/core/id"
)

// ListFilter narrows shipment list queries.
type ListFilter struct {
	CenterID *id.ID
	Status   *Status
	Kind     *Kind
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Repository defines persistence operations for the shipment log.
type Repository interface {
	// Create inserts a shipment with its items.
	Create(ctx context.Context, s *Shipment) error

	// GetByID returns a shipment with items.
	GetByID(ctx context.Context, shipmentID id.ID) (*Shipment, error)

	// ListByCompany lists shipments where the company appears as source or
	// destination, newest first.
	ListByCompany(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Shipment, error)

	// DayDeltas returns grouped (product, quality) deltas for all completed
	// shipment events touching the given center on the given calendar date.
	// Outflows (center as source) count negative, inflows (center as
	// destination) positive; unit price is averaged within each group.
	DayDeltas(ctx context.Context, companyID, centerID id.ID, day time.Time) ([]DayDelta, error)

	// EarliestEventDate returns the date of the first completed shipment
	// event touching the center, or nil when the center has no history.
	EarliestEventDate(ctx context.Context, companyID, centerID id.ID) (*time.Time, error)
}
