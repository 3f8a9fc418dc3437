// Package inventory provides the daily center inventory snapshot ledger.
//
// A snapshot materializes the inventory state of one collection center on one
// calendar date: one line item per (product name, quality grade) pair, plus
// aggregate totals. Snapshots are derived lazily from the shipment log and
// cached; day N+1 is always day N's items plus day N+1's shipment deltas.
package inventory

import (
	"time"

	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/shipments"
)

// DateOf truncates a timestamp to its UTC calendar date.
// All snapshot dates are stored as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Item is one inventory line of a snapshot, keyed by (product, quality)
// within its day. Quantity is a running signed total; UnitPrice is the
// price in effect for the day (sticky once set, see ApplyDeltas).
type Item struct {
	ID          id.ID             `db:"id" json:"id"`
	SnapshotID  id.ID             `db:"snapshot_id" json:"snapshotId"`
	ProductName string            `db:"product_name" json:"productName"`
	Quality     shipments.Quality `db:"quality" json:"quality"`
	Quantity    types.Quantity    `db:"quantity" json:"quantity"`
	UnitPrice   types.Money       `db:"unit_price" json:"unitPrice"`
	TotalPrice  types.Money       `db:"total_price" json:"totalPrice"`
}

// Recalc keeps TotalPrice = Quantity * UnitPrice.
func (i *Item) Recalc() {
	i.TotalPrice = i.UnitPrice.Mul(i.Quantity.Decimal())
}

// Snapshot is the cached inventory state for (company, center, date).
// At most one snapshot exists per center per calendar date.
type Snapshot struct {
	ID        id.ID     `db:"id" json:"id"`
	CompanyID id.ID     `db:"company_id" json:"companyId"`
	CenterID  id.ID     `db:"center_id" json:"centerId"`
	Day       time.Time `db:"snapshot_date" json:"date"`

	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalPrice    types.Money    `db:"total_price" json:"totalPrice"`

	// Finalized marks the day closed/audited. A finalized snapshot becomes
	// the rollforward baseline for all later dates and is never recomputed
	// by ordinary reads.
	Finalized bool `db:"finalized" json:"finalized"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items"`
}

// NewSnapshot creates an empty snapshot for a center and date.
func NewSnapshot(companyID, centerID id.ID, day time.Time) *Snapshot {
	now := time.Now().UTC()
	return &Snapshot{
		ID:         id.New(),
		CompanyID:  companyID,
		CenterID:   centerID,
		Day:        DateOf(day),
		TotalPrice: types.ZeroMoney(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Item returns a pointer to the line for (product, quality), or nil.
func (s *Snapshot) Item(productName string, quality shipments.Quality) *Item {
	for i := range s.Items {
		if s.Items[i].ProductName == productName && s.Items[i].Quality == quality {
			return &s.Items[i]
		}
	}
	return nil
}

// CopyItemsFrom seeds this snapshot's items from a previous day's snapshot.
// Items are copied verbatim by quantity and price but get fresh row identity.
func (s *Snapshot) CopyItemsFrom(prev *Snapshot) {
	s.Items = make([]Item, 0, len(prev.Items))
	for _, item := range prev.Items {
		copied := item
		copied.ID = id.New()
		copied.SnapshotID = s.ID
		s.Items = append(s.Items, copied)
	}
}

// ApplyDeltas folds one day's grouped shipment deltas into the item set.
//
// When a line already exists for the (product, quality) key, only its
// quantity moves; the existing unit price is retained for the day and the
// total is recomputed against it. A new key creates a line priced at the
// delta group's averaged unit price. This sticky-price behavior is the
// documented contract (price reconciliation is a correction concern, not a
// rollforward one).
func (s *Snapshot) ApplyDeltas(deltas []shipments.DayDelta) {
	for _, d := range deltas {
		if item := s.Item(d.ProductName, d.Quality); item != nil {
			item.Quantity += d.Quantity
			item.Recalc()
			continue
		}
		item := Item{
			ID:          id.New(),
			SnapshotID:  s.ID,
			ProductName: d.ProductName,
			Quality:     d.Quality,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
		}
		item.Recalc()
		s.Items = append(s.Items, item)
	}
}

// Recompute restores the aggregate invariants:
// TotalQuantity = sum(item.Quantity), TotalPrice = sum(item.TotalPrice).
// Must be called after any item mutation, before persisting.
func (s *Snapshot) Recompute() {
	s.TotalQuantity = 0
	s.TotalPrice = types.ZeroMoney()
	for i := range s.Items {
		s.Items[i].Recalc()
		s.TotalQuantity += s.Items[i].Quantity
		s.TotalPrice = s.TotalPrice.Add(s.Items[i].TotalPrice)
	}
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy. Used by in-memory stores and the engine when a
// working set must not alias persisted rows.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.Items = make([]Item, len(s.Items))
	copy(out.Items, s.Items)
	return &out
}
