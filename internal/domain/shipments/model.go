// Package shipments provides the shipment log: the append-only record of
// goods moving between collection centers. Shipment events are the ground
// truth the daily inventory snapshots are derived from.
package shipments

import (
	"context"
	"fmt"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
)

// Quality is the coarse product grade. Together with the product name it
// forms the key for inventory line items.
type Quality string

const (
	QualityA Quality = "A"
	QualityB Quality = "B"
	QualityC Quality = "C"
)

// ParseQuality validates a quality grade string.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityA, QualityB, QualityC:
		return Quality(s), nil
	}
	return "", apperror.NewValidation("unknown quality grade").
		WithDetail("field", "quality").
		WithDetail("value", s)
}

// Status represents the shipment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Kind classifies the trade direction of a shipment.
// Correction shipments synthesized by the snapshot engine reuse these:
// a positive inventory correction is recorded wholesale-direction, a
// negative one retail-direction.
type Kind string

const (
	KindWholesale Kind = "wholesale"
	KindRetail    Kind = "retail"
)

// Shipment represents one goods movement event.
// A shipment where the source center is X is an outflow from X; where the
// destination center is X it is an inflow to X. Immutable once completed,
// except for administrative deletion.
type Shipment struct {
	ID     id.ID  `db:"id" json:"id"`
	Number string `db:"number" json:"number"`
	Title  string `db:"title" json:"title"`
	Kind   Kind   `db:"kind" json:"kind"`
	Status Status `db:"status" json:"status"`

	// Synthesized is set on correction shipments manufactured by the
	// snapshot engine, never on externally recorded movements.
	Synthesized bool `db:"synthesized" json:"synthesized"`

	CreatorID  string `db:"creator_id" json:"creatorId"`
	ContractID *id.ID `db:"contract_id" json:"contractId,omitempty"`

	SourceCompanyID id.ID `db:"source_company_id" json:"sourceCompanyId"`
	SourceCenterID  id.ID `db:"source_center_id" json:"sourceCenterId"`

	DestCompanyID *id.ID `db:"dest_company_id" json:"destCompanyId,omitempty"`
	DestCenterID  *id.ID `db:"dest_center_id" json:"destCenterId,omitempty"`

	ShippedAt time.Time `db:"shipped_at" json:"shippedAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items"`
}

// Item is one product line of a shipment.
type Item struct {
	ID          id.ID          `db:"id" json:"id"`
	ShipmentID  id.ID          `db:"shipment_id" json:"shipmentId"`
	ProductName string         `db:"product_name" json:"productName"`
	Quality     Quality        `db:"quality" json:"quality"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
	TotalPrice  types.Money    `db:"total_price" json:"totalPrice"`
}

// Recalc keeps TotalPrice = Quantity * UnitPrice.
func (i *Item) Recalc() {
	i.TotalPrice = i.UnitPrice.Mul(i.Quantity.Decimal())
}

// New creates a shipment departing from a company's center.
func New(sourceCompanyID, sourceCenterID id.ID, kind Kind, shippedAt time.Time) *Shipment {
	now := time.Now().UTC()
	return &Shipment{
		ID:              id.New(),
		Kind:            kind,
		Status:          StatusPending,
		SourceCompanyID: sourceCompanyID,
		SourceCenterID:  sourceCenterID,
		ShippedAt:       shippedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AddItem appends a product line and keeps its total consistent.
func (s *Shipment) AddItem(productName string, quality Quality, quantity types.Quantity, unitPrice types.Money) {
	item := Item{
		ID:          id.New(),
		ShipmentID:  s.ID,
		ProductName: productName,
		Quality:     quality,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	item.Recalc()
	s.Items = append(s.Items, item)
}

// TotalPrice sums all line totals.
func (s *Shipment) TotalPrice() types.Money {
	total := types.ZeroMoney()
	for _, item := range s.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// Validate checks shipment invariants.
func (s *Shipment) Validate(ctx context.Context) error {
	if id.IsNil(s.SourceCompanyID) {
		return apperror.NewValidation("source company is required").
			WithDetail("field", "sourceCompanyId")
	}
	if id.IsNil(s.SourceCenterID) {
		return apperror.NewValidation("source center is required").
			WithDetail("field", "sourceCenterId")
	}
	switch s.Kind {
	case KindWholesale, KindRetail:
	default:
		return apperror.NewValidation("unknown shipment kind").
			WithDetail("field", "kind").
			WithDetail("value", string(s.Kind))
	}
	if s.ShippedAt.IsZero() {
		return apperror.NewValidation("shipment date is required").
			WithDetail("field", "shippedAt")
	}
	if len(s.Items) == 0 {
		return apperror.NewValidation("shipment must have at least one item")
	}
	for i, item := range s.Items {
		if item.ProductName == "" {
			return apperror.NewValidation(fmt.Sprintf("item %d: product name is required", i))
		}
		if _, err := ParseQuality(string(item.Quality)); err != nil {
			return apperror.NewValidation(fmt.Sprintf("item %d: unknown quality grade", i)).
				WithDetail("value", string(item.Quality))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("item %d: unit price must not be negative", i))
		}
	}
	return nil
}

// DayDelta is one grouped (product, quality) inventory delta for a center on
// a single calendar date: the signed quantity sum over all shipment events
// touching the center that day, with the unit price averaged within the group.
type DayDelta struct {
	ProductName string         `db:"product_name" json:"productName"`
	Quality     Quality        `db:"quality" json:"quality"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
}
