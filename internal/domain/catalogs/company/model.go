// Package company provides the Company catalog.
// Companies are the tenants of the platform: farmers, wholesalers and
// retailers that own collection centers and ship goods between them.
package company

import (
	"context"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
)

// Kind classifies a company's position in the supply chain.
type Kind string

const (
	KindFarmer     Kind = "farmer"
	KindWholesaler Kind = "wholesaler"
	KindRetailer   Kind = "retailer"
)

// Company represents a registered company.
type Company struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Kind         Kind      `db:"kind" json:"kind"`
	Registration string    `db:"registration" json:"registration,omitempty"`
	DeletionMark bool      `db:"deletion_mark" json:"deletionMark"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new company.
func New(name string, kind Kind) *Company {
	now := time.Now().UTC()
	return &Company{
		ID:        id.New(),
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks company invariants.
func (c *Company) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("company name is required").
			WithDetail("field", "name")
	}
	switch c.Kind {
	case KindFarmer, KindWholesaler, KindRetailer:
	default:
		return apperror.NewValidation("unknown company kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}
	return nil
}

// Repository defines persistence operations for companies.
type Repository interface {
	Get(ctx context.Context, companyID id.ID) (*Company, error)
	Create(ctx context.Context, c *Company) error
}
