// Package center provides the collection center catalog.
// A center is a physical collection/distribution point owned by one company;
// product inventory physically sits at centers and snapshots are kept per
// center per calendar date.
package center

import (
	"context"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
)

// Center represents a collection center.
type Center struct {
	ID           id.ID     `db:"id" json:"id"`
	CompanyID    id.ID     `db:"company_id" json:"companyId"`
	Name         string    `db:"name" json:"name"`
	Address      string    `db:"address" json:"address,omitempty"`
	DeletionMark bool      `db:"deletion_mark" json:"deletionMark"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new center for a company.
func New(companyID id.ID, name string) *Center {
	now := time.Now().UTC()
	return &Center{
		ID:        id.New(),
		CompanyID: companyID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks center invariants.
func (c *Center) Validate(ctx context.Context) error {
	if id.IsNil(c.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	if c.Name == "" {
		return apperror.NewValidation("center name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Repository defines persistence operations for centers.
type Repository interface {
	// Get returns a center owned by the given company.
	// Returns NotFound if the center does not exist or belongs to another company.
	Get(ctx context.Context, companyID, centerID id.ID) (*Center, error)

	// ListByCompany returns all non-deleted centers of a company, ordered by name.
	ListByCompany(ctx context.Context, companyID id.ID) ([]*Center, error)

	Create(ctx context.Context, c *Center) error
}
