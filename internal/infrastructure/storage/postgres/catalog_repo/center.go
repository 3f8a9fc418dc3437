package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/catalogs/center"
	"agrichain/internal/infrastructure/storage/postgres"
)

const centerTable = "cat_centers"

var _ center.Repository = (*CenterRepo)(nil)

// CenterRepo implements center.Repository.
type CenterRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewCenterRepo creates a new center repository.
func NewCenterRepo(txManager *postgres.TxManager) *CenterRepo {
	return &CenterRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[center.Center](),
	}
}

// Get returns a center owned by the given company. A center belonging to
// another company is reported as NotFound, not Forbidden, so callers cannot
// probe for foreign center IDs.
func (r *CenterRepo) Get(ctx context.Context, companyID, centerID id.ID) (*center.Center, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(centerTable).
		Where(squirrel.Eq{
			"id":            centerID,
			"company_id":    companyID,
			"deletion_mark": false,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	c := &center.Center{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("center", centerID.String())
		}
		return nil, fmt.Errorf("get center: %w", err)
	}
	return c, nil
}

// ListByCompany returns all non-deleted centers of a company, ordered by name.
func (r *CenterRepo) ListByCompany(ctx context.Context, companyID id.ID) ([]*center.Center, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(centerTable).
		Where(squirrel.Eq{"company_id": companyID, "deletion_mark": false}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*center.Center
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	return list, nil
}

// Create inserts a new center.
func (r *CenterRepo) Create(ctx context.Context, c *center.Center) error {
	data := postgres.StructToMap(c)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.Insert(centerTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("company", c.CompanyID.String())
		}
		return fmt.Errorf("insert center: %w", err)
	}
	return nil
}
