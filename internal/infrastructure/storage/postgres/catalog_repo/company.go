// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/catalogs/company"
	"agrichain/internal/infrastructure/storage/postgres"
)

const companyTable = "cat_companies"

var _ company.Repository = (*CompanyRepo)(nil)

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo(txManager *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[company.Company](),
	}
}

// Get retrieves a company by ID.
func (r *CompanyRepo) Get(ctx context.Context, companyID id.ID) (*company.Company, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(companyTable).
		Where(squirrel.Eq{"id": companyID, "deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	c := &company.Company{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", companyID.String())
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// Create inserts a new company.
func (r *CompanyRepo) Create(ctx context.Context, c *company.Company) error {
	data := postgres.StructToMap(c)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.Insert(companyTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("company", "registration", c.Registration)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}
