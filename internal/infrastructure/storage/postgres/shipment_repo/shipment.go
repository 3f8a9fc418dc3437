// Package shipment_repo provides the PostgreSQL shipment log.
package shipment_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/shipments"
	"agrichain/internal/infrastructure/storage/postgres"
)

const (
	shipmentsTable = "shipments"
	itemsTable     = "shipment_items"
)

var itemColumns = []string{
	"id", "shipment_id", "product_name", "quality",
	"quantity", "unit_price", "total_price",
}

const dayDeltasSQL = `
	SELECT i.product_name,
	       i.quality,
	       SUM(CASE WHEN s.source_company_id = $1 AND s.source_center_id = $2
	                THEN -i.quantity ELSE i.quantity END)::bigint AS quantity,
	       AVG(i.unit_price) AS unit_price
	FROM ` + shipmentsTable + ` s
	JOIN ` + itemsTable + ` i ON i.shipment_id = s.id
	WHERE s.status = 'completed'
	  AND s.shipped_at >= $3 AND s.shipped_at < $4
	  AND ((s.source_company_id = $1 AND s.source_center_id = $2)
	    OR (s.dest_company_id = $1 AND s.dest_center_id = $2))
	GROUP BY i.product_name, i.quality
	ORDER BY i.product_name, i.quality
`

var _ shipments.Repository = (*ShipmentRepo)(nil)

// ShipmentRepo implements shipments.Repository.
type ShipmentRepo struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewShipmentRepo creates a new shipment repository.
func NewShipmentRepo(txManager *postgres.TxManager) *ShipmentRepo {
	return &ShipmentRepo{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[shipments.Shipment](),
	}
}

// Create inserts a shipment with its items.
func (r *ShipmentRepo) Create(ctx context.Context, sh *shipments.Shipment) error {
	data := postgres.StructToMap(sh)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.Insert(shipmentsTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("shipment", "number", sh.Number)
		}
		return fmt.Errorf("insert shipment: %w", err)
	}

	if len(sh.Items) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(sh.Items))
		for _, item := range sh.Items {
			rows = append(rows, []any{
				item.ID, item.ShipmentID, item.ProductName, item.Quality,
				item.Quantity, item.UnitPrice, item.TotalPrice,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, itemsTable, itemColumns, rows); err != nil {
			return fmt.Errorf("copy items: %w", err)
		}
		return nil
	}

	iq := r.builder.Insert(itemsTable).Columns(itemColumns...)
	for _, item := range sh.Items {
		iq = iq.Values(
			item.ID, item.ShipmentID, item.ProductName, item.Quality,
			item.Quantity, item.UnitPrice, item.TotalPrice,
		)
	}
	sql, args, err = iq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// GetByID returns a shipment with items.
func (r *ShipmentRepo) GetByID(ctx context.Context, shipmentID id.ID) (*shipments.Shipment, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(shipmentsTable).
		Where(squirrel.Eq{"id": shipmentID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	sh := &shipments.Shipment{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, sh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("shipment", shipmentID.String())
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}

	if err := r.loadItems(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// listQuery builds the filtered company listing query.
func (r *ShipmentRepo) listQuery(companyID id.ID, filter shipments.ListFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(r.selectCols...).
		From(shipmentsTable).
		Where(squirrel.Or{
			squirrel.Eq{"source_company_id": companyID},
			squirrel.Eq{"dest_company_id": companyID},
		}).
		OrderBy("shipped_at DESC", "id DESC")

	if filter.CenterID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"source_center_id": *filter.CenterID},
			squirrel.Eq{"dest_center_id": *filter.CenterID},
		})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"shipped_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		// ToDate is inclusive per the calendar-date contract.
		q = q.Where(squirrel.Lt{"shipped_at": filter.ToDate.AddDate(0, 0, 1)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// ListByCompany lists shipments where the company appears as source or
// destination, newest first. Items are loaded per shipment.
func (r *ShipmentRepo) ListByCompany(ctx context.Context, companyID id.ID, filter shipments.ListFilter) ([]*shipments.Shipment, error) {
	sql, args, err := r.listQuery(companyID, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*shipments.Shipment
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	for _, sh := range list {
		if err := r.loadItems(ctx, sh); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// DayDeltas returns grouped (product, quality) deltas for completed shipment
// events touching the center on one calendar date. Outflows count negative,
// inflows positive; the unit price is averaged within each group.
func (r *ShipmentRepo) DayDeltas(ctx context.Context, companyID, centerID id.ID, day time.Time) ([]shipments.DayDelta, error) {
	var deltas []shipments.DayDelta
	querier := r.txManager.GetQuerier(ctx)
	err := pgxscan.Select(ctx, querier, &deltas, dayDeltasSQL,
		companyID, centerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("day deltas: %w", err)
	}
	return deltas, nil
}

// EarliestEventDate returns the calendar date of the first completed shipment
// event touching the center, or nil when the center has no history.
func (r *ShipmentRepo) EarliestEventDate(ctx context.Context, companyID, centerID id.ID) (*time.Time, error) {
	sql := `
		SELECT MIN(shipped_at)
		FROM ` + shipmentsTable + `
		WHERE status = 'completed'
		  AND ((source_company_id = $1 AND source_center_id = $2)
		    OR (dest_company_id = $1 AND dest_center_id = $2))
	`

	var earliest *time.Time
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, companyID, centerID).Scan(&earliest); err != nil {
		return nil, fmt.Errorf("earliest event date: %w", err)
	}
	return earliest, nil
}

func (r *ShipmentRepo) loadItems(ctx context.Context, sh *shipments.Shipment) error {
	q := r.builder.
		Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"shipment_id": sh.ID}).
		OrderBy("product_name", "quality")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sh.Items, sql, args...); err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	return nil
}
