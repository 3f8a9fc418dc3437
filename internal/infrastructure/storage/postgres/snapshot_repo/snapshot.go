// Package snapshot_repo provides the PostgreSQL snapshot store.
package snapshot_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/inventory"
	"agrichain/internal/infrastructure/storage/postgres"
)

const (
	snapshotsTable = "center_inventory_snapshots"
	itemsTable     = "center_snapshot_items"
)

var itemColumns = []string{
	"id", "snapshot_id", "product_name", "quality",
	"quantity", "unit_price", "total_price",
}

var _ inventory.Store = (*SnapshotRepo)(nil)

// SnapshotRepo implements inventory.Store.
type SnapshotRepo struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txManager *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[inventory.Snapshot](),
	}
}

// Get returns the snapshot for (company, center, date) with items.
func (r *SnapshotRepo) Get(ctx context.Context, companyID, centerID id.ID, day time.Time) (*inventory.Snapshot, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(snapshotsTable).
		Where(squirrel.Eq{
			"company_id":    companyID,
			"center_id":     centerID,
			"snapshot_date": day,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	snap := &inventory.Snapshot{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, snap, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("snapshot", day.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	if err := r.loadItems(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestFinalized returns the most recent finalized snapshot on or before the
// given date.
func (r *SnapshotRepo) LatestFinalized(ctx context.Context, companyID, centerID id.ID, onOrBefore time.Time) (*inventory.Snapshot, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(snapshotsTable).
		Where(squirrel.Eq{
			"company_id": companyID,
			"center_id":  centerID,
			"finalized":  true,
		}).
		Where(squirrel.LtOrEq{"snapshot_date": onOrBefore}).
		OrderBy("snapshot_date DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	snap := &inventory.Snapshot{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, snap, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("finalized snapshot", onOrBefore.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("get latest finalized: %w", err)
	}

	if err := r.loadItems(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Insert persists a new snapshot with its items.
func (r *SnapshotRepo) Insert(ctx context.Context, snap *inventory.Snapshot) error {
	data := postgres.StructToMap(snap)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder.Insert(snapshotsTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("snapshot", "date", snap.Day.Format(time.DateOnly))
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return r.insertItems(ctx, snap)
}

// Replace overwrites an existing snapshot's totals and item set.
// Row identity and the finalized flag are preserved.
func (r *SnapshotRepo) Replace(ctx context.Context, snap *inventory.Snapshot) error {
	q := r.builder.
		Update(snapshotsTable).
		Set("total_quantity", snap.TotalQuantity).
		Set("total_price", snap.TotalPrice).
		Set("updated_at", snap.UpdatedAt).
		Where(squirrel.Eq{"id": snap.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("snapshot", snap.ID.String())
	}

	del := r.builder.Delete(itemsTable).Where(squirrel.Eq{"snapshot_id": snap.ID})
	sql, args, err = del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	return r.insertItems(ctx, snap)
}

// SetFinalized marks a snapshot finalized.
func (r *SnapshotRepo) SetFinalized(ctx context.Context, snapshotID id.ID) error {
	q := r.builder.
		Update(snapshotsTable).
		Set("finalized", true).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": snapshotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set finalized: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("snapshot", snapshotID.String())
	}
	return nil
}

// CentersWithSnapshot returns the subset of centerIDs that have a snapshot
// row on the given date.
func (r *SnapshotRepo) CentersWithSnapshot(ctx context.Context, companyID id.ID, centerIDs []id.ID, day time.Time) ([]id.ID, error) {
	if len(centerIDs) == 0 {
		return nil, nil
	}

	q := r.builder.
		Select("center_id").
		From(snapshotsTable).
		Where(squirrel.Eq{
			"company_id":    companyID,
			"center_id":     centerIDs,
			"snapshot_date": day,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []id.ID
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select centers: %w", err)
	}
	return out, nil
}

func (r *SnapshotRepo) loadItems(ctx context.Context, snap *inventory.Snapshot) error {
	q := r.builder.
		Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"snapshot_id": snap.ID}).
		OrderBy("product_name", "quality")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &snap.Items, sql, args...); err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	return nil
}

// insertItems writes the item set, preferring COPY inside a transaction.
func (r *SnapshotRepo) insertItems(ctx context.Context, snap *inventory.Snapshot) error {
	if len(snap.Items) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(snap.Items))
		for _, item := range snap.Items {
			rows = append(rows, []any{
				item.ID, item.SnapshotID, item.ProductName, item.Quality,
				item.Quantity, item.UnitPrice, item.TotalPrice,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, itemsTable, itemColumns, rows); err != nil {
			return fmt.Errorf("copy items: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(itemsTable).Columns(itemColumns...)
	for _, item := range snap.Items {
		q = q.Values(
			item.ID, item.SnapshotID, item.ProductName, item.Quality,
			item.Quantity, item.UnitPrice, item.TotalPrice,
		)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}
