package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"agrichain/internal/core/id"
	"agrichain/internal/domain/inventory"
)

var _ inventory.Locker = (*CenterLocker)(nil)

// CenterLocker serializes snapshot reconstruction per (company, center) with
// a transaction-scoped advisory lock. The lock is released automatically on
// commit or rollback, so no unlock call exists.
type CenterLocker struct {
	txManager *TxManager
}

// NewCenterLocker creates a new center locker.
func NewCenterLocker(txManager *TxManager) *CenterLocker {
	return &CenterLocker{txManager: txManager}
}

// AcquireCenterLock blocks until the per-center lock is held.
// Must be called inside a transaction.
func (l *CenterLocker) AcquireCenterLock(ctx context.Context, companyID, centerID id.ID) error {
	tx := l.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("AcquireCenterLock requires transaction context")
	}

	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", centerLockKey(companyID, centerID))
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

// centerLockKey folds the (company, center) pair into the 64-bit advisory
// lock keyspace. FNV-1a collisions are possible and harmless: a collision
// only over-serializes two unrelated centers.
func centerLockKey(companyID, centerID id.ID) int64 {
	h := fnv.New64a()
	h.Write(companyID[:])
	h.Write(centerID[:])
	return int64(h.Sum64())
}
