package inventory

import (
	"context"
	"time"

	"agrichain/internal/core/id"
	"agrichain/internal/domain/shipments"
)

// Store defines persistence operations for the snapshot cache.
type Store interface {
	// Get returns the snapshot for (company, center, date) hydrated with
	// items. Returns apperror NotFound when no row exists.
	Get(ctx context.Context, companyID, centerID id.ID, day time.Time) (*Snapshot, error)

	// LatestFinalized returns the most recent finalized snapshot with
	// date <= onOrBefore. Returns apperror NotFound when none exists.
	LatestFinalized(ctx context.Context, companyID, centerID id.ID, onOrBefore time.Time) (*Snapshot, error)

	// Insert persists a new snapshot with its items. Returns apperror
	// Duplicate when a row for (company, center, date) already exists;
	// callers resolve the race by re-reading.
	Insert(ctx context.Context, s *Snapshot) error

	// Replace overwrites an existing snapshot's totals and item set,
	// preserving row identity and the finalized flag.
	Replace(ctx context.Context, s *Snapshot) error

	// SetFinalized marks a snapshot finalized. One-way transition.
	SetFinalized(ctx context.Context, snapshotID id.ID) error

	// CentersWithSnapshot returns the subset of centerIDs that have a
	// materialized snapshot row on the given date.
	CentersWithSnapshot(ctx context.Context, companyID id.ID, centerIDs []id.ID, day time.Time) ([]id.ID, error)
}

// Locker serializes snapshot reconstruction per (company, center).
// The lock must be acquired inside a transaction and is released with it.
type Locker interface {
	AcquireCenterLock(ctx context.Context, companyID, centerID id.ID) error
}

// ShipmentRecorder is the write side of the shipment log, used only for
// correction shipments synthesized by the engine.
type ShipmentRecorder interface {
	RecordSynthesized(ctx context.Context, s *shipments.Shipment) error
}

// AuditLogger records who changed what. Optional; a nil logger disables
// auditing.
type AuditLogger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes any) error
}
