package inventory

import (
	"context"
	"fmt"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/tx"
	"agrichain/internal/domain/catalogs/center"
	"agrichain/internal/domain/shipments"
	"agrichain/pkg/logger"
)

// Config bounds the engine's walk lengths.
type Config struct {
	// CascadeWindowDays bounds how far a correction propagates into
	// already-materialized future days.
	CascadeWindowDays int

	// MaxRollforwardDays bounds a cold reconstruction. A center with long
	// unfinalized history must be finalized at an intermediate day before
	// older dates can be served; this keeps read latency bounded.
	MaxRollforwardDays int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CascadeWindowDays:  30,
		MaxRollforwardDays: 366,
	}
}

// Service is the snapshot reconstruction and rollforward engine.
//
// Reads are side-effecting: Ensure materializes and caches every day it has
// to walk through. This is deliberate and load-bearing; callers that expect
// a pure read must not exist.
type Service struct {
	store     Store
	log       shipments.Repository
	recorder  ShipmentRecorder
	centers   center.Repository
	txManager tx.Manager
	locker    Locker
	audit     AuditLogger
	cfg       Config
}

// NewService creates the snapshot engine.
// audit may be nil to disable audit logging (tests, seed tooling).
func NewService(
	store Store,
	log shipments.Repository,
	recorder ShipmentRecorder,
	centers center.Repository,
	txManager tx.Manager,
	locker Locker,
	audit AuditLogger,
	cfg Config,
) *Service {
	if cfg.CascadeWindowDays <= 0 {
		cfg.CascadeWindowDays = DefaultConfig().CascadeWindowDays
	}
	if cfg.MaxRollforwardDays <= 0 {
		cfg.MaxRollforwardDays = DefaultConfig().MaxRollforwardDays
	}
	return &Service{
		store:     store,
		log:       log,
		recorder:  recorder,
		centers:   centers,
		txManager: txManager,
		locker:    locker,
		audit:     audit,
		cfg:       cfg,
	}
}

// Ensure returns the snapshot for (company, center, date), materializing it
// and every missing day before it when no cached row exists.
func (s *Service) Ensure(ctx context.Context, companyID, centerID id.ID, day time.Time) (*Snapshot, error) {
	day = DateOf(day)

	// Fast path: already cached.
	snap, err := s.store.Get(ctx, companyID, centerID, day)
	if err == nil {
		return snap, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	var out *Snapshot
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.AcquireCenterLock(ctx, companyID, centerID); err != nil {
			return fmt.Errorf("acquire center lock: %w", err)
		}
		var rErr error
		out, rErr = s.reconstruct(ctx, companyID, centerID, day)
		return rErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reconstruct materializes the snapshot chain up to target. Runs under the
// per-center advisory lock inside a transaction.
func (s *Service) reconstruct(ctx context.Context, companyID, centerID id.ID, target time.Time) (*Snapshot, error) {
	// Re-check under the lock: a concurrent request may have won the race.
	if snap, err := s.store.Get(ctx, companyID, centerID, target); err == nil {
		return snap, nil
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	start, working, err := s.baseline(ctx, companyID, centerID, target)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		// Terminal case: no finalized baseline and no shipment history on
		// or before the target. Persist a single empty snapshot.
		empty := NewSnapshot(companyID, centerID, target)
		return s.insertOrRead(ctx, empty)
	}

	if days := daysBetween(start, target); days > s.cfg.MaxRollforwardDays {
		return nil, apperror.NewRollforwardBound(days, s.cfg.MaxRollforwardDays)
	}

	var current *Snapshot
	for d := start; !d.After(target); d = d.AddDate(0, 0, 1) {
		// Idempotence: never overwrite a day that already exists; adopt its
		// items as the working set instead.
		existing, err := s.store.Get(ctx, companyID, centerID, d)
		if err == nil {
			current = existing
			working = existing.Clone().Items
			continue
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}

		snap := NewSnapshot(companyID, centerID, d)
		snap.Items = make([]Item, 0, len(working))
		for _, item := range working {
			item.ID = id.New()
			item.SnapshotID = snap.ID
			snap.Items = append(snap.Items, item)
		}

		deltas, err := s.log.DayDeltas(ctx, companyID, centerID, d)
		if err != nil {
			return nil, fmt.Errorf("day deltas for %s: %w", d.Format(time.DateOnly), err)
		}
		snap.ApplyDeltas(deltas)
		snap.Recompute()

		stored, err := s.insertOrRead(ctx, snap)
		if err != nil {
			return nil, err
		}
		current = stored
		working = stored.Clone().Items
	}

	logger.Debug(ctx, "snapshot chain materialized",
		"company_id", companyID,
		"center_id", centerID,
		"from", start.Format(time.DateOnly),
		"to", target.Format(time.DateOnly),
	)
	return current, nil
}

// baseline determines where rollforward starts and with which items.
// Returns a zero start time for the terminal no-history case.
func (s *Service) baseline(ctx context.Context, companyID, centerID id.ID, target time.Time) (time.Time, []Item, error) {
	base, err := s.store.LatestFinalized(ctx, companyID, centerID, target)
	if err == nil {
		// Rollforward begins the day after the finalized baseline; its
		// items seed the working set verbatim. Shipments dated before the
		// baseline are intentionally ignored (backdated events do not
		// reopen audited days).
		return base.Day.AddDate(0, 0, 1), base.Clone().Items, nil
	}
	if !apperror.IsNotFound(err) {
		return time.Time{}, nil, err
	}

	first, err := s.log.EarliestEventDate(ctx, companyID, centerID)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("earliest shipment date: %w", err)
	}
	if first == nil || DateOf(*first).After(target) {
		return time.Time{}, nil, nil
	}
	return DateOf(*first), nil, nil
}

// insertOrRead persists a snapshot, falling back to a read when a concurrent
// writer inserted the same (company, center, date) first. The advisory lock
// taken by reconstruction serializes writers per center, so inside a
// transaction the duplicate branch never fires; it must stay that way, since
// a unique violation aborts the surrounding pg transaction and the fallback
// read would fail on it.
func (s *Service) insertOrRead(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	err := s.store.Insert(ctx, snap)
	if err == nil {
		return snap, nil
	}
	if apperror.IsDuplicate(err) {
		return s.store.Get(ctx, snap.CompanyID, snap.CenterID, snap.Day)
	}
	return nil, err
}

// regenerateDay force-recomputes one already-materialized day from the
// previous day's stored items plus the day's shipment deltas, overwriting
// the cached row in place. Used by the correction cascade.
func (s *Service) regenerateDay(ctx context.Context, companyID, centerID id.ID, day time.Time) error {
	day = DateOf(day)

	snap := NewSnapshot(companyID, centerID, day)
	prev, err := s.store.Get(ctx, companyID, centerID, day.AddDate(0, 0, -1))
	switch {
	case err == nil:
		snap.CopyItemsFrom(prev)
	case apperror.IsNotFound(err):
		// No previous day materialized: the day restarts from empty plus
		// its own deltas.
	default:
		return err
	}

	deltas, err := s.log.DayDeltas(ctx, companyID, centerID, day)
	if err != nil {
		return fmt.Errorf("day deltas for %s: %w", day.Format(time.DateOnly), err)
	}
	snap.ApplyDeltas(deltas)
	snap.Recompute()

	existing, err := s.store.Get(ctx, companyID, centerID, day)
	switch {
	case err == nil:
		// Preserve row identity and the finalized flag of the stored day.
		snap.ID = existing.ID
		snap.CreatedAt = existing.CreatedAt
		snap.Finalized = existing.Finalized
		for i := range snap.Items {
			snap.Items[i].SnapshotID = snap.ID
		}
		return s.store.Replace(ctx, snap)
	case apperror.IsNotFound(err):
		_, insErr := s.insertOrRead(ctx, snap)
		return insErr
	default:
		return err
	}
}

// Finalize marks an existing snapshot as the immutable rollforward baseline.
// The snapshot must already be materialized; finalizing twice is a no-op.
func (s *Service) Finalize(ctx context.Context, companyID, centerID id.ID, day time.Time) (*Snapshot, error) {
	day = DateOf(day)

	snap, err := s.store.Get(ctx, companyID, centerID, day)
	if err != nil {
		return nil, err
	}
	if snap.Finalized {
		return snap, nil
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.SetFinalized(ctx, snap.ID); err != nil {
			return err
		}
		if s.audit != nil {
			if err := s.audit.LogChange(ctx, "CenterInventorySnapshot", snap.ID, "finalize", map[string]any{
				"centerId": centerID,
				"date":     day.Format(time.DateOnly),
			}); err != nil {
				logger.Warn(ctx, "audit log failed", "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.Finalized = true
	logger.Info(ctx, "snapshot finalized",
		"company_id", companyID,
		"center_id", centerID,
		"date", day.Format(time.DateOnly),
	)
	return snap, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
