package inventory

import (
	"context"
	"fmt"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/shipments"
	"agrichain/pkg/logger"
)

// CorrectionLine is one requested (product, quality) value for a center.
// Quantity and UnitPrice are the desired stored values, not deltas.
type CorrectionLine struct {
	ProductName string            `json:"productName"`
	Quality     shipments.Quality `json:"quality"`
	Quantity    types.Quantity    `json:"quantity"`
	UnitPrice   types.Money       `json:"unitPrice"`
}

// CenterCorrection groups requested lines for one center.
type CenterCorrection struct {
	CenterID id.ID            `json:"centerId"`
	Lines    []CorrectionLine `json:"lines"`
}

// CorrectionRequest is a manual edit of one calendar day's inventory across
// one or more of a company's centers.
type CorrectionRequest struct {
	Date       time.Time
	EditorID   string
	ContractID *id.ID
	Centers    []CenterCorrection
}

// CorrectionResult carries the refreshed company-wide view of the corrected
// day plus the shipment records synthesized to explain the edit.
type CorrectionResult struct {
	Company     *CompanyDay           `json:"company"`
	Synthesized []*shipments.Shipment `json:"synthesized"`
}

// Correct applies a manual inventory edit for one day.
//
// Per center: loads the stored snapshot (which must already exist), computes
// per-line deltas against it, synthesizes compensating shipment records for
// the difference, overwrites the stored items with the requested values, then
// regenerates already-cached future days within the cascade window. The whole
// multi-center edit runs in a single transaction; a failure on any center
// rolls back every center.
//
// Lines naming a (product, quality) pair absent from the stored day are
// dropped without error. Corrections adjust existing lines; new lines enter
// inventory only through real shipment events.
func (s *Service) Correct(ctx context.Context, companyID id.ID, req CorrectionRequest) (*CorrectionResult, error) {
	day := DateOf(req.Date)
	if err := validateCorrection(req); err != nil {
		return nil, err
	}

	var synthesized []*shipments.Shipment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		synthesized = synthesized[:0]
		if err := s.requireMaterialized(ctx, companyID, req.Centers, day); err != nil {
			return err
		}
		for _, cc := range req.Centers {
			recs, err := s.correctCenter(ctx, companyID, cc, day, req.EditorID, req.ContractID)
			if err != nil {
				return err
			}
			synthesized = append(synthesized, recs...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	company, err := s.CompanyDay(ctx, companyID, day)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory corrected",
		"company_id", companyID,
		"date", day.Format(time.DateOnly),
		"centers", len(req.Centers),
		"synthesized", len(synthesized),
	)
	return &CorrectionResult{Company: company, Synthesized: synthesized}, nil
}

// requireMaterialized fails the whole correction before touching any center
// when one of the named centers has no stored snapshot on the date. A
// correction edits a cached day; callers materialize it by reading first.
func (s *Service) requireMaterialized(ctx context.Context, companyID id.ID, centers []CenterCorrection, day time.Time) error {
	centerIDs := make([]id.ID, len(centers))
	for i, cc := range centers {
		centerIDs[i] = cc.CenterID
	}

	materialized, err := s.store.CentersWithSnapshot(ctx, companyID, centerIDs, day)
	if err != nil {
		return err
	}

	have := make(map[id.ID]struct{}, len(materialized))
	for _, centerID := range materialized {
		have[centerID] = struct{}{}
	}
	for _, centerID := range centerIDs {
		if _, ok := have[centerID]; !ok {
			return apperror.NewNotFound("snapshot", centerID.String()).
				WithDetail("date", day.Format(time.DateOnly))
		}
	}
	return nil
}

func validateCorrection(req CorrectionRequest) error {
	if req.Date.IsZero() {
		return apperror.NewValidation("correction date is required").
			WithDetail("field", "date")
	}
	if len(req.Centers) == 0 {
		return apperror.NewValidation("correction must name at least one center").
			WithDetail("field", "centers")
	}
	for _, cc := range req.Centers {
		if id.IsNil(cc.CenterID) {
			return apperror.NewValidation("center id is required").
				WithDetail("field", "centerId")
		}
		for i, line := range cc.Lines {
			if line.ProductName == "" {
				return apperror.NewValidation(fmt.Sprintf("line %d: product name is required", i))
			}
			if _, err := shipments.ParseQuality(string(line.Quality)); err != nil {
				return apperror.NewValidation(fmt.Sprintf("line %d: unknown quality grade", i)).
					WithDetail("value", string(line.Quality))
			}
			if line.Quantity.IsNegative() {
				return apperror.NewValidation(fmt.Sprintf("line %d: quantity must not be negative", i))
			}
			if line.UnitPrice.IsNegative() {
				return apperror.NewValidation(fmt.Sprintf("line %d: unit price must not be negative", i))
			}
		}
	}
	return nil
}

// correctCenter edits one center's stored day under its advisory lock.
// Runs inside the correction transaction.
func (s *Service) correctCenter(
	ctx context.Context,
	companyID id.ID,
	cc CenterCorrection,
	day time.Time,
	editorID string,
	contractID *id.ID,
) ([]*shipments.Shipment, error) {
	if _, err := s.centers.Get(ctx, companyID, cc.CenterID); err != nil {
		return nil, err
	}
	if err := s.locker.AcquireCenterLock(ctx, companyID, cc.CenterID); err != nil {
		return nil, fmt.Errorf("acquire center lock: %w", err)
	}

	snap, err := s.store.Get(ctx, companyID, cc.CenterID, day)
	if err != nil {
		return nil, err
	}

	outbound := shipments.New(companyID, cc.CenterID, shipments.KindWholesale, day)
	inbound := shipments.New(companyID, cc.CenterID, shipments.KindRetail, day)
	changed := false

	for _, line := range cc.Lines {
		item := snap.Item(line.ProductName, line.Quality)
		if item == nil {
			logger.Debug(ctx, "correction line dropped, product not in stored day",
				"center_id", cc.CenterID,
				"product", line.ProductName,
				"quality", string(line.Quality),
			)
			continue
		}

		delta := line.Quantity - item.Quantity
		switch {
		case delta.IsPositive():
			outbound.AddItem(line.ProductName, line.Quality, delta, line.UnitPrice)
		case delta.IsNegative():
			inbound.AddItem(line.ProductName, line.Quality, delta.Abs(), line.UnitPrice)
		}

		if !delta.IsZero() || !item.UnitPrice.Equal(line.UnitPrice) {
			changed = true
		}
		item.Quantity = line.Quantity
		item.UnitPrice = line.UnitPrice
		item.Recalc()
	}

	var recs []*shipments.Shipment
	for _, sh := range []*shipments.Shipment{outbound, inbound} {
		if len(sh.Items) == 0 {
			continue
		}
		sh.Title = fmt.Sprintf("Inventory correction for center %s on %s", cc.CenterID, day.Format(time.DateOnly))
		sh.CreatorID = editorID
		sh.ContractID = contractID
		if err := s.recorder.RecordSynthesized(ctx, sh); err != nil {
			return nil, fmt.Errorf("record synthesized shipment: %w", err)
		}
		recs = append(recs, sh)
	}

	if !changed {
		return nil, nil
	}

	snap.Recompute()
	if err := s.store.Replace(ctx, snap); err != nil {
		return nil, fmt.Errorf("replace corrected snapshot: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.LogChange(ctx, "CenterInventorySnapshot", snap.ID, "correct", map[string]any{
			"centerId":    cc.CenterID,
			"date":        day.Format(time.DateOnly),
			"editorId":    editorID,
			"synthesized": len(recs),
		}); err != nil {
			logger.Warn(ctx, "audit log failed", "error", err)
		}
	}

	if err := s.cascade(ctx, companyID, cc.CenterID, day); err != nil {
		return nil, err
	}
	return recs, nil
}

// cascade regenerates already-cached days after an edited day, bounded by the
// configured window. The walk stops at the first day without a cached row:
// materialized days form a contiguous run, so everything past a gap is left
// to lazy reconstruction, which will rebuild it from the corrected state. A
// finalized day also stops the walk because every later day already derives
// from it as a baseline.
func (s *Service) cascade(ctx context.Context, companyID, centerID id.ID, edited time.Time) error {
	for i := 1; i <= s.cfg.CascadeWindowDays; i++ {
		d := edited.AddDate(0, 0, i)
		existing, err := s.store.Get(ctx, companyID, centerID, d)
		if apperror.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if existing.Finalized {
			return nil
		}
		if err := s.regenerateDay(ctx, companyID, centerID, d); err != nil {
			return fmt.Errorf("cascade day %s: %w", d.Format(time.DateOnly), err)
		}
	}
	return nil
}
