package shipments

import (
	"context"
	"fmt"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/numerator"
	"agrichain/internal/core/tx"
	"agrichain/pkg/logger"
)

// NumeratorStrategy for shipment numbers. Cached is acceptable here:
// gaps in shipment numbering carry no accounting meaning.
var NumeratorStrategy = numerator.StrategyCached

// Service provides business operations for the shipment log.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new shipment service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
	}
}

// Record validates, numbers and persists a new shipment event. The log
// records movements that already happened, so a recorded shipment is
// completed on arrival and immediately visible to day-delta reads.
func (s *Service) Record(ctx context.Context, sh *Shipment) error {
	if err := sh.Validate(ctx); err != nil {
		return err
	}

	if sh.Status == "" || sh.Status == StatusPending {
		sh.Status = StatusCompleted
	}
	if sh.Number == "" {
		cfg := numerator.DefaultConfig("SHP")
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		sh.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, sh)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "shipment recorded",
		"id", sh.ID,
		"number", sh.Number,
		"source_center_id", sh.SourceCenterID,
		"items", len(sh.Items),
	)
	return nil
}

// RecordSynthesized persists a correction shipment manufactured by the
// inventory engine. Numbered in a separate COR series so auditors can tell
// manual corrections from real goods movement at a glance.
func (s *Service) RecordSynthesized(ctx context.Context, sh *Shipment) error {
	if err := sh.Validate(ctx); err != nil {
		return err
	}

	sh.Synthesized = true
	sh.Status = StatusCompleted
	if sh.Number == "" {
		cfg := numerator.DefaultConfig("COR")
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		sh.Number = number
	}

	if err := s.repo.Create(ctx, sh); err != nil {
		return err
	}

	logger.Info(ctx, "correction shipment synthesized",
		"id", sh.ID,
		"number", sh.Number,
		"source_center_id", sh.SourceCenterID,
		"items", len(sh.Items),
	)
	return nil
}

// GetByID retrieves a shipment with items, scoped to a company. A shipment
// that touches neither side of the company is reported as not found rather
// than forbidden, so callers cannot probe for foreign shipment IDs.
func (s *Service) GetByID(ctx context.Context, companyID, shipmentID id.ID) (*Shipment, error) {
	sh, err := s.repo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if sh.SourceCompanyID != companyID && (sh.DestCompanyID == nil || *sh.DestCompanyID != companyID) {
		return nil, apperror.NewNotFound("shipment", shipmentID.String())
	}
	return sh, nil
}

// ListByCompany lists shipments touching the company.
func (s *Service) ListByCompany(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Shipment, error) {
	return s.repo.ListByCompany(ctx, companyID, filter)
}
