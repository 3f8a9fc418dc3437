package inventory

import (
	"context"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
)

// CenterDay is one center's snapshot inside a company-wide view.
type CenterDay struct {
	CenterID   id.ID     `json:"centerId"`
	CenterName string    `json:"centerName"`
	Snapshot   *Snapshot `json:"snapshot"`
}

// CompanyDay is the company-wide inventory position for one calendar date:
// one entry per center the company owns, including centers with no activity.
type CompanyDay struct {
	CompanyID     id.ID          `json:"companyId"`
	Day           time.Time      `json:"date"`
	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalPrice    types.Money    `json:"totalPrice"`
	Centers       []CenterDay    `json:"centers"`
}

// CompanyDay materializes and aggregates the snapshot for every center the
// company owns on the given date. A company with no centers yields a valid
// empty result, not an error.
func (s *Service) CompanyDay(ctx context.Context, companyID id.ID, day time.Time) (*CompanyDay, error) {
	day = DateOf(day)

	centers, err := s.centers.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := &CompanyDay{
		CompanyID:  companyID,
		Day:        day,
		TotalPrice: types.ZeroMoney(),
		Centers:    make([]CenterDay, 0, len(centers)),
	}
	for _, c := range centers {
		snap, err := s.Ensure(ctx, companyID, c.ID, day)
		if err != nil {
			return nil, err
		}
		out.TotalQuantity += snap.TotalQuantity
		out.TotalPrice = out.TotalPrice.Add(snap.TotalPrice)
		out.Centers = append(out.Centers, CenterDay{
			CenterID:   c.ID,
			CenterName: c.Name,
			Snapshot:   snap,
		})
	}
	return out, nil
}

// CompanyRange returns the company-wide view for every date in [from, to],
// inclusive. The range is bounded the same way a cold per-center
// reconstruction is.
func (s *Service) CompanyRange(ctx context.Context, companyID id.ID, from, to time.Time) ([]*CompanyDay, error) {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return nil, apperror.NewValidation("date range end precedes start").
			WithDetail("from", from.Format(time.DateOnly)).
			WithDetail("to", to.Format(time.DateOnly))
	}
	if days := daysBetween(from, to) + 1; days > s.cfg.MaxRollforwardDays {
		return nil, apperror.NewRollforwardBound(days, s.cfg.MaxRollforwardDays)
	}

	var out []*CompanyDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		cd, err := s.CompanyDay(ctx, companyID, d)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}
