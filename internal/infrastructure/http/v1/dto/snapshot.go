package dto

import (
	"time"

	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/inventory"
	"agrichain/internal/domain/shipments"
)

// --- Snapshot responses ---

// SnapshotItemResponse is one inventory line of a snapshot.
type SnapshotItemResponse struct {
	ProductName string         `json:"productName"`
	Quality     string         `json:"quality"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	TotalPrice  types.Money    `json:"totalPrice"`
}

// SnapshotResponse is one center's inventory state on one date.
type SnapshotResponse struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"companyId"`
	CenterID      string                 `json:"centerId"`
	Date          string                 `json:"date"`
	TotalQuantity types.Quantity         `json:"totalQuantity"`
	TotalPrice    types.Money            `json:"totalPrice"`
	Finalized     bool                   `json:"finalized"`
	Items         []SnapshotItemResponse `json:"items"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// FromSnapshot creates response from domain snapshot.
func FromSnapshot(s *inventory.Snapshot) *SnapshotResponse {
	items := make([]SnapshotItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SnapshotItemResponse{
			ProductName: item.ProductName,
			Quality:     string(item.Quality),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}
	return &SnapshotResponse{
		ID:            s.ID.String(),
		CompanyID:     s.CompanyID.String(),
		CenterID:      s.CenterID.String(),
		Date:          s.Day.Format(DateLayout),
		TotalQuantity: s.TotalQuantity,
		TotalPrice:    s.TotalPrice,
		Finalized:     s.Finalized,
		Items:         items,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// CenterDayResponse is one center's contribution to a company day.
type CenterDayResponse struct {
	CenterID   string            `json:"centerId"`
	CenterName string            `json:"centerName"`
	Snapshot   *SnapshotResponse `json:"snapshot"`
}

// CompanyDayResponse aggregates all centers of a company for one date.
type CompanyDayResponse struct {
	CompanyID     string              `json:"companyId"`
	Date          string              `json:"date"`
	TotalQuantity types.Quantity      `json:"totalQuantity"`
	TotalPrice    types.Money         `json:"totalPrice"`
	Centers       []CenterDayResponse `json:"centers"`
}

// FromCompanyDay creates response from domain aggregate.
func FromCompanyDay(d *inventory.CompanyDay) *CompanyDayResponse {
	centers := make([]CenterDayResponse, len(d.Centers))
	for i, c := range d.Centers {
		centers[i] = CenterDayResponse{
			CenterID:   c.CenterID.String(),
			CenterName: c.CenterName,
			Snapshot:   FromSnapshot(c.Snapshot),
		}
	}
	return &CompanyDayResponse{
		CompanyID:     d.CompanyID.String(),
		Date:          d.Day.Format(DateLayout),
		TotalQuantity: d.TotalQuantity,
		TotalPrice:    d.TotalPrice,
		Centers:       centers,
	}
}

// --- Correction ---

// CorrectionLineRequest is one desired closing line for a center.
type CorrectionLineRequest struct {
	ProductName string         `json:"productName" binding:"required"`
	Quality     string         `json:"quality" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
}

// CenterCorrectionRequest carries corrected lines for one center.
type CenterCorrectionRequest struct {
	CenterID string                  `json:"centerId" binding:"required,uuid"`
	Lines    []CorrectionLineRequest `json:"lines" binding:"required"`
}

// CorrectionRequest is the body of a company-wide inventory correction.
type CorrectionRequest struct {
	Centers []CenterCorrectionRequest `json:"centers" binding:"required"`
}

// ToCorrection converts to the domain request. Date, editor and contract
// come from the route, the authenticated principal and the query string.
func (r *CorrectionRequest) ToCorrection(day time.Time, editorID string, contractID *id.ID) (inventory.CorrectionRequest, error) {
	req := inventory.CorrectionRequest{
		Date:       day,
		EditorID:   editorID,
		ContractID: contractID,
		Centers:    make([]inventory.CenterCorrection, 0, len(r.Centers)),
	}
	for _, c := range r.Centers {
		centerID, err := ParseID("centerId", c.CenterID)
		if err != nil {
			return inventory.CorrectionRequest{}, err
		}
		lines := make([]inventory.CorrectionLine, 0, len(c.Lines))
		for _, l := range c.Lines {
			lines = append(lines, inventory.CorrectionLine{
				ProductName: l.ProductName,
				Quality:     shipments.Quality(l.Quality),
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
			})
		}
		req.Centers = append(req.Centers, inventory.CenterCorrection{
			CenterID: centerID,
			Lines:    lines,
		})
	}
	return req, nil
}

// CorrectionResponse reports the refreshed company day and the synthesized
// correction shipments.
type CorrectionResponse struct {
	Company     *CompanyDayResponse `json:"company"`
	Synthesized []*ShipmentResponse `json:"synthesized"`
}

// FromCorrectionResult creates response from domain result.
func FromCorrectionResult(res *inventory.CorrectionResult) *CorrectionResponse {
	synthesized := make([]*ShipmentResponse, len(res.Synthesized))
	for i, sh := range res.Synthesized {
		synthesized[i] = FromShipment(sh)
	}
	return &CorrectionResponse{
		Company:     FromCompanyDay(res.Company),
		Synthesized: synthesized,
	}
}
