package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/domain/inventory"
	"agrichain/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler serves the daily inventory snapshot API.
type SnapshotHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, service *inventory.Service) *SnapshotHandler {
	return &SnapshotHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetCenterSnapshot handles
// GET /companies/:companyId/centers/:centerId/snapshots/:date
//
// Reading a snapshot materializes it: missing days are reconstructed from
// the shipment log and cached before being returned.
func (h *SnapshotHandler) GetCenterSnapshot(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, centerID, day, ok := h.centerDayParams(c)
	if !ok {
		return
	}

	snap, err := h.service.Ensure(ctx, companyID, centerID, day)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSnapshot(snap))
}

// Finalize handles
// POST /companies/:companyId/centers/:centerId/snapshots/:date/finalize
func (h *SnapshotHandler) Finalize(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, centerID, day, ok := h.centerDayParams(c)
	if !ok {
		return
	}

	snap, err := h.service.Finalize(ctx, companyID, centerID, day)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSnapshot(snap))
}

// GetCompanyDay handles GET /companies/:companyId/snapshots/:date
func (h *SnapshotHandler) GetCompanyDay(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	day, err := dto.ParseDate(c.Param("date"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.CompanyDay(ctx, companyID, day)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCompanyDay(result))
}

// GetCompanyRange handles GET /companies/:companyId/snapshots?from=&to=
func (h *SnapshotHandler) GetCompanyRange(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	from, err := dto.ParseDate(c.Query("from"))
	if err != nil {
		h.Error(c, err)
		return
	}
	to, err := dto.ParseDate(c.Query("to"))
	if err != nil {
		h.Error(c, err)
		return
	}

	days, err := h.service.CompanyRange(ctx, companyID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.CompanyDayResponse, len(days))
	for i, d := range days {
		items[i] = dto.FromCompanyDay(d)
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

// Correct handles PUT /companies/:companyId/snapshots/:date?contractId=
//
// The body carries the desired closing lines per center. The engine
// overwrites the stored day, synthesizes compensating correction shipments
// and cascades into already cached future days.
func (h *SnapshotHandler) Correct(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	day, err := dto.ParseDate(c.Param("date"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var contractID *id.ID
	if raw := c.Query("contractId"); raw != "" {
		parsed, err := dto.ParseID("contractId", raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		contractID = &parsed
	}

	var body dto.CorrectionRequest
	if !h.BindJSON(c, &body) {
		return
	}

	editorID := h.GetUserID(c)
	if editorID == "" {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	req, err := body.ToCorrection(day, editorID, contractID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Correct(ctx, companyID, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCorrectionResult(result))
}

func (h *SnapshotHandler) centerDayParams(c *gin.Context) (companyID, centerID id.ID, day time.Time, ok bool) {
	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	centerID, err = dto.ParseID("centerId", c.Param("centerId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	day, err = dto.ParseDate(c.Param("date"))
	if err != nil {
		h.Error(c, err)
		return
	}
	return companyID, centerID, day, true
}
