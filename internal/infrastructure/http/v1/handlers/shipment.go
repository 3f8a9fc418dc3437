package handlers

import (
	"github.com/gin-gonic/gin"

	"agrichain/internal/domain/shipments"
	"agrichain/internal/infrastructure/http/v1/dto"
)

// ShipmentHandler serves the shipment log API.
type ShipmentHandler struct {
	*BaseHandler
	service *shipments.Service
}

// NewShipmentHandler creates a new shipment handler.
func NewShipmentHandler(base *BaseHandler, service *shipments.Service) *ShipmentHandler {
	return &ShipmentHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /companies/:companyId/shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.ListShipmentsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	list, err := h.service.ListByCompany(ctx, companyID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ShipmentResponse, len(list))
	for i, sh := range list {
		items[i] = dto.FromShipment(sh)
	}
	h.OK(c, dto.ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Get handles GET /companies/:companyId/shipments/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	shipmentID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	sh, err := h.service.GetByID(ctx, companyID, shipmentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromShipment(sh))
}

// Create handles POST /companies/:companyId/shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("companyId", c.Param("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sh, err := req.ToShipment(companyID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Record(ctx, sh); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, sh.ID.String())
}
