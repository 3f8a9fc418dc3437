package dto

import (
	"time"

	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/shipments"
)

// --- Requests ---

// ShipmentItemRequest is one product line of a shipment.
type ShipmentItemRequest struct {
	ProductName string         `json:"productName" binding:"required"`
	Quality     string         `json:"quality" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
}

// CreateShipmentRequest records a goods movement event.
type CreateShipmentRequest struct {
	Title        string                `json:"title"`
	Kind         string                `json:"kind" binding:"required"`
	SourceCenter string                `json:"sourceCenterId" binding:"required,uuid"`
	DestCompany  *string               `json:"destCompanyId,omitempty"`
	DestCenter   *string               `json:"destCenterId,omitempty"`
	ContractID   *string               `json:"contractId,omitempty"`
	ShippedAt    time.Time             `json:"shippedAt" binding:"required"`
	Items        []ShipmentItemRequest `json:"items" binding:"required"`
}

// ToShipment converts to a domain shipment owned by the given company.
func (r *CreateShipmentRequest) ToShipment(companyID id.ID, creatorID string) (*shipments.Shipment, error) {
	sourceCenterID, err := ParseID("sourceCenterId", r.SourceCenter)
	if err != nil {
		return nil, err
	}

	sh := shipments.New(companyID, sourceCenterID, shipments.Kind(r.Kind), r.ShippedAt)
	sh.Title = r.Title
	sh.CreatorID = creatorID

	if r.DestCompany != nil {
		destCompanyID, err := ParseID("destCompanyId", *r.DestCompany)
		if err != nil {
			return nil, err
		}
		sh.DestCompanyID = &destCompanyID
	}
	if r.DestCenter != nil {
		destCenterID, err := ParseID("destCenterId", *r.DestCenter)
		if err != nil {
			return nil, err
		}
		sh.DestCenterID = &destCenterID
	}
	if r.ContractID != nil {
		contractID, err := ParseID("contractId", *r.ContractID)
		if err != nil {
			return nil, err
		}
		sh.ContractID = &contractID
	}

	for _, item := range r.Items {
		sh.AddItem(item.ProductName, shipments.Quality(item.Quality), item.Quantity, item.UnitPrice)
	}
	return sh, nil
}

// ListShipmentsRequest narrows the shipment log listing.
type ListShipmentsRequest struct {
	CenterID *string    `form:"centerId"`
	Status   *string    `form:"status"`
	Kind     *string    `form:"kind"`
	FromDate *time.Time `form:"from" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to" time_format:"2006-01-02"`
	Limit    int        `form:"limit,default=50" binding:"min=1,max=500"`
	Offset   int        `form:"offset" binding:"min=0"`
}

// ToFilter converts to the domain list filter.
func (r *ListShipmentsRequest) ToFilter() (shipments.ListFilter, error) {
	filter := shipments.ListFilter{
		FromDate: r.FromDate,
		ToDate:   r.ToDate,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
	if r.CenterID != nil {
		centerID, err := ParseID("centerId", *r.CenterID)
		if err != nil {
			return shipments.ListFilter{}, err
		}
		filter.CenterID = &centerID
	}
	if r.Status != nil {
		status := shipments.Status(*r.Status)
		filter.Status = &status
	}
	if r.Kind != nil {
		kind := shipments.Kind(*r.Kind)
		filter.Kind = &kind
	}
	return filter, nil
}

// --- Responses ---

// ShipmentItemResponse is one product line in API responses.
type ShipmentItemResponse struct {
	ProductName string         `json:"productName"`
	Quality     string         `json:"quality"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	TotalPrice  types.Money    `json:"totalPrice"`
}

// ShipmentResponse represents a shipment in API responses.
type ShipmentResponse struct {
	ID            string                 `json:"id"`
	Number        string                 `json:"number"`
	Title         string                 `json:"title,omitempty"`
	Kind          string                 `json:"kind"`
	Status        string                 `json:"status"`
	Synthesized   bool                   `json:"synthesized"`
	CreatorID     string                 `json:"creatorId,omitempty"`
	ContractID    *string                `json:"contractId,omitempty"`
	SourceCompany string                 `json:"sourceCompanyId"`
	SourceCenter  string                 `json:"sourceCenterId"`
	DestCompany   *string                `json:"destCompanyId,omitempty"`
	DestCenter    *string                `json:"destCenterId,omitempty"`
	ShippedAt     time.Time              `json:"shippedAt"`
	TotalPrice    types.Money            `json:"totalPrice"`
	Items         []ShipmentItemResponse `json:"items"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// FromShipment creates response from domain shipment.
func FromShipment(sh *shipments.Shipment) *ShipmentResponse {
	items := make([]ShipmentItemResponse, len(sh.Items))
	for i, item := range sh.Items {
		items[i] = ShipmentItemResponse{
			ProductName: item.ProductName,
			Quality:     string(item.Quality),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}

	resp := &ShipmentResponse{
		ID:            sh.ID.String(),
		Number:        sh.Number,
		Title:         sh.Title,
		Kind:          string(sh.Kind),
		Status:        string(sh.Status),
		Synthesized:   sh.Synthesized,
		CreatorID:     sh.CreatorID,
		SourceCompany: sh.SourceCompanyID.String(),
		SourceCenter:  sh.SourceCenterID.String(),
		ShippedAt:     sh.ShippedAt,
		TotalPrice:    sh.TotalPrice(),
		Items:         items,
		CreatedAt:     sh.CreatedAt,
	}
	if sh.ContractID != nil {
		v := sh.ContractID.String()
		resp.ContractID = &v
	}
	if sh.DestCompanyID != nil {
		v := sh.DestCompanyID.String()
		resp.DestCompany = &v
	}
	if sh.DestCenterID != nil {
		v := sh.DestCenterID.String()
		resp.DestCenter = &v
	}
	return resp
}
