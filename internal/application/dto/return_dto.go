package dto

import "time"

// CreateReturnRequest body para POST /api/returns.
type CreateReturnRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	DispatchID  string `json:"dispatch_id,omitempty" validate:"omitempty,uuid"`
	SKU         string `json:"sku" validate:"required,max=64"`
	BatchID     string `json:"batch_id" validate:"required,max=64"`
	Quantity    int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
	Reason      string `json:"reason" validate:"max=500"`
}

// ApproveReturnRequest body opcional para aprobar; sin approved_quantity se aprueba lo declarado.
type ApproveReturnRequest struct {
	ApprovedQuantity *int64 `json:"approved_quantity,omitempty" validate:"omitempty,gt=0,lte=1000000000"`
}

// ReturnResponse salida de una devolución.
type ReturnResponse struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	WarehouseID      string     `json:"warehouse_id"`
	DispatchID       string     `json:"dispatch_id,omitempty"`
	SKU              string     `json:"sku"`
	BatchID          string     `json:"batch_id"`
	Quantity         int64      `json:"quantity"`
	ApprovedQuantity int64      `json:"approved_quantity"`
	Shortfall        int64      `json:"shortfall"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	CreatedBy        string     `json:"created_by"`
	ReviewedBy       string     `json:"reviewed_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
}
