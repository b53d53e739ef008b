package dto

import "time"

// CreateDispatchRequest body para POST /api/dispatches.
type CreateDispatchRequest struct {
	WarehouseID string         `json:"warehouse_id" validate:"required,uuid"`
	Destination string         `json:"destination" validate:"required,max=255"`
	AgentID     string         `json:"agent_id,omitempty" validate:"omitempty,uuid"`
	Items       []StockItemDTO `json:"items" validate:"required,min=1,dive"`
}

// AssignDispatchRequest body para POST /api/dispatches/:id/assign.
type AssignDispatchRequest struct {
	AgentID string `json:"agent_id" validate:"required,uuid"`
}

// DispatchAllocationDTO cantidad tomada de un lote.
type DispatchAllocationDTO struct {
	RecordID string `json:"record_id"`
	SKU      string `json:"sku"`
	BatchID  string `json:"batch_id"`
	Quantity int64  `json:"quantity"`
}

// DispatchResponse salida de un despacho.
type DispatchResponse struct {
	ID          string                  `json:"id"`
	Code        string                  `json:"code"`
	WarehouseID string                  `json:"warehouse_id"`
	Destination string                  `json:"destination"`
	AgentID     string                  `json:"agent_id,omitempty"`
	Status      string                  `json:"status"`
	Items       []StockItemDTO          `json:"items"`
	Allocations []DispatchAllocationDTO `json:"allocations"`
	CreatedBy   string                  `json:"created_by"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	DeliveredAt *time.Time              `json:"delivered_at,omitempty"`
	CancelledAt *time.Time              `json:"cancelled_at,omitempty"`
}
