package dto

import "time"

// LocationDTO ubicación física dentro de la bodega.
type LocationDTO struct {
	Zone  string `json:"zone" validate:"max=64"`
	Aisle string `json:"aisle" validate:"max=64"`
	Rack  string `json:"rack" validate:"max=64"`
	Bin   string `json:"bin" validate:"max=64"`
}

// ReceiveStockRequest body para POST /api/inventory/receive.
type ReceiveStockRequest struct {
	SKU           string      `json:"sku" validate:"required,max=64"`
	ProductName   string      `json:"product_name" validate:"required,max=255"`
	Category      string      `json:"category" validate:"max=128"`
	BatchID       string      `json:"batch_id" validate:"required,max=64"`
	WarehouseID   string      `json:"warehouse_id" validate:"required,uuid"`
	Quantity      int64       `json:"quantity" validate:"gt=0,lte=1000000000"`
	Location      LocationDTO `json:"location"`
	MinStockLevel *int64      `json:"min_stock_level,omitempty" validate:"omitempty,min=0"`
	MaxStockLevel *int64      `json:"max_stock_level,omitempty" validate:"omitempty,gt=0"`
	ExpiryDate    *time.Time  `json:"expiry_date,omitempty"`
}

// EditRecordRequest body para PATCH /api/inventory/:id. Campos ausentes no cambian.
type EditRecordRequest struct {
	SKU           *string      `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	ProductName   *string      `json:"product_name,omitempty" validate:"omitempty,min=1,max=255"`
	BatchID       *string      `json:"batch_id,omitempty" validate:"omitempty,min=1,max=64"`
	Quantity      *int64       `json:"quantity,omitempty"`
	MinStockLevel *int64       `json:"min_stock_level,omitempty"`
	MaxStockLevel *int64       `json:"max_stock_level,omitempty"`
	ExpiryDate    *time.Time   `json:"expiry_date,omitempty"`
	ClearExpiry   bool         `json:"clear_expiry,omitempty"`
	Location      *LocationDTO `json:"location,omitempty"`
}

// BulkIDsRequest body para archivar/desarchivar en lote.
type BulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500"`
}

// StockItemDTO línea SKU + cantidad.
type StockItemDTO struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Quantity int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
}

// ValidateStockRequest body para POST /api/inventory/validate (sin efectos).
type ValidateStockRequest struct {
	WarehouseID string         `json:"warehouse_id" validate:"required,uuid"`
	Items       []StockItemDTO `json:"items" validate:"required,min=1,dive"`
}

// ValidateStockResponse resultado de la verificación de suficiencia.
type ValidateStockResponse struct {
	Sufficient bool   `json:"sufficient"`
	SKU        string `json:"sku,omitempty"`
	Available  int64  `json:"available,omitempty"`
	Requested  int64  `json:"requested,omitempty"`
}

// InventoryRecordResponse salida de un registro de inventario.
type InventoryRecordResponse struct {
	ID            string      `json:"id"`
	SKU           string      `json:"sku"`
	ProductName   string      `json:"product_name"`
	Category      string      `json:"category"`
	BatchID       string      `json:"batch_id"`
	WarehouseID   string      `json:"warehouse_id"`
	Quantity      int64       `json:"quantity"`
	MinStockLevel int64       `json:"min_stock_level"`
	MaxStockLevel int64       `json:"max_stock_level"`
	Age           int         `json:"age"`
	ExpiryDate    *time.Time  `json:"expiry_date,omitempty"`
	Location      LocationDTO `json:"location"`
	Status        string      `json:"status"`
	StatusPinned  bool        `json:"status_pinned"`
	IsArchived    bool        `json:"is_archived"`
	ArchivedAt    *time.Time  `json:"archived_at,omitempty"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ReceiveStockResponse registro resultante y si se creó.
type ReceiveStockResponse struct {
	Created bool                    `json:"created"`
	Record  InventoryRecordResponse `json:"record"`
}

// InventoryListResponse lista paginada de registros.
type InventoryListResponse struct {
	Items []InventoryRecordResponse `json:"items"`
	Page  PageResponse              `json:"page"`
}

// StockMovementResponse salida de un movimiento del libro.
type StockMovementResponse struct {
	ID          string    `json:"id"`
	RecordID    string    `json:"record_id"`
	SKU         string    `json:"sku"`
	BatchID     string    `json:"batch_id"`
	WarehouseID string    `json:"warehouse_id"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	Reference   string    `json:"reference,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArchiveRecordResponse resultado de archivar/desarchivar. WasArchived es el estado previo.
type ArchiveRecordResponse struct {
	WasArchived bool                    `json:"was_archived"`
	Record      InventoryRecordResponse `json:"record"`
}

// BulkArchiveResponse resultado best-effort por id.
type BulkArchiveResponse struct {
	SucceededCount int               `json:"succeeded_count"`
	FailedCount    int               `json:"failed_count"`
	FailedIDs      []string          `json:"failed_ids"`
	Failures       map[string]string `json:"failures"`
}
