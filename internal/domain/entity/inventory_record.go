package entity

import "time"

// Estados posibles de un registro de inventario.
const (
	StatusActive     = "active"
	StatusLowStock   = "low_stock"
	StatusOverstock  = "overstock"
	StatusExpired    = "expired"
	StatusQuarantine = "quarantine"
	StatusArchived   = "archived"
)

// Umbrales por defecto al crear un registro en la primera recepción.
const (
	DefaultMinStockLevel int64 = 0
	DefaultMaxStockLevel int64 = 1000
)

// Location ubicación física dentro de la bodega.
type Location struct {
	Zone  string `json:"zone"`
	Aisle string `json:"aisle"`
	Rack  string `json:"rack"`
	Bin   string `json:"bin"`
}

// InventoryRecord representa el stock de un lote (SKU + batch) en una bodega.
// La clave única es (CompanyID, SKU, BatchID, WarehouseID).
type InventoryRecord struct {
	ID            string
	CompanyID     string
	SKU           string
	ProductName   string
	Category      string
	BatchID       string
	WarehouseID   string
	Quantity      int64 // nunca negativo
	MinStockLevel int64
	MaxStockLevel int64 // siempre > MinStockLevel
	Age           int   // días desde CreatedAt, recalculado en cada edición
	ExpiryDate    *time.Time
	Location      Location
	Status        string
	StatusPinned  bool // true cuando Status fue fijado por una acción externa (ej. cuarentena QC)
	IsArchived    bool
	ArchivedAt    *time.Time
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AgeAt devuelve la edad del registro en días completos respecto a now.
func (r *InventoryRecord) AgeAt(now time.Time) int {
	if r.CreatedAt.IsZero() || now.Before(r.CreatedAt) {
		return 0
	}
	return int(now.Sub(r.CreatedAt) / (24 * time.Hour))
}

// Clone copia profunda (fechas opcionales incluidas).
func (r *InventoryRecord) Clone() *InventoryRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ExpiryDate != nil {
		t := *r.ExpiryDate
		c.ExpiryDate = &t
	}
	if r.ArchivedAt != nil {
		t := *r.ArchivedAt
		c.ArchivedAt = &t
	}
	return &c
}
