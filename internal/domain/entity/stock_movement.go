package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeReceive    = "RECEIVE"    // entrada por recepción
	MovementTypeDispatch   = "DISPATCH"   // salida por despacho
	MovementTypeReturn     = "RETURN"     // salida a procesamiento de devolución
	MovementTypeAdjustment = "ADJUSTMENT" // edición manual de cantidad
)

// StockMovement registra cada cambio de cantidad sobre un InventoryRecord.
// Se escribe en la misma transacción que la mutación.
type StockMovement struct {
	ID          string
	CompanyID   string
	RecordID    string
	SKU         string
	BatchID     string
	WarehouseID string
	Type        string
	Quantity    int64  // positivo entrada, negativo salida
	Reference   string // código de despacho, devolución, etc.
	CreatedAt   time.Time
	CreatedBy   string
}
