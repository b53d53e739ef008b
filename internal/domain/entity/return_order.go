package entity

import "time"

// Estados de una devolución.
const (
	ReturnStatusPending  = "pending"
	ReturnStatusApproved = "approved"
	ReturnStatusRejected = "rejected"
)

// ReturnOrder mercancía que vuelve contra un lote. Al aprobarse, la cantidad
// aprobada sale del stock "bueno" del lote hacia procesamiento de devoluciones.
type ReturnOrder struct {
	ID               string
	Code             string // ej. RET-8C1D02AF
	CompanyID        string
	WarehouseID      string
	DispatchID       string // opcional
	SKU              string
	BatchID          string
	Quantity         int64 // cantidad declarada
	ApprovedQuantity int64
	Shortfall        int64 // declarada/aprobada menos lo que había en mano al aprobar
	Reason           string
	Status           string
	CreatedBy        string
	ReviewedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ReviewedAt       *time.Time
}

// IsPending indica si la devolución aún puede revisarse.
func (r *ReturnOrder) IsPending() bool {
	return r.Status == ReturnStatusPending
}
