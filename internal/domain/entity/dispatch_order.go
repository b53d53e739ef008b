package entity

import "time"

// Estados de un despacho.
const (
	DispatchStatusPending   = "pending"
	DispatchStatusAssigned  = "assigned"
	DispatchStatusInTransit = "in_transit"
	DispatchStatusDelivered = "delivered"
	DispatchStatusCancelled = "cancelled"
)

var dispatchTransitions = map[string][]string{
	DispatchStatusPending:   {DispatchStatusAssigned, DispatchStatusCancelled},
	DispatchStatusAssigned:  {DispatchStatusInTransit, DispatchStatusCancelled},
	DispatchStatusInTransit: {DispatchStatusDelivered, DispatchStatusCancelled},
}

// DispatchItem línea solicitada de un despacho.
type DispatchItem struct {
	SKU      string
	Quantity int64
}

// DispatchAllocation cantidad tomada de un registro (lote) concreto.
type DispatchAllocation struct {
	RecordID string
	SKU      string
	BatchID  string
	Quantity int64
}

// DispatchOrder salida de stock de una bodega hacia un destino (máquina/ruta), asignada a un agente.
type DispatchOrder struct {
	ID          string
	Code        string // ej. DSP-3F2A9C1B
	CompanyID   string
	WarehouseID string
	Destination string
	AgentID     string
	Items       []DispatchItem
	Allocations []DispatchAllocation
	Status      string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// IsTerminal indica si el despacho ya no admite transiciones.
func (d *DispatchOrder) IsTerminal() bool {
	return d.Status == DispatchStatusDelivered || d.Status == DispatchStatusCancelled
}

// CanTransition valida la máquina de estados pending → assigned → in_transit → delivered,
// o → cancelled desde cualquier estado no terminal.
func (d *DispatchOrder) CanTransition(to string) bool {
	for _, next := range dispatchTransitions[d.Status] {
		if next == to {
			return true
		}
	}
	return false
}
