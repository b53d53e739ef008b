package entity

import "time"

// Warehouse representa una bodega donde se almacena el inventario de máquinas vending.
type Warehouse struct {
	ID        string
	CompanyID string
	Code      string // código corto único por empresa (ej. "BOG-01")
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
