// Package inventory contiene las reglas puras del inventario (servicios de dominio).
package inventory

import (
	"time"

	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

// Classify calcula el estado canónico de un lote. Función pura: sin I/O ni estado oculto.
//
// Precedencia (gana la primera regla que aplica):
//  1. expiryDate definido y anterior a now  → expired
//  2. quantity <= minStockLevel             → low_stock
//  3. quantity >= 0.9 * maxStockLevel       → overstock
//  4. en otro caso                          → active
//
// quarantine y archived nunca salen de aquí; ver DeriveStatus.
func Classify(quantity, minStockLevel, maxStockLevel int64, expiryDate *time.Time, now time.Time) string {
	if expiryDate != nil && expiryDate.Before(now) {
		return entity.StatusExpired
	}
	if quantity <= minStockLevel {
		return entity.StatusLowStock
	}
	// quantity >= 0.9*max sin pasar por float
	if quantity*10 >= maxStockLevel*9 {
		return entity.StatusOverstock
	}
	return entity.StatusActive
}

// DeriveStatus devuelve el estado que debe persistirse para el registro:
// archived si está archivado, el estado fijado si StatusPinned, si no Classify.
func DeriveStatus(r *entity.InventoryRecord, now time.Time) string {
	if r.IsArchived {
		return entity.StatusArchived
	}
	if r.StatusPinned && r.Status != "" {
		return r.Status
	}
	return Classify(r.Quantity, r.MinStockLevel, r.MaxStockLevel, r.ExpiryDate, now)
}

// ValidateThresholds verifica max > min y que ninguno sea negativo.
func ValidateThresholds(minStockLevel, maxStockLevel int64) error {
	if minStockLevel < 0 {
		return invariant("min_stock_level", "no puede ser negativo")
	}
	if maxStockLevel <= minStockLevel {
		return invariant("max_stock_level", "debe ser mayor que min_stock_level")
	}
	return nil
}
