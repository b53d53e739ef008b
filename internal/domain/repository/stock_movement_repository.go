package repository

import (
	"context"
	"time"

	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

// MovementFilter filtros para el historial de movimientos.
type MovementFilter struct {
	CompanyID   string
	WarehouseID string
	SKU         string
	Type        string
	From, To    *time.Time
}

// StockMovementRepository puerto de persistencia del libro de movimientos de stock.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, f MovementFilter) ([]*entity.StockMovement, error)
}
