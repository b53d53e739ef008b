package repository

import (
	"context"

	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

// ReturnFilter filtros de listado de devoluciones.
type ReturnFilter struct {
	CompanyID   string
	WarehouseID string
	Status      string
}

// ReturnRepository puerto de persistencia de ReturnOrder.
type ReturnRepository interface {
	Create(ctx context.Context, order *entity.ReturnOrder) error
	GetByID(ctx context.Context, companyID, id string) (*entity.ReturnOrder, error)
	GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.ReturnOrder, error)
	// UpdateReview persiste el resultado de la revisión (status, cantidades, revisor).
	UpdateReview(ctx context.Context, order *entity.ReturnOrder) error
	CodeExists(ctx context.Context, companyID, code string) (bool, error)
	List(ctx context.Context, f ReturnFilter) ([]*entity.ReturnOrder, error)
}
