package repository

import (
	"context"
	"time"

	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

// DispatchFilter filtros de listado de despachos.
type DispatchFilter struct {
	CompanyID   string
	WarehouseID string
	Status      string
	AgentID     string
	From, To    *time.Time
}

// DispatchRepository puerto de persistencia de DispatchOrder.
type DispatchRepository interface {
	Create(ctx context.Context, order *entity.DispatchOrder) error
	GetByID(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error)
	GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error)
	// UpdateState persiste status, agente y marcas de tiempo.
	UpdateState(ctx context.Context, order *entity.DispatchOrder) error
	CodeExists(ctx context.Context, companyID, code string) (bool, error)
	List(ctx context.Context, f DispatchFilter) ([]*entity.DispatchOrder, error)
}
