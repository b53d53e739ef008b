package inventory

import (
	"context"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// Get devuelve un registro de inventario de la empresa.
func (e *StockEngine) Get(ctx context.Context, companyID, id string) (*entity.InventoryRecord, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	var out *entity.InventoryRecord
	err := e.tx.Run(ctx, func(repos TxRepos) error {
		rec, err := repos.Records.GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		out = rec
		return nil
	})
	return out, err
}

// List lista registros; sin IncludeArchived sólo devuelve los activos (vista de tablero).
func (e *StockEngine) List(ctx context.Context, f repository.RecordFilter) ([]*entity.InventoryRecord, error) {
	if !isValidID(f.CompanyID) {
		return nil, domain.ErrInvalidIdentifier
	}
	if f.WarehouseID != "" && !isValidID(f.WarehouseID) {
		return nil, domain.ErrInvalidIdentifier
	}
	var out []*entity.InventoryRecord
	err := e.tx.Run(ctx, func(repos TxRepos) error {
		list, err := repos.Records.List(ctx, f)
		out = list
		return err
	})
	return out, err
}

// Movements devuelve el historial de movimientos de stock.
func (e *StockEngine) Movements(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	if !isValidID(f.CompanyID) {
		return nil, domain.ErrInvalidIdentifier
	}
	if f.WarehouseID != "" && !isValidID(f.WarehouseID) {
		return nil, domain.ErrInvalidIdentifier
	}
	var out []*entity.StockMovement
	err := e.tx.Run(ctx, func(repos TxRepos) error {
		list, err := repos.Movements.List(ctx, f)
		out = list
		return err
	})
	return out, err
}
