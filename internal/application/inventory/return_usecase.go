package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/vendstock-api/internal/application/idgen"
	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// OpReturnApprove nombre de operación para métricas de aprobación de devoluciones.
const OpReturnApprove = "return_approve"

// ReturnUseCase administra devoluciones contra un lote.
type ReturnUseCase struct {
	engine *StockEngine
	ids    *idgen.Generator
}

// NewReturnUseCase construye el caso de uso de devoluciones.
func NewReturnUseCase(engine *StockEngine, ids *idgen.Generator) *ReturnUseCase {
	if ids == nil {
		ids = idgen.New()
	}
	return &ReturnUseCase{engine: engine, ids: ids}
}

// CreateReturnInput entrada de creación de una devolución.
type CreateReturnInput struct {
	CompanyID   string
	WarehouseID string
	DispatchID  string // opcional
	SKU         string
	BatchID     string
	Quantity    int64
	Reason      string
	CreatedBy   string
}

// Create registra la devolución en estado pending. No toca inventario.
func (uc *ReturnUseCase) Create(ctx context.Context, in CreateReturnInput) (*entity.ReturnOrder, error) {
	if err := requireIDs(in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}
	if in.DispatchID != "" && !isValidID(in.DispatchID) {
		return nil, domain.ErrInvalidIdentifier
	}
	in.SKU = strings.TrimSpace(in.SKU)
	in.BatchID = strings.TrimSpace(in.BatchID)
	if in.SKU == "" || in.BatchID == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.engine.checkWarehouse(ctx, in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}

	now := uc.engine.now()
	var out *entity.ReturnOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		if in.DispatchID != "" {
			d, err := repos.Dispatches.GetByID(ctx, in.CompanyID, in.DispatchID)
			if err != nil {
				return err
			}
			if d == nil {
				return domain.ErrNotFound
			}
		}
		code, err := uc.ids.Next(ctx, idgen.PrefixReturn, func(ctx context.Context, code string) (bool, error) {
			return repos.Returns.CodeExists(ctx, in.CompanyID, code)
		})
		if err != nil {
			return err
		}
		o := &entity.ReturnOrder{
			ID:          uuid.New().String(),
			Code:        code,
			CompanyID:   in.CompanyID,
			WarehouseID: in.WarehouseID,
			DispatchID:  in.DispatchID,
			SKU:         in.SKU,
			BatchID:     in.BatchID,
			Quantity:    in.Quantity,
			Reason:      in.Reason,
			Status:      entity.ReturnStatusPending,
			CreatedBy:   in.CreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Returns.Create(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve aprueba la devolución y descuenta la cantidad aprobada del lote indicado.
// approvedQty nil = cantidad declarada. Si el lote tiene menos de lo aprobado se descuenta
// lo que haya y el faltante queda en Shortfall para que el caller lo registre.
func (uc *ReturnUseCase) Approve(ctx context.Context, companyID, id string, approvedQty *int64, reviewedBy string) (out *entity.ReturnOrder, err error) {
	defer func() { uc.engine.observe(OpReturnApprove, err) }()

	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	if approvedQty != nil && *approvedQty <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := uc.engine.now()
	err = uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		o, err := repos.Returns.GetByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if !o.IsPending() {
			return domain.ErrInvalidTransition
		}
		qty := o.Quantity
		if approvedQty != nil {
			if *approvedQty > o.Quantity {
				return domain.ErrInvalidInput
			}
			qty = *approvedQty
		}

		rec, err := repos.Records.FindByKey(ctx, companyID, o.SKU, o.BatchID, o.WarehouseID)
		if err != nil {
			return err
		}
		if rec != nil {
			if rec, err = repos.Records.GetByIDForUpdate(ctx, companyID, rec.ID); err != nil {
				return err
			}
		}
		var onHand int64
		if rec != nil && !rec.IsArchived {
			onHand = rec.Quantity
		}
		shortfall := CheckReturnCoverage(onHand, qty)
		if take := qty - shortfall; take > 0 {
			updated, err := repos.Records.DecrementQuantity(ctx, companyID, rec.ID, take)
			if err != nil {
				return err
			}
			if updated == nil {
				return &domain.InsufficientStockError{SKU: o.SKU, Available: onHand, Requested: take}
			}
			if err := uc.engine.refreshStatus(ctx, repos.Records, updated, now); err != nil {
				return err
			}
			if err := repos.Movements.Create(ctx, newMovement(updated, entity.MovementTypeReturn, -take, o.Code, reviewedBy, now)); err != nil {
				return err
			}
		}

		o.Status = entity.ReturnStatusApproved
		o.ApprovedQuantity = qty
		o.Shortfall = shortfall
		o.ReviewedBy = reviewedBy
		o.ReviewedAt = timePtr(now)
		o.UpdatedAt = now
		if err := repos.Returns.UpdateReview(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.engine.notify(ctx, companyID)
	return out, nil
}

// Reject rechaza la devolución; el inventario no cambia.
func (uc *ReturnUseCase) Reject(ctx context.Context, companyID, id, reviewedBy string) (*entity.ReturnOrder, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	now := uc.engine.now()
	var out *entity.ReturnOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		o, err := repos.Returns.GetByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if !o.IsPending() {
			return domain.ErrInvalidTransition
		}
		o.Status = entity.ReturnStatusRejected
		o.ReviewedBy = reviewedBy
		o.ReviewedAt = timePtr(now)
		o.UpdatedAt = now
		if err := repos.Returns.UpdateReview(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get obtiene una devolución de la empresa.
func (uc *ReturnUseCase) Get(ctx context.Context, companyID, id string) (*entity.ReturnOrder, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	var out *entity.ReturnOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		o, err := repos.Returns.GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		out = o
		return nil
	})
	return out, err
}

// List lista devoluciones con filtros.
func (uc *ReturnUseCase) List(ctx context.Context, f repository.ReturnFilter) ([]*entity.ReturnOrder, error) {
	if !isValidID(f.CompanyID) {
		return nil, domain.ErrInvalidIdentifier
	}
	var out []*entity.ReturnOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		list, err := repos.Returns.List(ctx, f)
		out = list
		return err
	})
	return out, err
}
