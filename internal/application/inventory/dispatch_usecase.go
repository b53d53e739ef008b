package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/vendstock-api/internal/application/idgen"
	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// OpDispatch nombre de operación para métricas de creación de despachos.
const OpDispatch = "dispatch_create"

// DispatchUseCase administra órdenes de despacho. La creación valida y descuenta stock
// en la misma transacción en que se persiste la orden.
type DispatchUseCase struct {
	engine *StockEngine
	ids    *idgen.Generator
}

// NewDispatchUseCase construye el caso de uso de despachos.
func NewDispatchUseCase(engine *StockEngine, ids *idgen.Generator) *DispatchUseCase {
	if ids == nil {
		ids = idgen.New()
	}
	return &DispatchUseCase{engine: engine, ids: ids}
}

// CreateDispatchInput entrada de creación de un despacho.
type CreateDispatchInput struct {
	CompanyID   string
	WarehouseID string
	Destination string
	AgentID     string // opcional; si viene, la orden nace en assigned
	Items       []StockItem
	CreatedBy   string
}

// Create genera el código, valida suficiencia de todos los ítems y descuenta stock.
// Si cualquier ítem no alcanza, no se crea la orden ni cambia ninguna cantidad.
func (uc *DispatchUseCase) Create(ctx context.Context, in CreateDispatchInput) (order *entity.DispatchOrder, err error) {
	defer func() { uc.engine.observe(OpDispatch, err) }()

	if err := requireIDs(in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}
	if in.AgentID != "" && !isValidID(in.AgentID) {
		return nil, domain.ErrInvalidIdentifier
	}
	if strings.TrimSpace(in.Destination) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.engine.checkWarehouse(ctx, in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}

	now := uc.engine.now()
	err = uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		code, err := uc.ids.Next(ctx, idgen.PrefixDispatch, func(ctx context.Context, code string) (bool, error) {
			return repos.Dispatches.CodeExists(ctx, in.CompanyID, code)
		})
		if err != nil {
			return err
		}

		allocations, err := uc.engine.reduceInTx(ctx, repos, ReduceInput{
			CompanyID:   in.CompanyID,
			WarehouseID: in.WarehouseID,
			Items:       in.Items,
			Reference:   code,
			CreatedBy:   in.CreatedBy,
		})
		if err != nil {
			return err
		}

		status := entity.DispatchStatusPending
		if in.AgentID != "" {
			status = entity.DispatchStatusAssigned
		}
		items, _ := normalizeItems(in.Items)
		o := &entity.DispatchOrder{
			ID:          uuid.New().String(),
			Code:        code,
			CompanyID:   in.CompanyID,
			WarehouseID: in.WarehouseID,
			Destination: strings.TrimSpace(in.Destination),
			AgentID:     in.AgentID,
			Items:       toDispatchItems(items),
			Allocations: allocations,
			Status:      status,
			CreatedBy:   in.CreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Dispatches.Create(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.engine.notify(ctx, in.CompanyID)
	return order, nil
}

// Assign asigna un agente a un despacho pendiente (pending → assigned).
func (uc *DispatchUseCase) Assign(ctx context.Context, companyID, id, agentID string) (*entity.DispatchOrder, error) {
	if err := requireIDs(companyID, id, agentID); err != nil {
		return nil, err
	}
	return uc.transition(ctx, companyID, id, entity.DispatchStatusAssigned, func(o *entity.DispatchOrder) {
		o.AgentID = agentID
	})
}

// Advance mueve el despacho al siguiente estado del flujo: assigned → in_transit → delivered.
func (uc *DispatchUseCase) Advance(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	var next string
	return uc.transitionFn(ctx, companyID, id, func(o *entity.DispatchOrder) (string, error) {
		switch o.Status {
		case entity.DispatchStatusAssigned:
			next = entity.DispatchStatusInTransit
		case entity.DispatchStatusInTransit:
			next = entity.DispatchStatusDelivered
		default:
			return "", domain.ErrInvalidTransition
		}
		return next, nil
	}, nil)
}

// Cancel cancela desde cualquier estado no terminal. El stock ya descontado no se restituye:
// la mercancía que vuelve entra por una devolución o una recepción.
func (uc *DispatchUseCase) Cancel(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	return uc.transition(ctx, companyID, id, entity.DispatchStatusCancelled, nil)
}

// Get obtiene un despacho de la empresa.
func (uc *DispatchUseCase) Get(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	var out *entity.DispatchOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		o, err := repos.Dispatches.GetByID(ctx, companyID, id)
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

// List lista despachos con filtros.
func (uc *DispatchUseCase) List(ctx context.Context, f repository.DispatchFilter) ([]*entity.DispatchOrder, error) {
	if !isValidID(f.CompanyID) {
		return nil, domain.ErrInvalidIdentifier
	}
	var out []*entity.DispatchOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		list, err := repos.Dispatches.List(ctx, f)
		out = list
		return err
	})
	return out, err
}

func (uc *DispatchUseCase) transition(ctx context.Context, companyID, id, to string, apply func(*entity.DispatchOrder)) (*entity.DispatchOrder, error) {
	return uc.transitionFn(ctx, companyID, id, func(*entity.DispatchOrder) (string, error) { return to, nil }, apply)
}

func (uc *DispatchUseCase) transitionFn(
	ctx context.Context,
	companyID, id string,
	target func(*entity.DispatchOrder) (string, error),
	apply func(*entity.DispatchOrder),
) (*entity.DispatchOrder, error) {
	now := uc.engine.now()
	var out *entity.DispatchOrder
	err := uc.engine.tx.Run(ctx, func(repos TxRepos) error {
		o, err := repos.Dispatches.GetByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		to, err := target(o)
		if err != nil {
			return err
		}
		if !o.CanTransition(to) {
			return domain.ErrInvalidTransition
		}
		if apply != nil {
			apply(o)
		}
		o.Status = to
		o.UpdatedAt = now
		switch to {
		case entity.DispatchStatusDelivered:
			o.DeliveredAt = timePtr(now)
		case entity.DispatchStatusCancelled:
			o.CancelledAt = timePtr(now)
		}
		if err := repos.Dispatches.UpdateState(ctx, o); err != nil {
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

func toDispatchItems(items []StockItem) []entity.DispatchItem {
	out := make([]entity.DispatchItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.DispatchItem{SKU: it.SKU, Quantity: it.Quantity})
	}
	return out
}

func timePtr(t time.Time) *time.Time { return &t }
