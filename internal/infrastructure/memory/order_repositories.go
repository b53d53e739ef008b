package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.DispatchRepository      = (*dispatchRepo)(nil)
	_ repository.ReturnRepository        = (*returnRepo)(nil)
	_ repository.WarehouseRepository     = (*warehouseRepo)(nil)
)

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *m
	r.s.movements = append(r.s.movements, &c)
	return nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockMovement, 0)
	for _, m := range r.s.movements {
		if m.CompanyID != f.CompanyID {
			continue
		}
		if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
			continue
		}
		if f.SKU != "" && m.SKU != f.SKU {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

type dispatchRepo struct{ s *Store }

func (r *dispatchRepo) Create(_ context.Context, o *entity.DispatchOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.dispatches {
		if d.CompanyID == o.CompanyID && d.Code == o.Code {
			return domain.ErrDuplicate
		}
	}
	r.s.dispatches[o.ID] = cloneDispatch(o)
	return nil
}

func (r *dispatchRepo) GetByID(_ context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.dispatches[id]
	if !ok || d.CompanyID != companyID {
		return nil, nil
	}
	return cloneDispatch(d), nil
}

func (r *dispatchRepo) GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *dispatchRepo) UpdateState(_ context.Context, o *entity.DispatchOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.dispatches[o.ID]
	if !ok || d.CompanyID != o.CompanyID {
		return domain.ErrNotFound
	}
	d.Status = o.Status
	d.AgentID = o.AgentID
	d.UpdatedAt = o.UpdatedAt
	d.DeliveredAt = o.DeliveredAt
	d.CancelledAt = o.CancelledAt
	return nil
}

func (r *dispatchRepo) CodeExists(_ context.Context, companyID, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.dispatches {
		if d.CompanyID == companyID && d.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *dispatchRepo) List(_ context.Context, f repository.DispatchFilter) ([]*entity.DispatchOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.DispatchOrder, 0)
	for _, d := range r.s.dispatches {
		if d.CompanyID != f.CompanyID {
			continue
		}
		if f.WarehouseID != "" && d.WarehouseID != f.WarehouseID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.AgentID != "" && d.AgentID != f.AgentID {
			continue
		}
		if f.From != nil && d.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && d.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, cloneDispatch(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type returnRepo struct{ s *Store }

func (r *returnRepo) Create(_ context.Context, o *entity.ReturnOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ret := range r.s.returns {
		if ret.CompanyID == o.CompanyID && ret.Code == o.Code {
			return domain.ErrDuplicate
		}
	}
	r.s.returns[o.ID] = cloneReturn(o)
	return nil
}

func (r *returnRepo) GetByID(_ context.Context, companyID, id string) (*entity.ReturnOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ret, ok := r.s.returns[id]
	if !ok || ret.CompanyID != companyID {
		return nil, nil
	}
	return cloneReturn(ret), nil
}

func (r *returnRepo) GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.ReturnOrder, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *returnRepo) UpdateReview(_ context.Context, o *entity.ReturnOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret, ok := r.s.returns[o.ID]
	if !ok || ret.CompanyID != o.CompanyID {
		return domain.ErrNotFound
	}
	r.s.returns[o.ID] = cloneReturn(o)
	return nil
}

func (r *returnRepo) CodeExists(_ context.Context, companyID, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ret := range r.s.returns {
		if ret.CompanyID == companyID && ret.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *returnRepo) List(_ context.Context, f repository.ReturnFilter) ([]*entity.ReturnOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.ReturnOrder, 0)
	for _, ret := range r.s.returns {
		if ret.CompanyID != f.CompanyID {
			continue
		}
		if f.WarehouseID != "" && ret.WarehouseID != f.WarehouseID {
			continue
		}
		if f.Status != "" && ret.Status != f.Status {
			continue
		}
		out = append(out, cloneReturn(ret))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type warehouseRepo struct{ s *Store }

func (r *warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	for _, existing := range r.s.warehouses {
		if existing.CompanyID == w.CompanyID && existing.Code == w.Code && w.Code != "" {
			return domain.ErrDuplicate
		}
	}
	c := *w
	r.s.warehouses[w.ID] = &c
	return nil
}

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (r *warehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.warehouses[w.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *w
	r.s.warehouses[w.ID] = &c
	return nil
}

func (r *warehouseRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Warehouse, 0)
	for _, w := range r.s.warehouses {
		if w.CompanyID == companyID {
			c := *w
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}
