package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*recordRepo)(nil)

type recordRepo struct {
	s *Store
}

func (r *recordRepo) GetByID(_ context.Context, companyID, id string) (*entity.InventoryRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.records[id]
	if !ok || rec.CompanyID != companyID {
		return nil, nil
	}
	return rec.Clone(), nil
}

// GetByIDForUpdate: el candado de la transacción ya serializa el acceso.
func (r *recordRepo) GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.InventoryRecord, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *recordRepo) FindByKey(_ context.Context, companyID, sku, batchID, warehouseID string) (*entity.InventoryRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if rec := r.findByKeyLocked(companyID, sku, batchID, warehouseID); rec != nil {
		return rec.Clone(), nil
	}
	return nil, nil
}

func (r *recordRepo) findByKeyLocked(companyID, sku, batchID, warehouseID string) *entity.InventoryRecord {
	for _, rec := range r.s.records {
		if rec.CompanyID == companyID && rec.SKU == sku && rec.BatchID == batchID && rec.WarehouseID == warehouseID {
			return rec
		}
	}
	return nil
}

func (r *recordRepo) ListActiveBySKUForUpdate(_ context.Context, companyID, warehouseID, sku string) ([]*entity.InventoryRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.InventoryRecord
	for _, rec := range r.s.records {
		if rec.CompanyID == companyID && rec.WarehouseID == warehouseID && rec.SKU == sku && !rec.IsArchived {
			out = append(out, rec.Clone())
		}
	}
	sortFEFO(out)
	return out, nil
}

// sortFEFO: vence primero; sin vencimiento al final; empate por antigüedad.
func sortFEFO(list []*entity.InventoryRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (r *recordRepo) ReceiveUpsert(_ context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing := r.findByKeyLocked(rec.CompanyID, rec.SKU, rec.BatchID, rec.WarehouseID); existing != nil {
		if existing.IsArchived {
			return nil, false, domain.ErrRecordArchived
		}
		total, err := inventory.AddQuantity(existing.Quantity, rec.Quantity)
		if err != nil {
			return nil, false, err
		}
		existing.Quantity = total
		existing.Location = rec.Location
		existing.UpdatedAt = rec.UpdatedAt
		return existing.Clone(), false, nil
	}
	stored := rec.Clone()
	r.s.records[stored.ID] = stored
	return stored.Clone(), true, nil
}

func (r *recordRepo) DecrementQuantity(_ context.Context, companyID, id string, qty int64) (*entity.InventoryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok || rec.CompanyID != companyID || rec.IsArchived || rec.Quantity < qty {
		return nil, nil
	}
	rec.Quantity -= qty
	rec.UpdatedAt = time.Now()
	return rec.Clone(), nil
}

func (r *recordRepo) UpdateStatus(_ context.Context, companyID, id, status string, pinned bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok || rec.CompanyID != companyID {
		return domain.ErrNotFound
	}
	rec.Status = status
	rec.StatusPinned = pinned
	return nil
}

func (r *recordRepo) Update(_ context.Context, in *entity.InventoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[in.ID]
	if !ok || rec.CompanyID != in.CompanyID {
		return domain.ErrNotFound
	}
	if other := r.findByKeyLocked(in.CompanyID, in.SKU, in.BatchID, rec.WarehouseID); other != nil && other.ID != in.ID {
		return domain.ErrDuplicate
	}
	updated := in.Clone()
	updated.WarehouseID = rec.WarehouseID
	updated.CreatedAt = rec.CreatedAt
	updated.CreatedBy = rec.CreatedBy
	updated.IsArchived = rec.IsArchived
	updated.ArchivedAt = rec.ArchivedAt
	r.s.records[in.ID] = updated
	return nil
}

func (r *recordRepo) SetArchived(_ context.Context, companyID, id string, archived bool, status string, archivedAt *time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok || rec.CompanyID != companyID || rec.IsArchived == archived {
		return false, nil
	}
	rec.IsArchived = archived
	rec.Status = status
	rec.StatusPinned = false
	rec.ArchivedAt = nil
	if archivedAt != nil {
		t := *archivedAt
		rec.ArchivedAt = &t
	}
	rec.UpdatedAt = time.Now()
	return true, nil
}

func (r *recordRepo) List(_ context.Context, f repository.RecordFilter) ([]*entity.InventoryRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.InventoryRecord, 0)
	for _, rec := range r.s.records {
		if rec.CompanyID != f.CompanyID {
			continue
		}
		if f.WarehouseID != "" && rec.WarehouseID != f.WarehouseID {
			continue
		}
		if f.SKU != "" && rec.SKU != f.SKU {
			continue
		}
		if f.Category != "" && !strings.EqualFold(rec.Category, f.Category) {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if rec.IsArchived && !f.IncludeArchived {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		if out[i].BatchID != out[j].BatchID {
			return out[i].BatchID < out[j].BatchID
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}
