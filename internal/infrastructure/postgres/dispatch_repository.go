package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

var _ repository.DispatchRepository = (*DispatchRepo)(nil)

const dispatchColumns = `id, code, company_id, warehouse_id, destination, agent_id, items, allocations,
	status, created_by, created_at, updated_at, delivered_at, cancelled_at`

// itemRow / allocationRow forma JSONB de las líneas del despacho.
type itemRow struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

type allocationRow struct {
	RecordID string `json:"record_id"`
	SKU      string `json:"sku"`
	BatchID  string `json:"batch_id"`
	Quantity int64  `json:"quantity"`
}

// DispatchRepo despachos sobre PostgreSQL; items y asignaciones se guardan como JSONB.
type DispatchRepo struct {
	q Querier
}

// NewDispatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDispatchRepository(q Querier) *DispatchRepo {
	return &DispatchRepo{q: q}
}

// Create inserta el despacho; un código repetido devuelve domain.ErrDuplicate.
func (r *DispatchRepo) Create(ctx context.Context, d *entity.DispatchOrder) error {
	items, allocs, err := encodeDispatchLines(d)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO dispatch_orders (` + dispatchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.q.Exec(ctx, query,
		d.ID, d.Code, d.CompanyID, d.WarehouseID, d.Destination, d.AgentID, items, allocs,
		d.Status, d.CreatedBy, d.CreatedAt, d.UpdatedAt, d.DeliveredAt, d.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert dispatch order: %w", err)
	}
	return nil
}

// GetByID obtiene un despacho de la empresa.
func (r *DispatchRepo) GetByID(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	return r.getOne(ctx, `SELECT `+dispatchColumns+` FROM dispatch_orders WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetByIDForUpdate bloquea la fila del despacho.
func (r *DispatchRepo) GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.DispatchOrder, error) {
	return r.getOne(ctx, `SELECT `+dispatchColumns+` FROM dispatch_orders WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
}

// UpdateState persiste status, agente y marcas de tiempo.
func (r *DispatchRepo) UpdateState(ctx context.Context, d *entity.DispatchOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE dispatch_orders
		SET status = $3, agent_id = $4, updated_at = $5, delivered_at = $6, cancelled_at = $7
		WHERE company_id = $1 AND id = $2`,
		d.CompanyID, d.ID, d.Status, d.AgentID, d.UpdatedAt, d.DeliveredAt, d.CancelledAt)
	if err != nil {
		return fmt.Errorf("update dispatch order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CodeExists indica si el código ya está tomado en la empresa.
func (r *DispatchRepo) CodeExists(ctx context.Context, companyID, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dispatch_orders WHERE company_id = $1 AND code = $2)`, companyID, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dispatch code exists: %w", err)
	}
	return exists, nil
}

// List despachos más recientes primero.
func (r *DispatchRepo) List(ctx context.Context, f repository.DispatchFilter) ([]*entity.DispatchOrder, error) {
	var w where
	w.add("company_id = ?", f.CompanyID)
	if f.WarehouseID != "" {
		w.add("warehouse_id = ?", f.WarehouseID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.AgentID != "" {
		w.add("agent_id = ?", f.AgentID)
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at <= ?", *f.To)
	}
	rows, err := r.q.Query(ctx, `SELECT `+dispatchColumns+` FROM dispatch_orders`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list dispatch orders: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.DispatchOrder, 0)
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (r *DispatchRepo) getOne(ctx context.Context, query string, args ...any) (*entity.DispatchOrder, error) {
	d, err := scanDispatch(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func scanDispatch(row pgx.Row) (*entity.DispatchOrder, error) {
	var d entity.DispatchOrder
	var items, allocs []byte
	err := row.Scan(&d.ID, &d.Code, &d.CompanyID, &d.WarehouseID, &d.Destination, &d.AgentID, &items, &allocs,
		&d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &d.DeliveredAt, &d.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan dispatch order: %w", err)
	}
	var itemRows []itemRow
	if err := json.Unmarshal(items, &itemRows); err != nil {
		return nil, fmt.Errorf("decode dispatch items: %w", err)
	}
	var allocRows []allocationRow
	if err := json.Unmarshal(allocs, &allocRows); err != nil {
		return nil, fmt.Errorf("decode dispatch allocations: %w", err)
	}
	for _, it := range itemRows {
		d.Items = append(d.Items, entity.DispatchItem{SKU: it.SKU, Quantity: it.Quantity})
	}
	for _, a := range allocRows {
		d.Allocations = append(d.Allocations, entity.DispatchAllocation{RecordID: a.RecordID, SKU: a.SKU, BatchID: a.BatchID, Quantity: a.Quantity})
	}
	return &d, nil
}

func encodeDispatchLines(d *entity.DispatchOrder) ([]byte, []byte, error) {
	itemRows := make([]itemRow, 0, len(d.Items))
	for _, it := range d.Items {
		itemRows = append(itemRows, itemRow{SKU: it.SKU, Quantity: it.Quantity})
	}
	allocRows := make([]allocationRow, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		allocRows = append(allocRows, allocationRow{RecordID: a.RecordID, SKU: a.SKU, BatchID: a.BatchID, Quantity: a.Quantity})
	}
	items, err := json.Marshal(itemRows)
	if err != nil {
		return nil, nil, fmt.Errorf("encode dispatch items: %w", err)
	}
	allocs, err := json.Marshal(allocRows)
	if err != nil {
		return nil, nil, fmt.Errorf("encode dispatch allocations: %w", err)
	}
	return items, allocs, nil
}
