package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

const returnColumns = `id, code, company_id, warehouse_id, COALESCE(dispatch_id::text, ''), sku, batch_id,
	quantity, approved_quantity, shortfall, reason, status, created_by, reviewed_by, created_at, updated_at, reviewed_at`

// ReturnRepo devoluciones sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

// Create inserta la devolución; dispatch_id vacío se guarda como NULL.
func (r *ReturnRepo) Create(ctx context.Context, o *entity.ReturnOrder) error {
	var dispatchID *string
	if o.DispatchID != "" {
		dispatchID = &o.DispatchID
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO return_orders (id, code, company_id, warehouse_id, dispatch_id, sku, batch_id,
			quantity, approved_quantity, shortfall, reason, status, created_by, reviewed_by, created_at, updated_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		o.ID, o.Code, o.CompanyID, o.WarehouseID, dispatchID, o.SKU, o.BatchID,
		o.Quantity, o.ApprovedQuantity, o.Shortfall, o.Reason, o.Status, o.CreatedBy, o.ReviewedBy, o.CreatedAt, o.UpdatedAt, o.ReviewedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert return order: %w", err)
	}
	return nil
}

// GetByID obtiene una devolución de la empresa.
func (r *ReturnRepo) GetByID(ctx context.Context, companyID, id string) (*entity.ReturnOrder, error) {
	return r.getOne(ctx, `SELECT `+returnColumns+` FROM return_orders WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetByIDForUpdate bloquea la fila de la devolución.
func (r *ReturnRepo) GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.ReturnOrder, error) {
	return r.getOne(ctx, `SELECT `+returnColumns+` FROM return_orders WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
}

// UpdateReview persiste el resultado de la revisión.
func (r *ReturnRepo) UpdateReview(ctx context.Context, o *entity.ReturnOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE return_orders
		SET status = $3, approved_quantity = $4, shortfall = $5, reviewed_by = $6, reviewed_at = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2`,
		o.CompanyID, o.ID, o.Status, o.ApprovedQuantity, o.Shortfall, o.ReviewedBy, o.ReviewedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update return order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CodeExists indica si el código ya está tomado en la empresa.
func (r *ReturnRepo) CodeExists(ctx context.Context, companyID, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM return_orders WHERE company_id = $1 AND code = $2)`, companyID, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("return code exists: %w", err)
	}
	return exists, nil
}

// List devoluciones más recientes primero.
func (r *ReturnRepo) List(ctx context.Context, f repository.ReturnFilter) ([]*entity.ReturnOrder, error) {
	var w where
	w.add("company_id = ?", f.CompanyID)
	if f.WarehouseID != "" {
		w.add("warehouse_id = ?", f.WarehouseID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	rows, err := r.q.Query(ctx, `SELECT `+returnColumns+` FROM return_orders`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list return orders: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.ReturnOrder, 0)
	for rows.Next() {
		o, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan return order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (r *ReturnRepo) getOne(ctx context.Context, query string, args ...any) (*entity.ReturnOrder, error) {
	o, err := scanReturn(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return order: %w", err)
	}
	return o, nil
}

func scanReturn(row pgx.Row) (*entity.ReturnOrder, error) {
	var o entity.ReturnOrder
	err := row.Scan(&o.ID, &o.Code, &o.CompanyID, &o.WarehouseID, &o.DispatchID, &o.SKU, &o.BatchID,
		&o.Quantity, &o.ApprovedQuantity, &o.Shortfall, &o.Reason, &o.Status, &o.CreatedBy, &o.ReviewedBy,
		&o.CreatedAt, &o.UpdatedAt, &o.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
