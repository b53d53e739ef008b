package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

const recordColumns = `
	id, company_id, sku, product_name, category, batch_id, warehouse_id, quantity,
	min_stock_level, max_stock_level, age, expiry_date,
	location_zone, location_aisle, location_rack, location_bin,
	status, status_pinned, is_archived, archived_at, created_by, created_at, updated_at`

// InventoryRecordRepo implementación de InventoryRecordRepository sobre PostgreSQL (pool o tx).
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

func scanRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var r entity.InventoryRecord
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.SKU, &r.ProductName, &r.Category, &r.BatchID, &r.WarehouseID, &r.Quantity,
		&r.MinStockLevel, &r.MaxStockLevel, &r.Age, &r.ExpiryDate,
		&r.Location.Zone, &r.Location.Aisle, &r.Location.Rack, &r.Location.Bin,
		&r.Status, &r.StatusPinned, &r.IsArchived, &r.ArchivedAt, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *InventoryRecordRepo) getOne(ctx context.Context, query string, args ...any) (*entity.InventoryRecord, error) {
	rec, err := scanRecord(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// GetByID obtiene un registro de la empresa.
func (r *InventoryRecordRepo) GetByID(ctx context.Context, companyID, id string) (*entity.InventoryRecord, error) {
	rec, err := r.getOne(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

// GetByIDForUpdate igual que GetByID pero bloquea la fila hasta el fin de la tx.
func (r *InventoryRecordRepo) GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.InventoryRecord, error) {
	rec, err := r.getOne(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get inventory record for update: %w", err)
	}
	return rec, nil
}

// FindByKey busca por la clave compuesta (sku, lote, bodega).
func (r *InventoryRecordRepo) FindByKey(ctx context.Context, companyID, sku, batchID, warehouseID string) (*entity.InventoryRecord, error) {
	rec, err := r.getOne(ctx, `SELECT `+recordColumns+` FROM inventory_records
		WHERE company_id = $1 AND sku = $2 AND batch_id = $3 AND warehouse_id = $4`,
		companyID, sku, batchID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("find inventory record by key: %w", err)
	}
	return rec, nil
}

// ListActiveBySKUForUpdate lotes no archivados en orden FEFO, bloqueados.
func (r *InventoryRecordRepo) ListActiveBySKUForUpdate(ctx context.Context, companyID, warehouseID, sku string) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records
		WHERE company_id = $1 AND warehouse_id = $2 AND sku = $3 AND NOT is_archived
		ORDER BY expiry_date ASC NULLS LAST, created_at ASC, id ASC
		FOR UPDATE`
	list, err := r.queryList(ctx, query, companyID, warehouseID, sku)
	if err != nil {
		return nil, fmt.Errorf("list lots for update: %w", err)
	}
	return list, nil
}

// ReceiveUpsert inserta o suma la cantidad en una sola sentencia. xmax = 0 sólo en filas recién insertadas.
func (r *InventoryRecordRepo) ReceiveUpsert(ctx context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, bool, error) {
	query := `
		INSERT INTO inventory_records (
			id, company_id, sku, product_name, category, batch_id, warehouse_id, quantity,
			min_stock_level, max_stock_level, age, expiry_date,
			location_zone, location_aisle, location_rack, location_bin,
			status, status_pinned, is_archived, archived_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE, FALSE, NULL, $18, $19, $19)
		ON CONFLICT (company_id, sku, batch_id, warehouse_id) DO UPDATE SET
			quantity       = inventory_records.quantity + EXCLUDED.quantity,
			location_zone  = EXCLUDED.location_zone,
			location_aisle = EXCLUDED.location_aisle,
			location_rack  = EXCLUDED.location_rack,
			location_bin   = EXCLUDED.location_bin,
			updated_at     = EXCLUDED.updated_at
		WHERE NOT inventory_records.is_archived
		RETURNING ` + recordColumns + `, (xmax = 0) AS inserted`

	row := r.q.QueryRow(ctx, query,
		rec.ID, rec.CompanyID, rec.SKU, rec.ProductName, rec.Category, rec.BatchID, rec.WarehouseID, rec.Quantity,
		rec.MinStockLevel, rec.MaxStockLevel, rec.Age, rec.ExpiryDate,
		rec.Location.Zone, rec.Location.Aisle, rec.Location.Rack, rec.Location.Bin,
		rec.Status, rec.CreatedBy, rec.CreatedAt,
	)
	var out entity.InventoryRecord
	var inserted bool
	err := row.Scan(
		&out.ID, &out.CompanyID, &out.SKU, &out.ProductName, &out.Category, &out.BatchID, &out.WarehouseID, &out.Quantity,
		&out.MinStockLevel, &out.MaxStockLevel, &out.Age, &out.ExpiryDate,
		&out.Location.Zone, &out.Location.Aisle, &out.Location.Rack, &out.Location.Bin,
		&out.Status, &out.StatusPinned, &out.IsArchived, &out.ArchivedAt, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt,
		&inserted,
	)
	if err != nil {
		// ON CONFLICT ... WHERE no devuelve fila cuando el lote está archivado
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrRecordArchived
		}
		if isCheckViolation(err) || isOutOfRange(err) {
			return nil, false, domain.ErrInvariantViolation
		}
		return nil, false, fmt.Errorf("receive upsert: %w", err)
	}
	return &out, inserted, nil
}

// DecrementQuantity resta qty sólo si alcanza y el registro no está archivado; (nil, nil) si no.
func (r *InventoryRecordRepo) DecrementQuantity(ctx context.Context, companyID, id string, qty int64) (*entity.InventoryRecord, error) {
	rec, err := r.getOne(ctx, `
		UPDATE inventory_records SET quantity = quantity - $3, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND NOT is_archived AND quantity >= $3
		RETURNING `+recordColumns, companyID, id, qty)
	if err != nil {
		return nil, fmt.Errorf("decrement quantity: %w", err)
	}
	return rec, nil
}

// UpdateStatus fija status y la marca de estado fijado.
func (r *InventoryRecordRepo) UpdateStatus(ctx context.Context, companyID, id, status string, pinned bool) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_records SET status = $3, status_pinned = $4, updated_at = NOW()
		WHERE company_id = $1 AND id = $2`, companyID, id, status, pinned)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update persiste los campos editables. Bodega, creación y archivo no cambian por aquí.
func (r *InventoryRecordRepo) Update(ctx context.Context, rec *entity.InventoryRecord) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_records SET
			sku = $3, product_name = $4, batch_id = $5, quantity = $6,
			min_stock_level = $7, max_stock_level = $8, age = $9, expiry_date = $10,
			location_zone = $11, location_aisle = $12, location_rack = $13, location_bin = $14,
			status = $15, status_pinned = $16, updated_at = $17
		WHERE company_id = $1 AND id = $2`,
		rec.CompanyID, rec.ID,
		rec.SKU, rec.ProductName, rec.BatchID, rec.Quantity,
		rec.MinStockLevel, rec.MaxStockLevel, rec.Age, rec.ExpiryDate,
		rec.Location.Zone, rec.Location.Aisle, rec.Location.Rack, rec.Location.Bin,
		rec.Status, rec.StatusPinned, rec.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return domain.ErrInvariantViolation
		}
		return fmt.Errorf("update inventory record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetArchived cambia el archivo sólo desde el estado contrario (is_archived <> $3).
func (r *InventoryRecordRepo) SetArchived(ctx context.Context, companyID, id string, archived bool, status string, archivedAt *time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_records
		SET is_archived = $3, status = $4, status_pinned = FALSE, archived_at = $5, updated_at = NOW()
		WHERE company_id = $1 AND id = $2 AND is_archived <> $3`,
		companyID, id, archived, status, archivedAt)
	if err != nil {
		return false, fmt.Errorf("set archived: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// List lista registros con filtros; por defecto excluye archivados.
func (r *InventoryRecordRepo) List(ctx context.Context, f repository.RecordFilter) ([]*entity.InventoryRecord, error) {
	var w where
	w.add("company_id = ?", f.CompanyID)
	if f.WarehouseID != "" {
		w.add("warehouse_id = ?", f.WarehouseID)
	}
	if f.SKU != "" {
		w.add("sku = ?", f.SKU)
	}
	if f.Category != "" {
		w.add("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if !f.IncludeArchived {
		w.raw("NOT is_archived")
	}
	query := `SELECT ` + recordColumns + ` FROM inventory_records` + w.sql() + ` ORDER BY sku, batch_id, id`
	if f.Limit > 0 {
		query += " LIMIT " + w.next(f.Limit) + " OFFSET " + w.next(f.Offset)
	}
	list, err := r.queryList(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	return list, nil
}

func (r *InventoryRecordRepo) queryList(ctx context.Context, query string, args ...any) ([]*entity.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*entity.InventoryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
