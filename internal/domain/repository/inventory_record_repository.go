package repository

import (
	"context"
	"time"

	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

// RecordFilter filtros para listar registros de inventario.
type RecordFilter struct {
	CompanyID       string
	WarehouseID     string // vacío = todas las bodegas
	SKU             string
	Category        string
	Status          string
	IncludeArchived bool
	Limit           int // 0 = sin límite
	Offset          int
}

// InventoryRecordRepository puerto de persistencia de InventoryRecord (DIP).
// Las implementaciones deben ofrecer incremento/decremento atómico sobre la fila,
// búsqueda por clave compuesta y actualizaciones condicionales.
// Los Get* devuelven (nil, nil) cuando el registro no existe.
type InventoryRecordRepository interface {
	GetByID(ctx context.Context, companyID, id string) (*entity.InventoryRecord, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, companyID, id string) (*entity.InventoryRecord, error)
	FindByKey(ctx context.Context, companyID, sku, batchID, warehouseID string) (*entity.InventoryRecord, error)

	// ListActiveBySKUForUpdate devuelve los lotes no archivados del SKU en la bodega,
	// bloqueados y en orden FEFO (vence primero, luego más antiguo).
	ListActiveBySKUForUpdate(ctx context.Context, companyID, warehouseID, sku string) ([]*entity.InventoryRecord, error)

	// ReceiveUpsert crea el registro o, si la clave (sku, batch, bodega) ya existe,
	// suma rec.Quantity y actualiza la ubicación en una sola sentencia atómica.
	// created indica si se insertó una fila nueva. Si la fila existente está archivada no
	// se modifica y devuelve domain.ErrRecordArchived.
	ReceiveUpsert(ctx context.Context, rec *entity.InventoryRecord) (stored *entity.InventoryRecord, created bool, err error)

	// DecrementQuantity resta qty sólo si quantity >= qty y el registro no está archivado.
	// Devuelve (nil, nil) si el predicado no se cumple.
	DecrementQuantity(ctx context.Context, companyID, id string, qty int64) (*entity.InventoryRecord, error)

	UpdateStatus(ctx context.Context, companyID, id, status string, pinned bool) error

	// Update persiste los campos editables (edición manual), incluidos status y age.
	Update(ctx context.Context, rec *entity.InventoryRecord) error

	// SetArchived cambia el estado de archivo sólo si el registro está en el estado contrario.
	// applied=false significa que ya estaba en el estado destino (o no existe).
	SetArchived(ctx context.Context, companyID, id string, archived bool, status string, archivedAt *time.Time) (applied bool, err error)

	List(ctx context.Context, f RecordFilter) ([]*entity.InventoryRecord, error)
}
