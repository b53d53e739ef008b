package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// Nombres de operación para métricas.
const (
	OpReceive           = "receive"
	OpReduce            = "reduce"
	OpManualEdit        = "manual_edit"
	OpArchive           = "archive"
	OpUnarchive         = "unarchive"
	OpQuarantine        = "quarantine"
	OpReleaseQuarantine = "release_quarantine"
)

// Motivos de fallo por id en operaciones masivas.
const (
	BulkReasonInvalidID       = "invalid_id"
	BulkReasonNotFound        = "not_found"
	BulkReasonAlreadyArchived = "already_archived"
	BulkReasonNotArchived     = "not_archived"
)

// StockEngine es el único componente que modifica quantity en un InventoryRecord.
// Toda mutación corre dentro de TxRunner y recalcula el estado inmediatamente después del cambio.
type StockEngine struct {
	tx         TxRunner
	warehouses repository.WarehouseRepository
	now        func() time.Time
	notifier   ChangeNotifier
	recorder   MutationRecorder
}

// EngineOption configura el StockEngine.
type EngineOption func(*StockEngine)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *StockEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithNotifier registra quién debe enterarse de cada mutación confirmada.
func WithNotifier(n ChangeNotifier) EngineOption {
	return func(e *StockEngine) { e.notifier = n }
}

// WithRecorder registra el colector de métricas.
func WithRecorder(r MutationRecorder) EngineOption {
	return func(e *StockEngine) { e.recorder = r }
}

// NewStockEngine construye el motor. warehouses puede ser nil si la bodega ya fue validada por el caller.
func NewStockEngine(tx TxRunner, warehouses repository.WarehouseRepository, opts ...EngineOption) *StockEngine {
	e := &StockEngine{
		tx:         tx,
		warehouses: warehouses,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReceiveInput entrada para registrar una recepción de mercancía.
type ReceiveInput struct {
	CompanyID     string
	SKU           string
	ProductName   string
	Category      string
	BatchID       string
	WarehouseID   string
	Quantity      int64
	Location      entity.Location
	MinStockLevel *int64 // nil = 0
	MaxStockLevel *int64 // nil = 1000
	ExpiryDate    *time.Time
	CreatedBy     string
}

// EditInput campos permitidos en la edición manual; nil = no cambia.
type EditInput struct {
	SKU           *string
	ProductName   *string
	BatchID       *string
	Quantity      *int64
	MinStockLevel *int64
	MaxStockLevel *int64
	ExpiryDate    *time.Time
	ClearExpiry   bool
	Location      *entity.Location
	UpdatedBy     string
}

// EditResult estado anterior y resultante (para que el caller arme la auditoría).
type EditResult struct {
	Previous *entity.InventoryRecord
	Record   *entity.InventoryRecord
}

// ArchiveResult registro resultante y estado previo de archivo.
type ArchiveResult struct {
	Record      *entity.InventoryRecord
	WasArchived bool
}

// BulkResult resultado de una operación masiva best-effort.
type BulkResult struct {
	SucceededCount int               `json:"succeeded_count"`
	FailedCount    int               `json:"failed_count"`
	FailedIDs      []string          `json:"failed_ids"`
	Failures       map[string]string `json:"failures"`
}

// ReduceInput salida de stock por SKU desde una bodega.
type ReduceInput struct {
	CompanyID   string
	WarehouseID string
	Items       []StockItem
	Reference   string
	CreatedBy   string
}

// Receive busca o crea el registro (sku, batch, bodega). Si existe suma la cantidad
// y actualiza la ubicación; si no, lo crea con umbrales por defecto. Es aditivo: dos
// llamadas iguales suman dos veces.
func (e *StockEngine) Receive(ctx context.Context, in ReceiveInput) (rec *entity.InventoryRecord, created bool, err error) {
	defer func() { e.observe(OpReceive, err) }()

	if err := requireIDs(in.CompanyID, in.WarehouseID); err != nil {
		return nil, false, err
	}
	in.SKU = strings.TrimSpace(in.SKU)
	in.BatchID = strings.TrimSpace(in.BatchID)
	if in.SKU == "" || in.BatchID == "" {
		return nil, false, domain.ErrInvalidInput
	}
	if err := inventory.ValidateQuantity(in.Quantity); err != nil {
		return nil, false, err
	}
	if in.Quantity == 0 {
		return nil, false, domain.ErrInvalidInput
	}
	minLevel, maxLevel := entity.DefaultMinStockLevel, entity.DefaultMaxStockLevel
	if in.MinStockLevel != nil {
		minLevel = *in.MinStockLevel
	}
	if in.MaxStockLevel != nil {
		maxLevel = *in.MaxStockLevel
	}
	if err := inventory.ValidateThresholds(minLevel, maxLevel); err != nil {
		return nil, false, err
	}
	if err := e.checkWarehouse(ctx, in.CompanyID, in.WarehouseID); err != nil {
		return nil, false, err
	}

	now := e.now()
	err = e.tx.Run(ctx, func(repos TxRepos) error {
		candidate := &entity.InventoryRecord{
			ID:            uuid.New().String(),
			CompanyID:     in.CompanyID,
			SKU:           in.SKU,
			ProductName:   in.ProductName,
			Category:      in.Category,
			BatchID:       in.BatchID,
			WarehouseID:   in.WarehouseID,
			Quantity:      in.Quantity,
			MinStockLevel: minLevel,
			MaxStockLevel: maxLevel,
			Age:           0,
			ExpiryDate:    in.ExpiryDate,
			Location:      in.Location,
			CreatedBy:     in.CreatedBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		candidate.Status = inventory.DeriveStatus(candidate, now)

		stored, wasCreated, err := repos.Records.ReceiveUpsert(ctx, candidate)
		if err != nil {
			return err
		}
		if err := e.refreshStatus(ctx, repos.Records, stored, now); err != nil {
			return err
		}
		if err := repos.Movements.Create(ctx, newMovement(stored, entity.MovementTypeReceive, in.Quantity, "", in.CreatedBy, now)); err != nil {
			return err
		}
		rec, created = stored, wasCreated
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	e.notify(ctx, in.CompanyID)
	return rec, created, nil
}

// ReduceBySKU descuenta stock por SKU. Primero valida todos los ítems (bloqueando los lotes)
// y sólo si todos alcanzan descuenta; todo en una misma transacción.
func (e *StockEngine) ReduceBySKU(ctx context.Context, in ReduceInput) (allocations []entity.DispatchAllocation, err error) {
	defer func() { e.observe(OpReduce, err) }()

	if err := requireIDs(in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}
	err = e.tx.Run(ctx, func(repos TxRepos) error {
		var err error
		allocations, err = e.reduceInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, in.CompanyID)
	return allocations, nil
}

// reduceInTx contiene la lógica de validar-y-descontar para reutilizarla dentro de
// otras transacciones (creación de despachos).
func (e *StockEngine) reduceInTx(ctx context.Context, repos TxRepos, in ReduceInput) ([]entity.DispatchAllocation, error) {
	items, err := normalizeItems(in.Items)
	if err != nil {
		return nil, err
	}
	lots, err := loadLots(ctx, repos.Records, in.CompanyID, in.WarehouseID, items)
	if err != nil {
		return nil, err
	}
	if err := CheckSufficiency(items, lots); err != nil {
		return nil, err
	}

	now := e.now()
	var allocations []entity.DispatchAllocation
	for _, it := range items {
		remaining := it.Quantity
		for _, lot := range lots[it.SKU] {
			if remaining == 0 {
				break
			}
			if !dispatchable(lot) {
				continue
			}
			take := lot.Quantity
			if take > remaining {
				take = remaining
			}
			if take <= 0 {
				continue
			}
			updated, err := repos.Records.DecrementQuantity(ctx, in.CompanyID, lot.ID, take)
			if err != nil {
				return nil, err
			}
			if updated == nil {
				// Otro proceso consumió el lote entre la validación y el descuento.
				return nil, &domain.InsufficientStockError{SKU: it.SKU, Available: it.Quantity - remaining, Requested: it.Quantity}
			}
			if err := e.refreshStatus(ctx, repos.Records, updated, now); err != nil {
				return nil, err
			}
			if err := repos.Movements.Create(ctx, newMovement(updated, entity.MovementTypeDispatch, -take, in.Reference, in.CreatedBy, now)); err != nil {
				return nil, err
			}
			allocations = append(allocations, entity.DispatchAllocation{
				RecordID: updated.ID,
				SKU:      updated.SKU,
				BatchID:  updated.BatchID,
				Quantity: take,
			})
			remaining -= take
		}
		if remaining > 0 {
			return nil, &domain.InsufficientStockError{SKU: it.SKU, Available: it.Quantity - remaining, Requested: it.Quantity}
		}
	}
	return allocations, nil
}

// ManualEdit aplica los campos permitidos, recalcula age y recalcula el estado con los valores
// resultantes. Cantidad negativa o max <= min se rechazan antes de persistir.
func (e *StockEngine) ManualEdit(ctx context.Context, companyID, id string, in EditInput) (res *EditResult, err error) {
	defer func() { e.observe(OpManualEdit, err) }()

	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	now := e.now()
	err = e.tx.Run(ctx, func(repos TxRepos) error {
		rec, err := repos.Records.GetByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		previous := rec.Clone()

		if in.SKU != nil {
			rec.SKU = strings.TrimSpace(*in.SKU)
		}
		if in.ProductName != nil {
			rec.ProductName = *in.ProductName
		}
		if in.BatchID != nil {
			rec.BatchID = strings.TrimSpace(*in.BatchID)
		}
		if rec.SKU == "" || rec.BatchID == "" {
			return domain.ErrInvalidInput
		}
		if in.Quantity != nil {
			rec.Quantity = *in.Quantity
		}
		if in.MinStockLevel != nil {
			rec.MinStockLevel = *in.MinStockLevel
		}
		if in.MaxStockLevel != nil {
			rec.MaxStockLevel = *in.MaxStockLevel
		}
		if in.ClearExpiry {
			rec.ExpiryDate = nil
		} else if in.ExpiryDate != nil {
			exp := *in.ExpiryDate
			rec.ExpiryDate = &exp
		}
		if in.Location != nil {
			rec.Location = *in.Location
		}
		if err := inventory.ValidateQuantity(rec.Quantity); err != nil {
			return err
		}
		if err := inventory.ValidateThresholds(rec.MinStockLevel, rec.MaxStockLevel); err != nil {
			return err
		}

		rec.Age = rec.AgeAt(now)
		rec.Status = inventory.DeriveStatus(rec, now)
		rec.UpdatedAt = now
		if err := repos.Records.Update(ctx, rec); err != nil {
			return err
		}
		if delta := rec.Quantity - previous.Quantity; delta != 0 {
			if err := repos.Movements.Create(ctx, newMovement(rec, entity.MovementTypeAdjustment, delta, "", in.UpdatedBy, now)); err != nil {
				return err
			}
		}
		res = &EditResult{Previous: previous, Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, companyID)
	return res, nil
}

// Archive marca el registro como archivado (status=archived, archivedAt=now).
// Archivar algo ya archivado no cambia nada pero WasArchived=true lo deja explícito.
func (e *StockEngine) Archive(ctx context.Context, companyID, id string) (res *ArchiveResult, err error) {
	defer func() { e.observe(OpArchive, err) }()
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	res, err = e.setArchived(ctx, companyID, id, true)
	if err == nil && !res.WasArchived {
		e.notify(ctx, companyID)
	}
	return res, err
}

// Unarchive quita la marca de archivo y recalcula el estado con los valores actuales
// (la fecha de vencimiento pudo pasar mientras estaba archivado).
func (e *StockEngine) Unarchive(ctx context.Context, companyID, id string) (res *ArchiveResult, err error) {
	defer func() { e.observe(OpUnarchive, err) }()
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	res, err = e.setArchived(ctx, companyID, id, false)
	if err == nil && res.WasArchived {
		e.notify(ctx, companyID)
	}
	return res, err
}

func (e *StockEngine) setArchived(ctx context.Context, companyID, id string, archive bool) (*ArchiveResult, error) {
	now := e.now()
	var res *ArchiveResult
	err := e.tx.Run(ctx, func(repos TxRepos) error {
		rec, err := repos.Records.GetByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		was := rec.IsArchived
		if was == archive {
			res = &ArchiveResult{Record: rec, WasArchived: was}
			return nil
		}

		// Archivar libera cualquier estado fijado (cuarentena).
		rec.StatusPinned = false
		rec.IsArchived = archive
		if archive {
			rec.ArchivedAt = &now
		} else {
			rec.ArchivedAt = nil
		}
		rec.Status = inventory.DeriveStatus(rec, now)
		rec.UpdatedAt = now

		applied, err := repos.Records.SetArchived(ctx, companyID, id, archive, rec.Status, rec.ArchivedAt)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrNotFound
		}
		res = &ArchiveResult{Record: rec, WasArchived: was}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// BulkArchive archiva cada id de forma independiente; los fallos se reportan por id.
func (e *StockEngine) BulkArchive(ctx context.Context, companyID string, ids []string) (*BulkResult, error) {
	return e.bulk(ctx, companyID, ids, true)
}

// BulkUnarchive desarchiva cada id de forma independiente; los fallos se reportan por id.
func (e *StockEngine) BulkUnarchive(ctx context.Context, companyID string, ids []string) (*BulkResult, error) {
	return e.bulk(ctx, companyID, ids, false)
}

func (e *StockEngine) bulk(ctx context.Context, companyID string, ids []string, archive bool) (*BulkResult, error) {
	if !isValidID(companyID) {
		return nil, domain.ErrInvalidIdentifier
	}
	res := &BulkResult{FailedIDs: []string{}, Failures: map[string]string{}}
	fail := func(id, reason string) {
		res.FailedCount++
		res.FailedIDs = append(res.FailedIDs, id)
		res.Failures[id] = reason
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isValidID(id) {
			fail(id, BulkReasonInvalidID)
			continue
		}
		var (
			r   *ArchiveResult
			err error
		)
		if archive {
			r, err = e.Archive(ctx, companyID, id)
		} else {
			r, err = e.Unarchive(ctx, companyID, id)
		}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fail(id, BulkReasonNotFound)
		case err != nil:
			fail(id, err.Error())
		case archive && r.WasArchived:
			fail(id, BulkReasonAlreadyArchived)
		case !archive && !r.WasArchived:
			fail(id, BulkReasonNotArchived)
		default:
			res.SucceededCount++
		}
	}
	return res, nil
}

// Quarantine fija el estado quarantine (acción externa, ej. falla de QC).
// El estado fijado sobrevive a recepciones, descuentos y ediciones hasta ReleaseQuarantine.
func (e *StockEngine) Quarantine(ctx context.Context, companyID, id string) (rec *entity.InventoryRecord, err error) {
	defer func() { e.observe(OpQuarantine, err) }()
	return e.pin(ctx, companyID, id, true)
}

// ReleaseQuarantine libera el estado fijado y recalcula con el clasificador.
func (e *StockEngine) ReleaseQuarantine(ctx context.Context, companyID, id string) (rec *entity.InventoryRecord, err error) {
	defer func() { e.observe(OpReleaseQuarantine, err) }()
	return e.pin(ctx, companyID, id, false)
}

func (e *StockEngine) pin(ctx context.Context, companyID, id string, pin bool) (*entity.InventoryRecord, error) {
	if err := requireIDs(companyID, id); err != nil {
		return nil, err
	}
	now := e.now()
	var out *entity.InventoryRecord
	err := e.tx.Run(ctx, func(repos TxRepos) error {
		rec, err := repos.Records.GetByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		if rec.IsArchived || rec.StatusPinned == pin {
			return domain.ErrInvalidTransition
		}
		rec.StatusPinned = pin
		if pin {
			rec.Status = entity.StatusQuarantine
		} else {
			rec.Status = inventory.DeriveStatus(rec, now)
		}
		rec.UpdatedAt = now
		if err := repos.Records.UpdateStatus(ctx, companyID, id, rec.Status, rec.StatusPinned); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, companyID)
	return out, nil
}

// refreshStatus recalcula el estado del registro recién mutado y lo persiste si cambió.
func (e *StockEngine) refreshStatus(ctx context.Context, records repository.InventoryRecordRepository, rec *entity.InventoryRecord, now time.Time) error {
	status := inventory.DeriveStatus(rec, now)
	if status == rec.Status {
		return nil
	}
	if err := records.UpdateStatus(ctx, rec.CompanyID, rec.ID, status, rec.StatusPinned); err != nil {
		return err
	}
	rec.Status = status
	return nil
}

func (e *StockEngine) checkWarehouse(ctx context.Context, companyID, warehouseID string) error {
	if e.warehouses == nil {
		return nil
	}
	wh, err := e.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil || wh.CompanyID != companyID {
		return domain.ErrNotFound
	}
	return nil
}

func (e *StockEngine) notify(ctx context.Context, companyID string) {
	if e.notifier != nil {
		e.notifier.InventoryChanged(ctx, companyID)
	}
}

func (e *StockEngine) observe(op string, err error) {
	if e.recorder != nil {
		e.recorder.ObserveMutation(op, err)
	}
}

func newMovement(rec *entity.InventoryRecord, kind string, qty int64, ref, by string, now time.Time) *entity.StockMovement {
	return &entity.StockMovement{
		ID:          uuid.New().String(),
		CompanyID:   rec.CompanyID,
		RecordID:    rec.ID,
		SKU:         rec.SKU,
		BatchID:     rec.BatchID,
		WarehouseID: rec.WarehouseID,
		Type:        kind,
		Quantity:    qty,
		Reference:   ref,
		CreatedAt:   now,
		CreatedBy:   by,
	}
}

func isValidID(id string) bool {
	return domain.IsValidID(id)
}

// requireIDs falla rápido ante identificadores mal formados, sin tocar el store.
func requireIDs(ids ...string) error {
	for _, id := range ids {
		if !isValidID(id) {
			return domain.ErrInvalidIdentifier
		}
	}
	return nil
}
