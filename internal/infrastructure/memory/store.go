// Package memory implementa los puertos de persistencia en memoria, para tests y
// ejecución local sin PostgreSQL. Las transacciones se serializan: Run toma un candado
// global, guarda una copia del estado y la restaura si fn devuelve error.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store guarda todas las entidades del inventario.
type Store struct {
	txMu sync.Mutex   // serializa transacciones (equivale a bloquear todas las filas)
	mu   sync.RWMutex // protege los mapas

	records    map[string]*entity.InventoryRecord
	movements  []*entity.StockMovement
	dispatches map[string]*entity.DispatchOrder
	returns    map[string]*entity.ReturnOrder
	warehouses map[string]*entity.Warehouse
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		records:    make(map[string]*entity.InventoryRecord),
		dispatches: make(map[string]*entity.DispatchOrder),
		returns:    make(map[string]*entity.ReturnOrder),
		warehouses: make(map[string]*entity.Warehouse),
	}
}

type snapshot struct {
	records    map[string]*entity.InventoryRecord
	movements  []*entity.StockMovement
	dispatches map[string]*entity.DispatchOrder
	returns    map[string]*entity.ReturnOrder
}

// Run ejecuta fn con repositorios sobre el store. Si fn falla, el estado vuelve al previo.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s.Repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Repos devuelve los repositorios sin transacción (lecturas, reportes).
func (s *Store) Repos() inventory.TxRepos {
	return inventory.TxRepos{
		Records:    s.Records(),
		Movements:  s.Movements(),
		Dispatches: s.Dispatches(),
		Returns:    s.Returns(),
	}
}

// Records repositorio de registros de inventario.
func (s *Store) Records() repository.InventoryRecordRepository { return &recordRepo{s: s} }

// Movements repositorio del libro de movimientos.
func (s *Store) Movements() repository.StockMovementRepository { return &movementRepo{s: s} }

// Dispatches repositorio de despachos.
func (s *Store) Dispatches() repository.DispatchRepository { return &dispatchRepo{s: s} }

// Returns repositorio de devoluciones.
func (s *Store) Returns() repository.ReturnRepository { return &returnRepo{s: s} }

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() repository.WarehouseRepository { return &warehouseRepo{s: s} }

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		records:    make(map[string]*entity.InventoryRecord, len(s.records)),
		movements:  make([]*entity.StockMovement, len(s.movements)),
		dispatches: make(map[string]*entity.DispatchOrder, len(s.dispatches)),
		returns:    make(map[string]*entity.ReturnOrder, len(s.returns)),
	}
	for id, r := range s.records {
		snap.records[id] = r.Clone()
	}
	copy(snap.movements, s.movements)
	for id, d := range s.dispatches {
		snap.dispatches[id] = cloneDispatch(d)
	}
	for id, r := range s.returns {
		snap.returns[id] = cloneReturn(r)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = snap.records
	s.movements = snap.movements
	s.dispatches = snap.dispatches
	s.returns = snap.returns
}

func cloneDispatch(d *entity.DispatchOrder) *entity.DispatchOrder {
	if d == nil {
		return nil
	}
	c := *d
	c.Items = append([]entity.DispatchItem(nil), d.Items...)
	c.Allocations = append([]entity.DispatchAllocation(nil), d.Allocations...)
	if d.DeliveredAt != nil {
		t := *d.DeliveredAt
		c.DeliveredAt = &t
	}
	if d.CancelledAt != nil {
		t := *d.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

func cloneReturn(r *entity.ReturnOrder) *entity.ReturnOrder {
	if r == nil {
		return nil
	}
	c := *r
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
