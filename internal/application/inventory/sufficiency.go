package inventory

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// StockItem par (sku, cantidad) solicitado.
type StockItem struct {
	SKU      string
	Quantity int64
}

// normalizeItems valida y agrupa por SKU conservando el orden de la primera aparición.
func normalizeItems(items []StockItem) ([]StockItem, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	index := make(map[string]int, len(items))
	out := make([]StockItem, 0, len(items))
	for _, it := range items {
		sku := strings.TrimSpace(it.SKU)
		if sku == "" {
			return nil, domain.ErrInvalidInput
		}
		if it.Quantity < 0 {
			return nil, &domain.InvariantError{Field: "quantity", Reason: "no puede ser negativa"}
		}
		if it.Quantity == 0 {
			return nil, domain.ErrInvalidInput
		}
		if i, ok := index[sku]; ok {
			total, err := inventory.AddQuantity(out[i].Quantity, it.Quantity)
			if err != nil {
				return nil, err
			}
			out[i].Quantity = total
			continue
		}
		index[sku] = len(out)
		out = append(out, StockItem{SKU: sku, Quantity: it.Quantity})
	}
	return out, nil
}

// CheckSufficiency compara cada ítem contra la suma de los lotes no archivados de su SKU.
// Recorre todos los ítems antes de devolver; el error corresponde al primer SKU insuficiente
// en el orden de la solicitud.
func CheckSufficiency(items []StockItem, lots map[string][]*entity.InventoryRecord) error {
	var first error
	for _, it := range items {
		available := availableQuantity(lots[it.SKU])
		if available < it.Quantity && first == nil {
			first = &domain.InsufficientStockError{SKU: it.SKU, Available: available, Requested: it.Quantity}
		}
	}
	return first
}

func availableQuantity(records []*entity.InventoryRecord) int64 {
	var total int64
	for _, r := range records {
		if !dispatchable(r) {
			continue
		}
		sum, err := inventory.AddQuantity(total, r.Quantity)
		if err != nil {
			return math.MaxInt64
		}
		total = sum
	}
	return total
}

// dispatchable: lotes archivados o en cuarentena no cuentan como stock disponible.
func dispatchable(r *entity.InventoryRecord) bool {
	return !r.IsArchived && !(r.StatusPinned && r.Status == entity.StatusQuarantine)
}

// loadLots bloquea los lotes de cada SKU en orden alfabético para evitar interbloqueos
// entre despachos concurrentes que piden los mismos SKUs en distinto orden.
func loadLots(ctx context.Context, records repository.InventoryRecordRepository, companyID, warehouseID string, items []StockItem) (map[string][]*entity.InventoryRecord, error) {
	skus := make([]string, 0, len(items))
	for _, it := range items {
		skus = append(skus, it.SKU)
	}
	sort.Strings(skus)

	lots := make(map[string][]*entity.InventoryRecord, len(skus))
	for _, sku := range skus {
		list, err := records.ListActiveBySKUForUpdate(ctx, companyID, warehouseID, sku)
		if err != nil {
			return nil, err
		}
		lots[sku] = list
	}
	return lots, nil
}

// ValidateSufficiency verifica, sin mutar nada, que la bodega tenga stock para todos los ítems.
func (e *StockEngine) ValidateSufficiency(ctx context.Context, companyID, warehouseID string, items []StockItem) error {
	if err := requireIDs(companyID, warehouseID); err != nil {
		return err
	}
	normalized, err := normalizeItems(items)
	if err != nil {
		return err
	}
	return e.tx.Run(ctx, func(repos TxRepos) error {
		lots, err := loadLots(ctx, repos.Records, companyID, warehouseID, normalized)
		if err != nil {
			return err
		}
		return CheckSufficiency(normalized, lots)
	})
}

// CheckReturnCoverage devuelve cuánto de la cantidad devuelta no está respaldado por el stock en mano.
// Un faltante > 0 es una inconsistencia blanda: la aprobación continúa pero debe señalarse.
func CheckReturnCoverage(onHand, returned int64) (shortfall int64) {
	if onHand < 0 {
		onHand = 0
	}
	if returned <= onHand {
		return 0
	}
	return returned - onHand
}
