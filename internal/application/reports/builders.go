// Package reports calcula los reportes de inventario (resumen, rotación, antigüedad,
// eficiencia y reposición). Los builders son funciones puras sobre los registros y
// documentos cargados; ningún reporte modifica inventario.
package reports

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/inventory"
)

// DefaultNearExpiryDays ventana de "próximo a vencer".
const DefaultNearExpiryDays = 30

// Nombres de buckets de antigüedad.
const (
	Bucket0To30   = "0-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = "90+"
	replenishDays = 90
)

// UnitValuer valoriza una unidad de un registro (sin modelo de precios real se usa FlatValuer).
type UnitValuer interface {
	UnitValue(rec *entity.InventoryRecord) decimal.Decimal
}

// FlatValuer asigna el mismo valor unitario a todos los registros.
type FlatValuer struct {
	Value decimal.Decimal
}

// UnitValue implementa UnitValuer.
func (v FlatValuer) UnitValue(*entity.InventoryRecord) decimal.Decimal { return v.Value }

// activeRecords descarta los archivados.
func activeRecords(records []*entity.InventoryRecord) []*entity.InventoryRecord {
	out := make([]*entity.InventoryRecord, 0, len(records))
	for _, r := range records {
		if !r.IsArchived {
			out = append(out, r)
		}
	}
	return out
}

// BuildSummary resumen del inventario no archivado. El estado de cada registro se
// deriva al momento del reporte con el mismo clasificador de las mutaciones.
func BuildSummary(records []*entity.InventoryRecord, valuer UnitValuer, now time.Time, nearExpiryDays int) dto.InventorySummaryReport {
	if nearExpiryDays <= 0 {
		nearExpiryDays = DefaultNearExpiryDays
	}
	horizon := now.AddDate(0, 0, nearExpiryDays)

	rep := dto.InventorySummaryReport{
		GeneratedAt:     now,
		TotalStockValue: decimal.Zero,
		StatusBreakdown: map[string]int{},
	}
	skus := map[string]struct{}{}
	for _, r := range activeRecords(records) {
		skus[r.SKU] = struct{}{}
		rep.TotalRecords++
		rep.TotalQuantity += r.Quantity

		status := inventory.DeriveStatus(r, now)
		rep.StatusBreakdown[status]++
		switch status {
		case entity.StatusLowStock:
			rep.StockOutSKUs++
		case entity.StatusOverstock:
			rep.OverstockItems++
		case entity.StatusExpired:
			rep.ExpiredItems++
		case entity.StatusQuarantine:
			rep.QuarantineItems++
		}
		if r.ExpiryDate != nil && !r.ExpiryDate.Before(now) && !r.ExpiryDate.After(horizon) {
			rep.NearExpirySKUs++
		}
		if valuer != nil {
			rep.TotalStockValue = rep.TotalStockValue.Add(valuer.UnitValue(r).Mul(decimal.NewFromInt(r.Quantity)))
		}
	}
	rep.TotalSKUs = len(skus)
	rep.LowStockItems = rep.StockOutSKUs
	return rep
}

// BuildTurnover rotación por SKU en [from, to]. El stock de cierre se reconstruye desde el
// stock actual descontando los movimientos posteriores a to; el de apertura restando el neto
// de la ventana. averageStock = (apertura + cierre) / 2.
func BuildTurnover(records []*entity.InventoryRecord, movements []*entity.StockMovement, from, to time.Time) dto.TurnoverReport {
	type acc struct {
		name                 string
		current              int64
		received, dispatched int64
		netWindow, netAfter  int64
	}
	bySKU := map[string]*acc{}
	get := func(sku string) *acc {
		a, ok := bySKU[sku]
		if !ok {
			a = &acc{}
			bySKU[sku] = a
		}
		return a
	}
	for _, r := range activeRecords(records) {
		a := get(r.SKU)
		a.current += r.Quantity
		if a.name == "" {
			a.name = r.ProductName
		}
	}
	for _, m := range movements {
		if m.CreatedAt.Before(from) {
			continue
		}
		a := get(m.SKU)
		if m.CreatedAt.After(to) {
			a.netAfter += m.Quantity
			continue
		}
		a.netWindow += m.Quantity
		switch m.Type {
		case entity.MovementTypeReceive:
			a.received += m.Quantity
		case entity.MovementTypeDispatch:
			a.dispatched -= m.Quantity
		}
	}

	rep := dto.TurnoverReport{
		Window: dto.ReportWindow{From: from, To: to},
		Items:  make([]dto.TurnoverRow, 0, len(bySKU)),
	}
	var totalAvg float64
	for sku, a := range bySKU {
		closing := nonNegative(a.current - a.netAfter)
		opening := nonNegative(closing - a.netWindow)
		avg := float64(opening+closing) / 2
		rep.Items = append(rep.Items, dto.TurnoverRow{
			SKU:             sku,
			ProductName:     a.name,
			TotalReceived:   a.received,
			TotalDispatched: a.dispatched,
			OpeningStock:    opening,
			ClosingStock:    closing,
			AverageStock:    avg,
			TurnoverRate:    TurnoverRate(a.received, avg),
		})
		rep.TotalReceived += a.received
		totalAvg += avg
	}
	sort.Slice(rep.Items, func(i, j int) bool { return rep.Items[i].SKU < rep.Items[j].SKU })
	rep.AverageStock = totalAvg
	rep.TurnoverRate = TurnoverRate(rep.TotalReceived, totalAvg)
	return rep
}

// TurnoverRate recibido / stock promedio; 0 si el promedio no es positivo.
func TurnoverRate(received int64, averageStock float64) float64 {
	if averageStock <= 0 || math.IsNaN(averageStock) || math.IsInf(averageStock, 0) {
		return 0
	}
	return round2(float64(received) / averageStock)
}

// AgeBucket devuelve el bucket de una edad en días.
func AgeBucket(age int) string {
	switch {
	case age <= 30:
		return Bucket0To30
	case age <= 60:
		return Bucket31To60
	case age <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// BuildAgeing reparte los registros no archivados por edad calculada al momento del reporte.
func BuildAgeing(records []*entity.InventoryRecord, valuer UnitValuer, now time.Time) dto.AgeingReport {
	order := []string{Bucket0To30, Bucket31To60, Bucket61To90, BucketOver90}
	buckets := make(map[string]*dto.AgeingBucket, len(order))
	for _, name := range order {
		buckets[name] = &dto.AgeingBucket{Bucket: name, Value: decimal.Zero}
	}
	for _, r := range activeRecords(records) {
		b := buckets[AgeBucket(r.AgeAt(now))]
		b.RecordCount++
		b.Quantity += r.Quantity
		if valuer != nil {
			b.Value = b.Value.Add(valuer.UnitValue(r).Mul(decimal.NewFromInt(r.Quantity)))
		}
	}
	rep := dto.AgeingReport{GeneratedAt: now, Buckets: make([]dto.AgeingBucket, 0, len(order))}
	for _, name := range order {
		rep.Buckets = append(rep.Buckets, *buckets[name])
	}
	return rep
}

// BuildEfficiency puntaje = 100 × promedio(exactitud de stock, fill rate, proporción sana).
// dispatches ya viene filtrado por la ventana.
func BuildEfficiency(records []*entity.InventoryRecord, dispatches []*entity.DispatchOrder, stockAccuracy float64, now time.Time) dto.EfficiencyReport {
	stockAccuracy = clamp01(stockAccuracy)

	rep := dto.EfficiencyReport{StockAccuracy: stockAccuracy, FillRate: 1, HealthyRatio: 1}
	for _, d := range dispatches {
		if d.Status == entity.DispatchStatusCancelled {
			continue
		}
		rep.DispatchesTotal++
		if d.Status == entity.DispatchStatusDelivered {
			rep.DispatchesDelivered++
		}
	}
	if rep.DispatchesTotal > 0 {
		rep.FillRate = round4(float64(rep.DispatchesDelivered) / float64(rep.DispatchesTotal))
	}

	active := activeRecords(records)
	if len(active) > 0 {
		healthy := 0
		for _, r := range active {
			if inventory.DeriveStatus(r, now) == entity.StatusActive {
				healthy++
			}
		}
		rep.HealthyRatio = round4(float64(healthy) / float64(len(active)))
	}
	rep.EfficiencyScore = round2(100 * (rep.StockAccuracy + rep.FillRate + rep.HealthyRatio) / 3)
	return rep
}

// BuildReplenishment lista los SKUs con algún lote en bajo stock y sugiere cuánto pedir para
// llevarlos al punto medio entre mínimo y máximo. Prioriza por unidades despachadas en la
// ventana y luego por déficit.
func BuildReplenishment(records []*entity.InventoryRecord, movements []*entity.StockMovement, valuer UnitValuer, now time.Time) []dto.ReplenishmentSuggestionDTO {
	type acc struct {
		sample   *entity.InventoryRecord
		current  int64
		min, max int64
		low      bool
	}
	bySKU := map[string]*acc{}
	for _, r := range activeRecords(records) {
		a, ok := bySKU[r.SKU]
		if !ok {
			a = &acc{sample: r}
			bySKU[r.SKU] = a
		}
		a.current += r.Quantity
		if r.MinStockLevel > a.min {
			a.min = r.MinStockLevel
		}
		if r.MaxStockLevel > a.max {
			a.max = r.MaxStockLevel
		}
		if inventory.DeriveStatus(r, now) == entity.StatusLowStock {
			a.low = true
		}
	}
	dispatched := map[string]int64{}
	for _, m := range movements {
		if m.Type == entity.MovementTypeDispatch {
			dispatched[m.SKU] -= m.Quantity
		}
	}

	out := make([]dto.ReplenishmentSuggestionDTO, 0)
	for sku, a := range bySKU {
		if !a.low {
			continue
		}
		ideal := (a.min + a.max) / 2
		suggested := nonNegative(ideal - a.current)
		value := decimal.Zero
		if valuer != nil {
			value = valuer.UnitValue(a.sample).Mul(decimal.NewFromInt(suggested))
		}
		out = append(out, dto.ReplenishmentSuggestionDTO{
			SKU:                 sku,
			ProductName:         a.sample.ProductName,
			CurrentStock:        a.current,
			MinStockLevel:       a.min,
			IdealStock:          ideal,
			SuggestedOrderQty:   suggested,
			EstimatedOrderValue: value,
			UnitsDispatched:     dispatched[sku],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.UnitsDispatched != b.UnitsDispatched {
			return a.UnitsDispatched > b.UnitsDispatched
		}
		if a.SuggestedOrderQty != b.SuggestedOrderQty {
			return a.SuggestedOrderQty > b.SuggestedOrderQty
		}
		return a.SKU < b.SKU
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
