package reports

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

var reportNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func rec(sku string, qty, min, max int64, opts ...func(*entity.InventoryRecord)) *entity.InventoryRecord {
	r := &entity.InventoryRecord{
		ID:            uuid.New().String(),
		SKU:           sku,
		ProductName:   "Producto " + sku,
		BatchID:       "B1",
		Quantity:      qty,
		MinStockLevel: min,
		MaxStockLevel: max,
		CreatedAt:     reportNow.AddDate(0, 0, -5),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func expiring(t time.Time) func(*entity.InventoryRecord) {
	return func(r *entity.InventoryRecord) { r.ExpiryDate = &t }
}

func archived(r *entity.InventoryRecord) { r.IsArchived = true; r.Status = entity.StatusArchived }

func createdDaysAgo(days int) func(*entity.InventoryRecord) {
	return func(r *entity.InventoryRecord) { r.CreatedAt = reportNow.AddDate(0, 0, -days) }
}

func mov(sku, kind string, qty int64, at time.Time) *entity.StockMovement {
	return &entity.StockMovement{ID: uuid.New().String(), SKU: sku, Type: kind, Quantity: qty, CreatedAt: at}
}

func TestBuildSummary_ConteosYValor(t *testing.T) {
	records := []*entity.InventoryRecord{
		rec("A1", 5, 10, 100),
		rec("A1", 50, 10, 100, expiring(reportNow.AddDate(0, 0, 10))),
		rec("B2", 95, 10, 100),
		rec("C3", 40, 10, 100, expiring(reportNow.Add(-time.Hour))),
		rec("D4", 30, 10, 100, expiring(reportNow)),
		rec("E5", 1, 10, 100, archived),
	}

	rep := BuildSummary(records, FlatValuer{Value: decimal.RequireFromString("2.5")}, reportNow, 30)

	assert.Equal(t, 4, rep.TotalSKUs)
	assert.Equal(t, 5, rep.TotalRecords)
	assert.EqualValues(t, 220, rep.TotalQuantity)
	assert.Equal(t, 1, rep.StockOutSKUs)
	assert.Equal(t, rep.StockOutSKUs, rep.LowStockItems)
	assert.Equal(t, 1, rep.OverstockItems)
	assert.Equal(t, 1, rep.ExpiredItems)
	assert.Equal(t, 2, rep.NearExpirySKUs, "vencimiento exactamente en now cuenta como próximo a vencer")
	assert.True(t, decimal.NewFromInt(550).Equal(rep.TotalStockValue), rep.TotalStockValue.String())
	assert.Equal(t, 2, rep.StatusBreakdown[entity.StatusActive])
}

func TestBuildSummary_LimiteSuperiorDeVencimientoInclusivo(t *testing.T) {
	records := []*entity.InventoryRecord{
		rec("A1", 50, 10, 100, expiring(reportNow.AddDate(0, 0, 30))),
		rec("A2", 50, 10, 100, expiring(reportNow.AddDate(0, 0, 30).Add(time.Second))),
	}
	rep := BuildSummary(records, nil, reportNow, 30)
	assert.Equal(t, 1, rep.NearExpirySKUs)
	assert.True(t, rep.TotalStockValue.IsZero())
}

func TestBuildTurnover_CalculaAperturaCierreYRotacion(t *testing.T) {
	from := reportNow.AddDate(0, 0, -30)
	records := []*entity.InventoryRecord{rec("A1", 40, 0, 1000)}
	movements := []*entity.StockMovement{
		mov("A1", entity.MovementTypeReceive, 50, from.Add(time.Hour)),
		mov("A1", entity.MovementTypeDispatch, -10, from.Add(2*time.Hour)),
	}

	rep := BuildTurnover(records, movements, from, reportNow)
	require.Len(t, rep.Items, 1)
	row := rep.Items[0]
	assert.EqualValues(t, 50, row.TotalReceived)
	assert.EqualValues(t, 10, row.TotalDispatched)
	assert.EqualValues(t, 40, row.ClosingStock)
	assert.EqualValues(t, 0, row.OpeningStock)
	assert.InDelta(t, 20.0, row.AverageStock, 1e-9)
	assert.InDelta(t, 2.5, row.TurnoverRate, 1e-9)
	assert.EqualValues(t, 50, rep.TotalReceived)
}

func TestBuildTurnover_ExcluyeMovimientosPosterioresAlCierre(t *testing.T) {
	from := reportNow.AddDate(0, 0, -30)
	to := reportNow.AddDate(0, 0, -10)
	records := []*entity.InventoryRecord{rec("A1", 30, 0, 1000)}
	movements := []*entity.StockMovement{
		mov("A1", entity.MovementTypeReceive, 20, from.Add(time.Hour)),
		mov("A1", entity.MovementTypeReceive, 10, to.Add(time.Hour)),
	}

	rep := BuildTurnover(records, movements, from, to)
	row := rep.Items[0]
	assert.EqualValues(t, 20, row.ClosingStock)
	assert.EqualValues(t, 0, row.OpeningStock)
	assert.EqualValues(t, 20, row.TotalReceived)
	assert.InDelta(t, 2.0, row.TurnoverRate, 1e-9)
}

func TestBuildTurnover_PromedioCeroNoDivide(t *testing.T) {
	records := []*entity.InventoryRecord{rec("A1", 0, 0, 1000)}
	rep := BuildTurnover(records, nil, reportNow.AddDate(0, 0, -30), reportNow)
	require.Len(t, rep.Items, 1)
	assert.Equal(t, 0.0, rep.Items[0].TurnoverRate)
	assert.False(t, math.IsNaN(rep.TurnoverRate))
	assert.Equal(t, 0.0, rep.TurnoverRate)

	assert.Equal(t, 0.0, TurnoverRate(10, 0))
	assert.Equal(t, 0.0, TurnoverRate(10, math.NaN()))
}

func TestAgeBucket_Limites(t *testing.T) {
	cases := map[int]string{
		0: Bucket0To30, 30: Bucket0To30,
		31: Bucket31To60, 60: Bucket31To60,
		61: Bucket61To90, 90: Bucket61To90,
		91: BucketOver90, 400: BucketOver90,
	}
	for age, want := range cases {
		assert.Equal(t, want, AgeBucket(age), "edad %d", age)
	}
}

func TestBuildAgeing_UsaEdadAlMomentoDelReporte(t *testing.T) {
	records := []*entity.InventoryRecord{
		rec("A1", 10, 0, 1000, createdDaysAgo(3)),
		rec("A2", 20, 0, 1000, createdDaysAgo(45)),
		rec("A3", 30, 0, 1000, createdDaysAgo(95)),
		rec("A4", 40, 0, 1000, createdDaysAgo(95), archived),
	}
	records[0].Age = 200 // valor almacenado desactualizado: se ignora

	rep := BuildAgeing(records, FlatValuer{Value: decimal.NewFromInt(1)}, reportNow)
	require.Len(t, rep.Buckets, 4)
	assert.Equal(t, Bucket0To30, rep.Buckets[0].Bucket)
	assert.Equal(t, 1, rep.Buckets[0].RecordCount)
	assert.EqualValues(t, 10, rep.Buckets[0].Quantity)
	assert.Equal(t, 1, rep.Buckets[1].RecordCount)
	assert.Equal(t, 0, rep.Buckets[2].RecordCount)
	assert.Equal(t, 1, rep.Buckets[3].RecordCount)
	assert.True(t, decimal.NewFromInt(30).Equal(rep.Buckets[3].Value))
}

func TestBuildEfficiency_Puntaje(t *testing.T) {
	records := []*entity.InventoryRecord{
		rec("A1", 50, 10, 100),
		rec("A2", 50, 10, 100),
		rec("A3", 5, 10, 100),
		rec("A4", 99, 10, 100),
		rec("A5", 5, 10, 100, archived),
	}
	dispatches := []*entity.DispatchOrder{
		{Status: entity.DispatchStatusDelivered},
		{Status: entity.DispatchStatusDelivered},
		{Status: entity.DispatchStatusDelivered},
		{Status: entity.DispatchStatusInTransit},
		{Status: entity.DispatchStatusCancelled},
	}

	rep := BuildEfficiency(records, dispatches, 0.9, reportNow)
	assert.Equal(t, 4, rep.DispatchesTotal)
	assert.Equal(t, 3, rep.DispatchesDelivered)
	assert.InDelta(t, 0.75, rep.FillRate, 1e-9)
	assert.InDelta(t, 0.5, rep.HealthyRatio, 1e-9)
	assert.InDelta(t, 71.67, rep.EfficiencyScore, 1e-9)
}

func TestBuildEfficiency_SinDatosEsNeutral(t *testing.T) {
	rep := BuildEfficiency(nil, nil, 1, reportNow)
	assert.Equal(t, 100.0, rep.EfficiencyScore)

	rep = BuildEfficiency(nil, nil, 7, reportNow)
	assert.Equal(t, 1.0, rep.StockAccuracy, "la exactitud se acota a [0,1]")
}

func TestBuildReplenishment_PriorizaPorSalidas(t *testing.T) {
	records := []*entity.InventoryRecord{
		rec("A1", 5, 10, 100),
		rec("B2", 2, 10, 50),
		rec("C3", 60, 10, 100),
		rec("D4", 1, 10, 100, archived),
	}
	movements := []*entity.StockMovement{
		mov("B2", entity.MovementTypeDispatch, -30, reportNow.AddDate(0, 0, -3)),
		mov("A1", entity.MovementTypeDispatch, -10, reportNow.AddDate(0, 0, -2)),
	}

	out := BuildReplenishment(records, movements, FlatValuer{Value: decimal.NewFromInt(2)}, reportNow)
	require.Len(t, out, 2)
	assert.Equal(t, "B2", out[0].SKU)
	assert.Equal(t, 1, out[0].Priority)
	assert.EqualValues(t, 30, out[0].IdealStock)
	assert.EqualValues(t, 28, out[0].SuggestedOrderQty)
	assert.True(t, decimal.NewFromInt(56).Equal(out[0].EstimatedOrderValue))
	assert.Equal(t, "A1", out[1].SKU)
	assert.EqualValues(t, 50, out[1].SuggestedOrderQty)
}
