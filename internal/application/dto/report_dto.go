package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportWindow período evaluado por el reporte.
type ReportWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// InventorySummaryReport respuesta de GET /api/reports/summary.
// StockOutSKUs y LowStockItems provienen del mismo conteo y nunca difieren.
type InventorySummaryReport struct {
	WarehouseID     string          `json:"warehouse_id"`
	GeneratedAt     time.Time       `json:"generated_at"`
	TotalSKUs       int             `json:"total_skus"`
	TotalRecords    int             `json:"total_records"`
	TotalQuantity   int64           `json:"total_quantity"`
	StockOutSKUs    int             `json:"stock_out_skus"`
	LowStockItems   int             `json:"low_stock_items"`
	OverstockItems  int             `json:"overstock_items"`
	ExpiredItems    int             `json:"expired_items"`
	QuarantineItems int             `json:"quarantine_items"`
	NearExpirySKUs  int             `json:"near_expiry_skus"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	StatusBreakdown map[string]int  `json:"status_breakdown"`
}

// TurnoverRow rotación de un SKU en la ventana.
type TurnoverRow struct {
	SKU             string  `json:"sku"`
	ProductName     string  `json:"product_name"`
	TotalReceived   int64   `json:"total_received"`
	TotalDispatched int64   `json:"total_dispatched"`
	OpeningStock    int64   `json:"opening_stock"`
	ClosingStock    int64   `json:"closing_stock"`
	AverageStock    float64 `json:"average_stock"`
	TurnoverRate    float64 `json:"turnover_rate"` // 0 si AverageStock = 0
}

// TurnoverReport respuesta de GET /api/reports/turnover.
type TurnoverReport struct {
	WarehouseID   string        `json:"warehouse_id"`
	Window        ReportWindow  `json:"window"`
	TotalReceived int64         `json:"total_received"`
	AverageStock  float64       `json:"average_stock"`
	TurnoverRate  float64       `json:"turnover_rate"`
	Items         []TurnoverRow `json:"items"`
}

// AgeingBucket agrupa registros por edad en días.
type AgeingBucket struct {
	Bucket      string          `json:"bucket"` // 0-30, 31-60, 61-90, 90+
	RecordCount int             `json:"record_count"`
	Quantity    int64           `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
}

// AgeingReport respuesta de GET /api/reports/ageing.
type AgeingReport struct {
	WarehouseID string         `json:"warehouse_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Buckets     []AgeingBucket `json:"buckets"`
}

// EfficiencyReport respuesta de GET /api/reports/efficiency.
type EfficiencyReport struct {
	WarehouseID         string       `json:"warehouse_id"`
	Window              ReportWindow `json:"window"`
	StockAccuracy       float64      `json:"stock_accuracy"` // medido externamente (conteos cíclicos)
	FillRate            float64      `json:"fill_rate"`      // entregados / despachos no cancelados
	HealthyRatio        float64      `json:"healthy_ratio"`  // registros active / no archivados
	DispatchesTotal     int          `json:"dispatches_total"`
	DispatchesDelivered int          `json:"dispatches_delivered"`
	EfficiencyScore     float64      `json:"efficiency_score"` // 0..100
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un SKU en bajo stock.
type ReplenishmentSuggestionDTO struct {
	SKU                 string          `json:"sku"`
	ProductName         string          `json:"product_name"`
	CurrentStock        int64           `json:"current_stock"`
	MinStockLevel       int64           `json:"min_stock_level"`
	IdealStock          int64           `json:"ideal_stock"`         // (min + max) / 2
	SuggestedOrderQty   int64           `json:"suggested_order_qty"` // IdealStock - CurrentStock
	EstimatedOrderValue decimal.Decimal `json:"estimated_order_value"`
	UnitsDispatched     int64           `json:"units_dispatched"` // salidas en la ventana
	Priority            int             `json:"priority"`         // 1 = más urgente
}

// FullInventoryReport agrupa los cuatro reportes (exportación PDF).
type FullInventoryReport struct {
	Summary    InventorySummaryReport `json:"summary"`
	Turnover   TurnoverReport         `json:"turnover"`
	Ageing     AgeingReport           `json:"ageing"`
	Efficiency EfficiencyReport       `json:"efficiency"`
}
