// Package pdf genera la exportación PDF del reporte de inventario de una bodega.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Bodega + código   │  Fecha de generación + ventana  │
//	│  RESUMEN: SKUs / cantidades / valor / conteos por estado     │
//	│  ANTIGÜEDAD: 0-30 | 31-60 | 61-90 | 90+                      │
//	│  ROTACIÓN: SKU | Recibido | Despachado | Prom. | Rotación    │
//	│  EFICIENCIA: exactitud / fill rate / salud / puntaje         │
//	│  FOOTER: QR con la referencia del reporte                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// maxTurnoverRows límite de filas de rotación en el PDF; el resto queda en la API JSON.
const maxTurnoverRows = 40

// ReportHeader datos de la bodega para el encabezado.
type ReportHeader struct {
	WarehouseCode string
	WarehouseName string
}

// ReportPDFGenerator arma el PDF con Maroto v2.
type ReportPDFGenerator struct{}

// NewReportPDFGenerator construye el generador.
func NewReportPDFGenerator() *ReportPDFGenerator { return &ReportPDFGenerator{} }

// GenerateInventoryReport genera el PDF y devuelve sus bytes.
func (g *ReportPDFGenerator) GenerateInventoryReport(_ context.Context, header ReportHeader, rep *dto.FullInventoryReport) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de inventario "+header.WarehouseCode, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(header, rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(sectionTitle("RESUMEN"))
	m.AddRows(summaryRows(rep.Summary)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("ANTIGÜEDAD DEL INVENTARIO"))
	m.AddRows(ageingRow(rep.Ageing))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("ROTACIÓN POR SKU"))
	m.AddRows(turnoverHeaderRow())
	m.AddRows(turnoverRows(rep.Turnover.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("EFICIENCIA"))
	m.AddRows(efficiencyRow(rep.Efficiency))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(rep))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(h ReportHeader, rep *dto.FullInventoryReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(h.WarehouseName, "Bodega"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+nonEmpty(h.WarehouseCode, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REPORTE DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+rep.Summary.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Ventana: "+formatWindow(rep.Turnover.Window), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(text.New(s, props.Text{
		Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
	})))
}

func summaryRows(s dto.InventorySummaryReport) []core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		)
	}
	return []core.Row{
		row.New(12).Add(
			cell("SKUs", strconv.Itoa(s.TotalSKUs)),
			cell("Registros", strconv.Itoa(s.TotalRecords)),
			cell("Unidades", formatMoney(strconv.FormatInt(s.TotalQuantity, 10))),
			cell("Valor", "$"+formatMoney(s.TotalStockValue.StringFixed(0))),
		),
		row.New(12).Add(
			cell("Bajo mínimo", strconv.Itoa(s.LowStockItems)),
			cell("Sobrestock", strconv.Itoa(s.OverstockItems)),
			cell("Vencidos", strconv.Itoa(s.ExpiredItems)),
			cell("Por vencer", strconv.Itoa(s.NearExpirySKUs)),
		),
	}
}

func ageingRow(a dto.AgeingReport) core.Row {
	cols := make([]core.Col, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		cols = append(cols, col.New(3).Add(
			text.New(b.Bucket+" días", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
			text.New(fmt.Sprintf("%d registros · %s u.", b.RecordCount, formatMoney(strconv.FormatInt(b.Quantity, 10))), props.Text{
				Size: 8, Top: 5,
			}),
			text.New("$"+formatMoney(b.Value.StringFixed(0)), props.Text{Size: 8, Top: 9, Color: colorGray}),
		))
	}
	return row.New(14).Add(cols...)
}

func turnoverHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 1, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Recibido", 2, align.Right),
		h("Despachado", 2, align.Right),
		h("Rotación", 2, align.Right),
	)
}

func turnoverRows(items []dto.TurnoverRow) []core.Row {
	if len(items) > maxTurnoverRows {
		items = items[:maxTurnoverRows]
	}
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(it.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(it.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(it.TotalReceived, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(strconv.FormatInt(it.TotalDispatched, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(strconv.FormatFloat(it.TurnoverRate, 'f', 2, 64), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func efficiencyRow(e dto.EfficiencyReport) core.Row {
	pct := func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" }
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		)
	}
	return row.New(12).Add(
		cell("Exactitud", pct(e.StockAccuracy)),
		cell("Fill rate", pct(e.FillRate)),
		cell("Salud", pct(e.HealthyRatio)),
		cell("Puntaje", strconv.FormatFloat(e.EfficiencyScore, 'f', 2, 64)),
	)
}

func footerRow(rep *dto.FullInventoryReport) core.Row {
	ref := fmt.Sprintf("vendstock:%s:%d", rep.Summary.WarehouseID, rep.Summary.GeneratedAt.Unix())
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(ref, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Referencia del reporte", props.Text{Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3, Color: colorPrimary}),
			text.New(ref, props.Text{Size: 7, Top: 10, Left: 3, Color: colorGray}),
		),
	)
}

func formatWindow(w dto.ReportWindow) string {
	if w.From.IsZero() && w.To.IsZero() {
		return "—"
	}
	return w.From.Format("02/01/2006") + " – " + w.To.Format("02/01/2006")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}

