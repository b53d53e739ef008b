package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/application/reports"
	"github.com/jhoicas/vendstock-api/internal/application/usecase"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/pdf"
)

// ReportObserver recibe la duración de cada reporte (Prometheus en producción).
type ReportObserver interface {
	ObserveReport(report string, d time.Duration)
}

// ReportHandler reportes de inventario por bodega (protegido).
type ReportHandler struct {
	uc         *reports.ReportUseCase
	warehouses *usecase.WarehouseUseCase
	pdf        *pdf.ReportPDFGenerator
	observer   ReportObserver
}

// NewReportHandler construye el handler. observer puede ser nil.
func NewReportHandler(uc *reports.ReportUseCase, warehouses *usecase.WarehouseUseCase, gen *pdf.ReportPDFGenerator, observer ReportObserver) *ReportHandler {
	return &ReportHandler{uc: uc, warehouses: warehouses, pdf: gen, observer: observer}
}

func (h *ReportHandler) filter(c *fiber.Ctx) (reports.Filter, bool) {
	from, ok1 := timeQuery(c, "from", false)
	to, ok2 := timeQuery(c, "to", true)
	if !ok1 || !ok2 {
		return reports.Filter{}, false
	}
	return reports.Filter{
		CompanyID:   GetCompanyID(c),
		WarehouseID: c.Query("warehouse_id"),
		From:        from,
		To:          to,
		Category:    c.Query("category"),
	}, true
}

// run mide el reporte y responde JSON.
func (h *ReportHandler) run(c *fiber.Ctx, name string, build func(context.Context, reports.Filter) (interface{}, error)) error {
	f, ok := h.filter(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from/to inválidos (RFC3339 o YYYY-MM-DD)"})
	}
	start := time.Now()
	out, err := build(c.UserContext(), f)
	if h.observer != nil {
		h.observer.ObserveReport(name, time.Since(start))
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de inventario
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        category      query  string  false  "Categoría o prefijo del nombre"
// @Success      200  {object}  dto.InventorySummaryReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	return h.run(c, "summary", func(ctx context.Context, f reports.Filter) (interface{}, error) {
		return h.uc.Summary(ctx, f)
	})
}

// Turnover godoc
// @Summary      Rotación por SKU
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        from          query  string  false  "Desde (default: hace 30 días)"
// @Param        to            query  string  false  "Hasta (default: ahora)"
// @Param        category      query  string  false  "Categoría o prefijo del nombre"
// @Success      200  {object}  dto.TurnoverReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/turnover [get]
func (h *ReportHandler) Turnover(c *fiber.Ctx) error {
	return h.run(c, "turnover", func(ctx context.Context, f reports.Filter) (interface{}, error) {
		return h.uc.Turnover(ctx, f)
	})
}

// Ageing godoc
// @Summary      Antigüedad del inventario
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        category      query  string  false  "Categoría o prefijo del nombre"
// @Success      200  {object}  dto.AgeingReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/ageing [get]
func (h *ReportHandler) Ageing(c *fiber.Ctx) error {
	return h.run(c, "ageing", func(ctx context.Context, f reports.Filter) (interface{}, error) {
		return h.uc.Ageing(ctx, f)
	})
}

// Efficiency godoc
// @Summary      Eficiencia de la bodega
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {object}  dto.EfficiencyReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/efficiency [get]
func (h *ReportHandler) Efficiency(c *fiber.Ctx) error {
	return h.run(c, "efficiency", func(ctx context.Context, f reports.Filter) (interface{}, error) {
		return h.uc.Efficiency(ctx, f)
	})
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  SKUs en bajo stock con la cantidad sugerida para volver al punto medio (min+max)/2.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true  "Bodega (UUID)"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/replenishment [get]
func (h *ReportHandler) Replenishment(c *fiber.Ctx) error {
	return h.run(c, "replenishment", func(ctx context.Context, f reports.Filter) (interface{}, error) {
		return h.uc.Replenishment(ctx, f)
	})
}

// Full godoc
// @Summary      Reporte completo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {object}  dto.FullInventoryReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/full [get]
func (h *ReportHandler) Full(c *fiber.Ctx) error {
	return h.run(c, "full", func(ctx context.Context, f reports.Filter) (interface{}, error) {
		return h.uc.Full(ctx, f)
	})
}

// PDF godoc
// @Summary      Exportar reporte completo en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {file}    file
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/pdf [get]
func (h *ReportHandler) PDF(c *fiber.Ctx) error {
	f, ok := h.filter(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from/to inválidos (RFC3339 o YYYY-MM-DD)"})
	}
	start := time.Now()
	full, err := h.uc.Full(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	wh, err := h.warehouses.GetByID(c.UserContext(), f.CompanyID, f.WarehouseID)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.pdf.GenerateInventoryReport(c.UserContext(), pdf.ReportHeader{WarehouseCode: wh.Code, WarehouseName: wh.Name}, full)
	if h.observer != nil {
		h.observer.ObserveReport("pdf", time.Since(start))
	}
	if err != nil {
		return writeError(c, err)
	}
	filename := fmt.Sprintf("inventario-%s-%s.pdf", wh.Code, full.Summary.GeneratedAt.Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(out)
}
