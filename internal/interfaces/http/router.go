package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/application/reports"
	"github.com/jhoicas/vendstock-api/internal/application/usecase"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/pdf"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine         *inventory.StockEngine
	DispatchUC     *inventory.DispatchUseCase
	ReturnUC       *inventory.ReturnUseCase
	ReportUC       *reports.ReportUseCase
	WarehouseUC    *usecase.WarehouseUseCase
	PDF            *pdf.ReportPDFGenerator
	ReportObserver ReportObserver
	Gatherer       prometheus.Gatherer // nil = sin /metrics
	JWTSecret      string
	Logger         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	manage := RequirePermission(PermInventoryManage)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Post("/", manage, warehouseHandler.Create)
	warehouses.Put("/:id", manage, warehouseHandler.Update)

	// Inventory (las rutas fijas antes de /:id)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.Logger)
	invGroup.Get("/", inventoryHandler.List)
	invGroup.Get("/movements", inventoryHandler.Movements)
	invGroup.Post("/validate", inventoryHandler.ValidateStock)
	invGroup.Post("/receive", manage, inventoryHandler.Receive)
	invGroup.Post("/bulk-archive", manage, inventoryHandler.BulkArchive)
	invGroup.Post("/bulk-unarchive", manage, inventoryHandler.BulkUnarchive)
	invGroup.Get("/:id", inventoryHandler.GetByID)
	invGroup.Patch("/:id", manage, inventoryHandler.Edit)
	invGroup.Post("/:id/archive", manage, inventoryHandler.Archive)
	invGroup.Post("/:id/unarchive", manage, inventoryHandler.Unarchive)
	invGroup.Post("/:id/quarantine", manage, inventoryHandler.Quarantine)
	invGroup.Post("/:id/release", manage, inventoryHandler.ReleaseQuarantine)

	// Dispatches
	dispatches := protected.Group("/dispatches")
	dispatchHandler := NewDispatchHandler(deps.DispatchUC, deps.Logger)
	dispatches.Get("/", dispatchHandler.List)
	dispatches.Get("/:id", dispatchHandler.GetByID)
	dispatches.Post("/", manage, dispatchHandler.Create)
	dispatches.Post("/:id/assign", RequirePermission(PermDispatchAssign), dispatchHandler.Assign)
	dispatches.Post("/:id/advance", RequirePermission(PermDispatchAssign), dispatchHandler.Advance)
	dispatches.Post("/:id/cancel", manage, dispatchHandler.Cancel)

	// Returns
	returns := protected.Group("/returns")
	returnHandler := NewReturnHandler(deps.ReturnUC, deps.Logger)
	returns.Get("/", returnHandler.List)
	returns.Get("/:id", returnHandler.GetByID)
	returns.Post("/", manage, returnHandler.Create)
	returns.Post("/:id/approve", RequirePermission(PermReturnReview), returnHandler.Approve)
	returns.Post("/:id/reject", RequirePermission(PermReturnReview), returnHandler.Reject)

	// Reports
	rep := protected.Group("/reports", RequirePermission(PermReportsView))
	reportHandler := NewReportHandler(deps.ReportUC, deps.WarehouseUC, deps.PDF, deps.ReportObserver)
	rep.Get("/summary", reportHandler.Summary)
	rep.Get("/turnover", reportHandler.Turnover)
	rep.Get("/ageing", reportHandler.Ageing)
	rep.Get("/efficiency", reportHandler.Efficiency)
	rep.Get("/replenishment", reportHandler.Replenishment)
	rep.Get("/full", reportHandler.Full)
	rep.Get("/pdf", reportHandler.PDF)
}
