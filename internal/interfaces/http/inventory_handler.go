package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// InventoryHandler maneja recepción, edición, archivo y consultas de registros de inventario (protegido).
// Las mutaciones dejan traza de auditoría (antes/después) en el log.
type InventoryHandler struct {
	engine *inventory.StockEngine
	log    zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.StockEngine, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{engine: engine, log: log.With().Str("component", "inventory_handler").Logger()}
}

// Receive godoc
// @Summary      Recibir stock
// @Description  Suma la cantidad al registro (sku, lote, bodega) o lo crea con umbrales por defecto.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveStockRequest  true  "Lote recibido"
// @Success      201   {object}  dto.ReceiveStockResponse  "registro creado"
// @Success      200   {object}  dto.ReceiveStockResponse  "cantidad sumada a un registro existente"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/receive [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	rec, created, err := h.engine.Receive(c.UserContext(), inventory.ReceiveInput{
		CompanyID:     GetCompanyID(c),
		SKU:           in.SKU,
		ProductName:   in.ProductName,
		Category:      in.Category,
		BatchID:       in.BatchID,
		WarehouseID:   in.WarehouseID,
		Quantity:      in.Quantity,
		Location:      toLocation(in.Location),
		MinStockLevel: in.MinStockLevel,
		MaxStockLevel: in.MaxStockLevel,
		ExpiryDate:    in.ExpiryDate,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().
		Str("user_id", GetUserID(c)).
		Str("record_id", rec.ID).
		Str("sku", rec.SKU).
		Str("batch_id", rec.BatchID).
		Int64("received", in.Quantity).
		Int64("quantity", rec.Quantity).
		Bool("created", created).
		Msg("stock recibido")

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(dto.ReceiveStockResponse{Created: created, Record: toRecordResponse(rec)})
}

// List godoc
// @Summary      Listar registros de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id      query  string  false  "Bodega (UUID)"
// @Param        sku               query  string  false  "SKU exacto"
// @Param        category          query  string  false  "Categoría"
// @Param        status            query  string  false  "active, low_stock, overstock, expired, quarantine, archived"
// @Param        include_archived  query  bool    false  "Incluir archivados"
// @Param        limit             query  int     false  "Límite"  default(20)
// @Param        offset            query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.InventoryListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.engine.List(c.UserContext(), repository.RecordFilter{
		CompanyID:       GetCompanyID(c),
		WarehouseID:     c.Query("warehouse_id"),
		SKU:             c.Query("sku"),
		Category:        c.Query("category"),
		Status:          c.Query("status"),
		IncludeArchived: c.QueryBool("include_archived", false),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InventoryListResponse{
		Items: toRecordResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	})
}

// GetByID godoc
// @Summary      Obtener registro de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.InventoryRecordResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	rec, err := h.engine.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toRecordResponse(rec))
}

// Edit godoc
// @Summary      Edición manual de un registro
// @Description  Solo campos de la lista blanca. Recalcula edad y estado.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del registro"
// @Param        body  body  dto.EditRecordRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.InventoryRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [patch]
func (h *InventoryHandler) Edit(c *fiber.Ctx) error {
	var in dto.EditRecordRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	edit := inventory.EditInput{
		SKU:           in.SKU,
		ProductName:   in.ProductName,
		BatchID:       in.BatchID,
		Quantity:      in.Quantity,
		MinStockLevel: in.MinStockLevel,
		MaxStockLevel: in.MaxStockLevel,
		ExpiryDate:    in.ExpiryDate,
		ClearExpiry:   in.ClearExpiry,
		UpdatedBy:     GetUserID(c),
	}
	if in.Location != nil {
		loc := toLocation(*in.Location)
		edit.Location = &loc
	}
	res, err := h.engine.ManualEdit(c.UserContext(), GetCompanyID(c), c.Params("id"), edit)
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().
		Str("user_id", GetUserID(c)).
		Str("record_id", res.Record.ID).
		Interface("before", toRecordResponse(res.Previous)).
		Interface("after", toRecordResponse(res.Record)).
		Msg("registro editado")
	return c.JSON(toRecordResponse(res.Record))
}

// Archive godoc
// @Summary      Archivar registro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.ArchiveRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/archive [post]
func (h *InventoryHandler) Archive(c *fiber.Ctx) error {
	return h.setArchived(c, true)
}

// Unarchive godoc
// @Summary      Desarchivar registro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.ArchiveRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/unarchive [post]
func (h *InventoryHandler) Unarchive(c *fiber.Ctx) error {
	return h.setArchived(c, false)
}

func (h *InventoryHandler) setArchived(c *fiber.Ctx, archive bool) error {
	var (
		res *inventory.ArchiveResult
		err error
	)
	if archive {
		res, err = h.engine.Archive(c.UserContext(), GetCompanyID(c), c.Params("id"))
	} else {
		res, err = h.engine.Unarchive(c.UserContext(), GetCompanyID(c), c.Params("id"))
	}
	if err != nil {
		return writeError(c, err)
	}
	if res.WasArchived != archive {
		h.log.Info().
			Str("user_id", GetUserID(c)).
			Str("record_id", res.Record.ID).
			Bool("archived", archive).
			Str("status", res.Record.Status).
			Msg("archivo de registro")
	}
	return c.JSON(dto.ArchiveRecordResponse{WasArchived: res.WasArchived, Record: toRecordResponse(res.Record)})
}

// BulkArchive godoc
// @Summary      Archivar en lote
// @Description  Best-effort por id. 207 si algún id falló.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkIDsRequest  true  "IDs"
// @Success      200   {object}  dto.BulkArchiveResponse
// @Success      207   {object}  dto.BulkArchiveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/bulk-archive [post]
func (h *InventoryHandler) BulkArchive(c *fiber.Ctx) error {
	return h.bulk(c, true)
}

// BulkUnarchive godoc
// @Summary      Desarchivar en lote
// @Description  Best-effort por id. 207 si algún id falló.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkIDsRequest  true  "IDs"
// @Success      200   {object}  dto.BulkArchiveResponse
// @Success      207   {object}  dto.BulkArchiveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/bulk-unarchive [post]
func (h *InventoryHandler) BulkUnarchive(c *fiber.Ctx) error {
	return h.bulk(c, false)
}

func (h *InventoryHandler) bulk(c *fiber.Ctx, archive bool) error {
	var in dto.BulkIDsRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	var (
		res *inventory.BulkResult
		err error
	)
	if archive {
		res, err = h.engine.BulkArchive(c.UserContext(), GetCompanyID(c), in.IDs)
	} else {
		res, err = h.engine.BulkUnarchive(c.UserContext(), GetCompanyID(c), in.IDs)
	}
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().
		Str("user_id", GetUserID(c)).
		Bool("archived", archive).
		Int("succeeded", res.SucceededCount).
		Int("failed", res.FailedCount).
		Strs("failed_ids", res.FailedIDs).
		Msg("archivo en lote")

	status := fiber.StatusOK
	if res.FailedCount > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(toBulkResponse(res))
}

// Quarantine godoc
// @Summary      Poner un lote en cuarentena
// @Description  Fija el estado quarantine; las recepciones y ediciones no lo cambian hasta liberarlo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.InventoryRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/quarantine [post]
func (h *InventoryHandler) Quarantine(c *fiber.Ctx) error {
	rec, err := h.engine.Quarantine(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("user_id", GetUserID(c)).Str("record_id", rec.ID).Msg("lote en cuarentena")
	return c.JSON(toRecordResponse(rec))
}

// ReleaseQuarantine godoc
// @Summary      Liberar cuarentena
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.InventoryRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/release [post]
func (h *InventoryHandler) ReleaseQuarantine(c *fiber.Ctx) error {
	rec, err := h.engine.ReleaseQuarantine(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("user_id", GetUserID(c)).Str("record_id", rec.ID).Str("status", rec.Status).Msg("cuarentena liberada")
	return c.JSON(toRecordResponse(rec))
}

// Movements godoc
// @Summary      Libro de movimientos de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        sku           query  string  false  "SKU"
// @Param        type          query  string  false  "RECEIVE, DISPATCH, RETURN, ADJUSTMENT"
// @Param        from          query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to            query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	from, ok := timeQuery(c, "from", false)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido"})
	}
	to, ok := timeQuery(c, "to", true)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido"})
	}
	list, err := h.engine.Movements(c.UserContext(), repository.MovementFilter{
		CompanyID:   GetCompanyID(c),
		WarehouseID: c.Query("warehouse_id"),
		SKU:         c.Query("sku"),
		Type:        c.Query("type"),
		From:        from,
		To:          to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponses(list))
}

// ValidateStock godoc
// @Summary      Verificar suficiencia de stock
// @Description  No modifica nada. sufficient=false trae el primer SKU que no alcanza.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateStockRequest  true  "Bodega e ítems"
// @Success      200   {object}  dto.ValidateStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/validate [post]
func (h *InventoryHandler) ValidateStock(c *fiber.Ctx) error {
	var in dto.ValidateStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	err := h.engine.ValidateSufficiency(c.UserContext(), GetCompanyID(c), in.WarehouseID, toStockItems(in.Items))
	var insufficient *domain.InsufficientStockError
	switch {
	case err == nil:
		return c.JSON(dto.ValidateStockResponse{Sufficient: true})
	case errors.As(err, &insufficient):
		return c.JSON(dto.ValidateStockResponse{
			Sufficient: false,
			SKU:        insufficient.SKU,
			Available:  insufficient.Available,
			Requested:  insufficient.Requested,
		})
	default:
		return writeError(c, err)
	}
}
