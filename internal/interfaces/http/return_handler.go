package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// ReturnHandler devoluciones contra un lote (protegido).
type ReturnHandler struct {
	uc  *inventory.ReturnUseCase
	log zerolog.Logger
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *inventory.ReturnUseCase, log zerolog.Logger) *ReturnHandler {
	return &ReturnHandler{uc: uc, log: log.With().Str("component", "return_handler").Logger()}
}

// Create godoc
// @Summary      Registrar devolución
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReturnRequest  true  "Lote y cantidad"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	order, err := h.uc.Create(c.UserContext(), inventory.CreateReturnInput{
		CompanyID:   GetCompanyID(c),
		WarehouseID: in.WarehouseID,
		DispatchID:  in.DispatchID,
		SKU:         in.SKU,
		BatchID:     in.BatchID,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		CreatedBy:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReturnResponse(order))
}

// List godoc
// @Summary      Listar devoluciones
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        status        query  string  false  "pending, approved, rejected"
// @Success      200  {array}   dto.ReturnResponse
// @Router       /api/returns [get]
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	warehouseID, ok := optionalUUID(c, "warehouse_id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "warehouse_id inválido"})
	}
	list, err := h.uc.List(c.UserContext(), repository.ReturnFilter{
		CompanyID:   GetCompanyID(c),
		WarehouseID: warehouseID,
		Status:      c.Query("status"),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReturnResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReturnResponse(r))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReturnResponse(order))
}

// Approve godoc
// @Summary      Aprobar devolución
// @Description  Descuenta la cantidad aprobada del lote. Si el lote no la cubre, el faltante queda en shortfall.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true   "ID de la devolución"
// @Param        body  body  dto.ApproveReturnRequest  false  "Cantidad aprobada (default: la declarada)"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/approve [post]
func (h *ReturnHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveReturnRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	order, err := h.uc.Approve(c.UserContext(), GetCompanyID(c), c.Params("id"), in.ApprovedQuantity, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	ev := h.log.Info()
	if order.Shortfall > 0 {
		ev = h.log.Warn()
	}
	ev.Str("user_id", GetUserID(c)).
		Str("return_id", order.ID).
		Str("code", order.Code).
		Str("sku", order.SKU).
		Str("batch_id", order.BatchID).
		Int64("approved", order.ApprovedQuantity).
		Int64("shortfall", order.Shortfall).
		Msg("devolución aprobada")
	return c.JSON(toReturnResponse(order))
}

// Reject godoc
// @Summary      Rechazar devolución
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/reject [post]
func (h *ReturnHandler) Reject(c *fiber.Ctx) error {
	order, err := h.uc.Reject(c.UserContext(), GetCompanyID(c), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("user_id", GetUserID(c)).Str("return_id", order.ID).Msg("devolución rechazada")
	return c.JSON(toReturnResponse(order))
}
