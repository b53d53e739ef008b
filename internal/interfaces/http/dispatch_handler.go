package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// DispatchHandler órdenes de despacho hacia máquinas/rutas (protegido).
type DispatchHandler struct {
	uc  *inventory.DispatchUseCase
	log zerolog.Logger
}

// NewDispatchHandler construye el handler.
func NewDispatchHandler(uc *inventory.DispatchUseCase, log zerolog.Logger) *DispatchHandler {
	return &DispatchHandler{uc: uc, log: log.With().Str("component", "dispatch_handler").Logger()}
}

// Create godoc
// @Summary      Crear despacho
// @Description  Valida suficiencia de todos los ítems y descuenta por FEFO en una sola transacción.
// @Tags         dispatches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDispatchRequest  true  "Bodega, destino e ítems"
// @Success      201   {object}  dto.DispatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/dispatches [post]
func (h *DispatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDispatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	order, err := h.uc.Create(c.UserContext(), inventory.CreateDispatchInput{
		CompanyID:   GetCompanyID(c),
		WarehouseID: in.WarehouseID,
		Destination: in.Destination,
		AgentID:     in.AgentID,
		Items:       toStockItems(in.Items),
		CreatedBy:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().
		Str("user_id", GetUserID(c)).
		Str("dispatch_id", order.ID).
		Str("code", order.Code).
		Int("allocations", len(order.Allocations)).
		Msg("despacho creado")
	return c.Status(fiber.StatusCreated).JSON(toDispatchResponse(order))
}

// List godoc
// @Summary      Listar despachos
// @Tags         dispatches
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        status        query  string  false  "pending, assigned, in_transit, delivered, cancelled"
// @Param        agent_id      query  string  false  "Agente (UUID)"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {array}   dto.DispatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/dispatches [get]
func (h *DispatchHandler) List(c *fiber.Ctx) error {
	warehouseID, ok1 := optionalUUID(c, "warehouse_id")
	agentID, ok2 := optionalUUID(c, "agent_id")
	from, ok3 := timeQuery(c, "from", false)
	to, ok4 := timeQuery(c, "to", true)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "filtros inválidos"})
	}
	list, err := h.uc.List(c.UserContext(), repository.DispatchFilter{
		CompanyID:   GetCompanyID(c),
		WarehouseID: warehouseID,
		Status:      c.Query("status"),
		AgentID:     agentID,
		From:        from,
		To:          to,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.DispatchResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDispatchResponse(d))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener despacho
// @Tags         dispatches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del despacho"
// @Success      200  {object}  dto.DispatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dispatches/{id} [get]
func (h *DispatchHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDispatchResponse(order))
}

// Assign godoc
// @Summary      Asignar agente
// @Description  pending → assigned. Requiere dispatch:assign.
// @Tags         dispatches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del despacho"
// @Param        body  body  dto.AssignDispatchRequest  true  "Agente"
// @Success      200   {object}  dto.DispatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/dispatches/{id}/assign [post]
func (h *DispatchHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignDispatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	order, err := h.uc.Assign(c.UserContext(), GetCompanyID(c), c.Params("id"), in.AgentID)
	if err != nil {
		return writeError(c, err)
	}
	h.logTransition(c, order)
	return c.JSON(toDispatchResponse(order))
}

// Advance godoc
// @Summary      Avanzar despacho
// @Description  assigned → in_transit → delivered.
// @Tags         dispatches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del despacho"
// @Success      200  {object}  dto.DispatchResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dispatches/{id}/advance [post]
func (h *DispatchHandler) Advance(c *fiber.Ctx) error {
	order, err := h.uc.Advance(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	h.logTransition(c, order)
	return c.JSON(toDispatchResponse(order))
}

// Cancel godoc
// @Summary      Cancelar despacho
// @Description  Desde cualquier estado no terminal. No devuelve el stock descontado.
// @Tags         dispatches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del despacho"
// @Success      200  {object}  dto.DispatchResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dispatches/{id}/cancel [post]
func (h *DispatchHandler) Cancel(c *fiber.Ctx) error {
	order, err := h.uc.Cancel(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	h.logTransition(c, order)
	return c.JSON(toDispatchResponse(order))
}

func (h *DispatchHandler) logTransition(c *fiber.Ctx, order *entity.DispatchOrder) {
	h.log.Info().
		Str("user_id", GetUserID(c)).
		Str("dispatch_id", order.ID).
		Str("code", order.Code).
		Str("status", order.Status).
		Str("agent_id", order.AgentID).
		Msg("transición de despacho")
}
