package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/domain"
)

// writeError traduce errores de dominio a status + dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	var insufficient *domain.InsufficientStockError
	var invariant *domain.InvariantError
	switch {
	case errors.As(err, &insufficient):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: map[string]string{
				"sku":       insufficient.SKU,
				"available": strconv.FormatInt(insufficient.Available, 10),
				"requested": strconv.FormatInt(insufficient.Requested, 10),
			},
		}
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()}
	case errors.As(err, &invariant):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{
			Code:    "INVARIANT_VIOLATION",
			Message: invariant.Error(),
			Details: map[string]string{invariant.Field: invariant.Reason},
		}
	case errors.Is(err, domain.ErrInvariantViolation):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INVARIANT_VIOLATION", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidIdentifier):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_ID", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"}
	case errors.Is(err, domain.ErrIDGenerationExhausted):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "ID_GENERATION", Message: "no se pudo generar el código, reintente"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

// ErrorHandler fiber.Config.ErrorHandler: errores de fiber conservan su status,
// el resto pasa por mapError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_" + strconv.Itoa(fe.Code), Message: fe.Message})
	}
	return writeError(c, err)
}
