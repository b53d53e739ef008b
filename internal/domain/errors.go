package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidIdentifier     = errors.New("identificador inválido")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInvariantViolation    = errors.New("violación de invariante de inventario")
	ErrInvalidTransition     = errors.New("transición de estado no permitida")
	ErrIDGenerationExhausted = errors.New("no se pudo generar un código único")

	// ErrRecordArchived el lote existe pero está archivado; hay que desarchivarlo antes de moverlo.
	ErrRecordArchived = fmt.Errorf("registro archivado: %w", ErrInvalidTransition)
)

// InsufficientStockError detalla qué SKU no alcanza para la solicitud.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	SKU       string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para SKU %s: disponible %d, solicitado %d", e.SKU, e.Available, e.Requested)
}

// Is permite comparar contra ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvariantError describe la regla violada (cantidad negativa, max <= min, ...).
type InvariantError struct {
	Field  string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}
