package inventory

import (
	"math"

	"github.com/jhoicas/vendstock-api/internal/domain"
)

// MaxLineQuantity tope de unidades por línea de entrada (recepción, despacho, devolución).
const MaxLineQuantity int64 = 1_000_000_000

func invariant(field, reason string) error {
	return &domain.InvariantError{Field: field, Reason: reason}
}

// ValidateQuantity rechaza cantidades negativas antes de persistir.
func ValidateQuantity(quantity int64) error {
	if quantity < 0 {
		return invariant("quantity", "no puede ser negativa")
	}
	return nil
}

// AddQuantity suma dos cantidades no negativas; desbordar int64 es una violación de invariante.
func AddQuantity(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, invariant("quantity", "no puede ser negativa")
	}
	if a > math.MaxInt64-b {
		return 0, invariant("quantity", "excede el máximo representable")
	}
	return a + b, nil
}
