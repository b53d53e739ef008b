package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/inventory"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// Escenarios del SKU "A1" con min=10, max=100.
func TestClassify_Escenarios(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)
	tomorrow := testNow.Add(24 * time.Hour)

	cases := []struct {
		name     string
		qty      int64
		expiry   *time.Time
		expected string
	}{
		{"bajo mínimo", 5, nil, entity.StatusLowStock},
		{"igual al mínimo", 10, nil, entity.StatusLowStock},
		{"sobre el 90% del máximo", 95, nil, entity.StatusOverstock},
		{"justo en el 90%", 90, nil, entity.StatusOverstock},
		{"por debajo del 90%", 89, nil, entity.StatusActive},
		{"rango normal", 50, nil, entity.StatusActive},
		{"vencido con stock normal", 50, &yesterday, entity.StatusExpired},
		{"vencido con stock bajo", 1, &yesterday, entity.StatusExpired},
		{"vencido con sobrestock", 99, &yesterday, entity.StatusExpired},
		{"vence mañana", 50, &tomorrow, entity.StatusActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, inventory.Classify(tc.qty, 10, 100, tc.expiry, testNow))
		})
	}
}

// Vencer exactamente en now no cuenta como vencido (expiry < now estricto).
func TestClassify_VenceExactamenteAhora(t *testing.T) {
	exp := testNow
	assert.Equal(t, entity.StatusActive, inventory.Classify(50, 10, 100, &exp, testNow))
}

// Misma entrada, misma salida.
func TestClassify_Determinista(t *testing.T) {
	exp := testNow.Add(48 * time.Hour)
	first := inventory.Classify(42, 10, 100, &exp, testNow)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, inventory.Classify(42, 10, 100, &exp, testNow))
	}
}

func TestDeriveStatus_ArchivadoIgnoraClasificador(t *testing.T) {
	past := testNow.Add(-time.Hour)
	rec := &entity.InventoryRecord{Quantity: 0, MinStockLevel: 10, MaxStockLevel: 100, ExpiryDate: &past, IsArchived: true}
	assert.Equal(t, entity.StatusArchived, inventory.DeriveStatus(rec, testNow))
}

func TestDeriveStatus_CuarentenaFijadaSePreserva(t *testing.T) {
	rec := &entity.InventoryRecord{Quantity: 50, MinStockLevel: 10, MaxStockLevel: 100,
		Status: entity.StatusQuarantine, StatusPinned: true}
	assert.Equal(t, entity.StatusQuarantine, inventory.DeriveStatus(rec, testNow))

	rec.StatusPinned = false
	assert.Equal(t, entity.StatusActive, inventory.DeriveStatus(rec, testNow))
}

func TestValidateThresholds(t *testing.T) {
	require.NoError(t, inventory.ValidateThresholds(0, 1000))

	err := inventory.ValidateThresholds(10, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))

	err = inventory.ValidateThresholds(-1, 10)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, inventory.ValidateQuantity(0))
	assert.ErrorIs(t, inventory.ValidateQuantity(-1), domain.ErrInvariantViolation)
}
