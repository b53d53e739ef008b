// Package idgen genera códigos legibles (DSP-XXXXXXXX, RET-XXXXXXXX) con contrato de unicidad:
// se intenta hasta MaxAttempts veces y, agotados, se devuelve domain.ErrIDGenerationExhausted.
package idgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/vendstock-api/internal/domain"
)

// Prefijos de código por tipo de documento.
const (
	PrefixDispatch = "DSP"
	PrefixReturn   = "RET"
)

const defaultMaxAttempts = 5

// ExistsFunc consulta si un código ya está tomado.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator emite códigos únicos por prefijo.
type Generator struct {
	maxAttempts int
	next        func() string
}

// Option configura el Generator.
type Option func(*Generator)

// WithMaxAttempts cambia el número de intentos antes de rendirse.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithSource reemplaza la fuente aleatoria (útil en tests).
func WithSource(next func() string) Option {
	return func(g *Generator) {
		if next != nil {
			g.next = next
		}
	}
}

// New construye el generador con fuente basada en UUID v4.
func New(opts ...Option) *Generator {
	g := &Generator{
		maxAttempts: defaultMaxAttempts,
		next:        randomSuffix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next devuelve PREFIX-XXXXXXXX no usado según exists.
func (g *Generator) Next(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := prefix + "-" + g.next()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("idgen: verificar código %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: prefijo %s tras %d intentos", domain.ErrIDGenerationExhausted, prefix, g.maxAttempts)
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
