package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/vendstock-api/internal/domain"
)

// pageParams limit/offset con los mismos topes que el resto de listados (1..100, default 20).
func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// timeQuery acepta RFC3339 o YYYY-MM-DD. Vacío → nil. endOfDay mueve las fechas
// sin hora al último instante del día (para el extremo "to").
func timeQuery(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

// optionalUUID lee un id opcional de la query; false si viene y no es UUID.
func optionalUUID(c *fiber.Ctx, key string) (string, bool) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return "", true
	}
	if !domain.IsValidID(v) {
		return "", false
	}
	return v, true
}
