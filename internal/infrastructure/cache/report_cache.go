// Package cache guarda reportes de inventario en Redis con claves versionadas: cada mutación
// de stock incrementa la versión y las claves anteriores quedan huérfanas hasta su TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/application/reports"
)

const (
	versionKey  = "reports:version"
	bumpChannel = "inventory.bump"
)

var (
	_ reports.Cache            = (*ReportCache)(nil)
	_ inventory.ChangeNotifier = (*ReportCache)(nil)
)

// ReportCache envuelve go-redis. Un *ReportCache nil o sin cliente funciona como pasarela
// (siempre ejecuta el loader).
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	log    zerolog.Logger
}

// NewReportCache construye el caché. ttl <= 0 usa 5 minutos.
func NewReportCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{client: client, ttl: ttl, log: log}
}

// Version devuelve la versión vigente, inicializándola si no existe.
func (c *ReportCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey compone la clave con la versión vigente al final.
func (c *ReportCache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON lee la clave o la llena con loader. Llamadas concurrentes con la misma clave
// comparten un único loader.
func (c *ReportCache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader requerido")
	}
	if c == nil || c.client == nil {
		raw, err := load(ctx, loader)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		raw, err := load(ctx, loader)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar reporte en caché")
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

// Bump invalida todos los reportes incrementando la versión y publicando el evento.
func (c *ReportCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// InventoryChanged implementa inventory.ChangeNotifier. Un fallo de Redis no revierte la
// mutación ya confirmada; se registra y el reporte vence por TTL.
func (c *ReportCache) InventoryChanged(ctx context.Context, companyID string) {
	if err := c.Bump(ctx); err != nil {
		c.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo invalidar caché de reportes")
	}
}

func load(ctx context.Context, loader func(context.Context) (interface{}, error)) ([]byte, error) {
	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}
