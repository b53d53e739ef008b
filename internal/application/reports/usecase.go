package reports

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

const defaultWindow = 30 * 24 * time.Hour

// Filter alcance de un reporte. WarehouseID es obligatorio; From/To por defecto son los
// últimos 30 días hasta now. Category filtra por categoría exacta o prefijo del nombre.
type Filter struct {
	CompanyID   string
	WarehouseID string
	From, To    *time.Time
	Category    string
}

// Cache guarda reportes serializados; la clave incluye la versión vigente del inventario.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error
}

// Config parámetros inyectables de los reportes.
type Config struct {
	Valuer         UnitValuer
	StockAccuracy  float64
	NearExpiryDays int
}

// ReportUseCase carga registros, movimientos y despachos en paralelo y arma los reportes.
type ReportUseCase struct {
	records    repository.InventoryRecordRepository
	movements  repository.StockMovementRepository
	dispatches repository.DispatchRepository
	warehouses repository.WarehouseRepository
	cache      Cache
	cfg        Config
	now        func() time.Time
}

// NewReportUseCase construye el caso de uso. cache puede ser nil.
func NewReportUseCase(
	records repository.InventoryRecordRepository,
	movements repository.StockMovementRepository,
	dispatches repository.DispatchRepository,
	warehouses repository.WarehouseRepository,
	cache Cache,
	cfg Config,
) *ReportUseCase {
	if cfg.Valuer == nil {
		cfg.Valuer = FlatValuer{}
	}
	if cfg.NearExpiryDays <= 0 {
		cfg.NearExpiryDays = DefaultNearExpiryDays
	}
	return &ReportUseCase{
		records:    records,
		movements:  movements,
		dispatches: dispatches,
		warehouses: warehouses,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ReportUseCase) WithClock(now func() time.Time) *ReportUseCase {
	uc.now = now
	return uc
}

type window struct {
	now, from, to time.Time
}

type dataset struct {
	records    []*entity.InventoryRecord
	movements  []*entity.StockMovement
	dispatches []*entity.DispatchOrder
}

// Summary resumen de inventario de la bodega.
func (uc *ReportUseCase) Summary(ctx context.Context, f Filter) (*dto.InventorySummaryReport, error) {
	var out dto.InventorySummaryReport
	err := uc.cached(ctx, "summary", f, &out, func(ctx context.Context, w window) (interface{}, error) {
		ds, err := uc.load(ctx, f, w, false, false)
		if err != nil {
			return nil, err
		}
		rep := BuildSummary(ds.records, uc.cfg.Valuer, w.now, uc.cfg.NearExpiryDays)
		rep.WarehouseID = f.WarehouseID
		return rep, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Turnover rotación por SKU en la ventana.
func (uc *ReportUseCase) Turnover(ctx context.Context, f Filter) (*dto.TurnoverReport, error) {
	var out dto.TurnoverReport
	err := uc.cached(ctx, "turnover", f, &out, func(ctx context.Context, w window) (interface{}, error) {
		ds, err := uc.load(ctx, f, w, true, false)
		if err != nil {
			return nil, err
		}
		rep := BuildTurnover(ds.records, ds.movements, w.from, w.to)
		rep.WarehouseID = f.WarehouseID
		return rep, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Ageing antigüedad del inventario por buckets.
func (uc *ReportUseCase) Ageing(ctx context.Context, f Filter) (*dto.AgeingReport, error) {
	var out dto.AgeingReport
	err := uc.cached(ctx, "ageing", f, &out, func(ctx context.Context, w window) (interface{}, error) {
		ds, err := uc.load(ctx, f, w, false, false)
		if err != nil {
			return nil, err
		}
		rep := BuildAgeing(ds.records, uc.cfg.Valuer, w.now)
		rep.WarehouseID = f.WarehouseID
		return rep, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Efficiency puntaje de eficiencia en la ventana.
func (uc *ReportUseCase) Efficiency(ctx context.Context, f Filter) (*dto.EfficiencyReport, error) {
	var out dto.EfficiencyReport
	err := uc.cached(ctx, "efficiency", f, &out, func(ctx context.Context, w window) (interface{}, error) {
		ds, err := uc.load(ctx, f, w, false, true)
		if err != nil {
			return nil, err
		}
		rep := BuildEfficiency(ds.records, ds.dispatches, uc.cfg.StockAccuracy, w.now)
		rep.WarehouseID = f.WarehouseID
		rep.Window = dto.ReportWindow{From: w.from, To: w.to}
		return rep, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Replenishment sugerencias de reposición (salidas de los últimos 90 días, salvo From explícito).
func (uc *ReportUseCase) Replenishment(ctx context.Context, f Filter) ([]dto.ReplenishmentSuggestionDTO, error) {
	if f.From == nil {
		from := uc.now().Truncate(time.Minute).AddDate(0, 0, -replenishDays)
		f.From = &from
	}
	out := []dto.ReplenishmentSuggestionDTO{}
	err := uc.cached(ctx, "replenishment", f, &out, func(ctx context.Context, w window) (interface{}, error) {
		ds, err := uc.load(ctx, f, w, true, false)
		if err != nil {
			return nil, err
		}
		return BuildReplenishment(ds.records, ds.movements, uc.cfg.Valuer, w.now), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Full arma los cuatro reportes en paralelo (exportación).
func (uc *ReportUseCase) Full(ctx context.Context, f Filter) (*dto.FullInventoryReport, error) {
	var rep dto.FullInventoryReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := uc.Summary(gctx, f)
		if err == nil {
			rep.Summary = *s
		}
		return err
	})
	g.Go(func() error {
		t, err := uc.Turnover(gctx, f)
		if err == nil {
			rep.Turnover = *t
		}
		return err
	})
	g.Go(func() error {
		a, err := uc.Ageing(gctx, f)
		if err == nil {
			rep.Ageing = *a
		}
		return err
	})
	g.Go(func() error {
		e, err := uc.Efficiency(gctx, f)
		if err == nil {
			rep.Efficiency = *e
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rep, nil
}

// resolve valida el filtro y fija la ventana. now se trunca al minuto para que la clave de
// caché sea estable dentro del mismo minuto.
func (uc *ReportUseCase) resolve(ctx context.Context, f Filter) (window, error) {
	if !domain.IsValidID(f.CompanyID) || !domain.IsValidID(f.WarehouseID) {
		return window{}, domain.ErrInvalidIdentifier
	}
	now := uc.now().Truncate(time.Minute)
	w := window{now: now, to: now, from: now.Add(-defaultWindow)}
	if f.To != nil {
		w.to = *f.To
	}
	if f.From != nil {
		w.from = *f.From
	} else if f.To != nil {
		w.from = w.to.Add(-defaultWindow)
	}
	if w.from.After(w.to) {
		return window{}, domain.ErrInvalidInput
	}
	if uc.warehouses != nil {
		wh, err := uc.warehouses.GetByID(ctx, f.WarehouseID)
		if err != nil {
			return window{}, err
		}
		if wh == nil || wh.CompanyID != f.CompanyID {
			return window{}, domain.ErrNotFound
		}
	}
	return w, nil
}

func (uc *ReportUseCase) cached(ctx context.Context, kind string, f Filter, dest interface{}, build func(context.Context, window) (interface{}, error)) error {
	w, err := uc.resolve(ctx, f)
	if err != nil {
		return err
	}
	loader := func(ctx context.Context) (interface{}, error) { return build(ctx, w) }
	if uc.cache == nil {
		return fetchDirect(ctx, dest, loader)
	}
	key, err := uc.cache.BuildKey(ctx, "reports", kind, f.CompanyID, f.WarehouseID,
		strings.ToLower(f.Category), w.from.UTC().Format(time.RFC3339), w.to.UTC().Format(time.RFC3339), w.now.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return uc.cache.FetchJSON(ctx, key, dest, loader)
}

// load trae en paralelo lo que el reporte necesita.
func (uc *ReportUseCase) load(ctx context.Context, f Filter, w window, withMovements, withDispatches bool) (*dataset, error) {
	ds := &dataset{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := uc.records.List(gctx, repository.RecordFilter{CompanyID: f.CompanyID, WarehouseID: f.WarehouseID})
		if err != nil {
			return err
		}
		ds.records = filterCategory(list, f.Category)
		return nil
	})
	if withMovements {
		g.Go(func() error {
			from := w.from
			list, err := uc.movements.List(gctx, repository.MovementFilter{CompanyID: f.CompanyID, WarehouseID: f.WarehouseID, From: &from})
			ds.movements = list
			return err
		})
	}
	if withDispatches {
		g.Go(func() error {
			from, to := w.from, w.to
			list, err := uc.dispatches.List(gctx, repository.DispatchFilter{CompanyID: f.CompanyID, WarehouseID: f.WarehouseID, From: &from, To: &to})
			ds.dispatches = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if f.Category != "" && withMovements {
		skus := make(map[string]struct{}, len(ds.records))
		for _, r := range ds.records {
			skus[r.SKU] = struct{}{}
		}
		kept := ds.movements[:0]
		for _, m := range ds.movements {
			if _, ok := skus[m.SKU]; ok {
				kept = append(kept, m)
			}
		}
		ds.movements = kept
	}
	return ds, nil
}

// fetchDirect sin caché: copia el resultado en dest por JSON para que el tipo devuelto sea
// idéntico al servido desde Redis.
func fetchDirect(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func filterCategory(records []*entity.InventoryRecord, category string) []*entity.InventoryRecord {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return records
	}
	out := make([]*entity.InventoryRecord, 0, len(records))
	for _, r := range records {
		if strings.ToLower(r.Category) == category || strings.HasPrefix(strings.ToLower(r.ProductName), category) {
			out = append(out, r)
		}
	}
	return out
}
