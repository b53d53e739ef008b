package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/vendstock-api/internal/application/idgen"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/application/reports"
	"github.com/jhoicas/vendstock-api/internal/application/usecase"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/vendstock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/vendstock-api/internal/interfaces/http"
	"github.com/jhoicas/vendstock-api/pkg/config"
	"github.com/jhoicas/vendstock-api/pkg/logger"
	"github.com/jhoicas/vendstock-api/pkg/metrics"
	"github.com/jhoicas/vendstock-api/pkg/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.WithQueryLog(log.Component("pgx")))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.App.MigrateOnStart {
		db := postgres.OpenDB(pool)
		if err := migrate.Run(ctx, db, "up"); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		_ = db.Close()
		log.Info().Msg("migraciones aplicadas")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	invMetrics := metrics.NewInventoryMetrics(registry)

	// Caché de reportes (opcional). Sin REDIS_ADDR o si Redis no responde, los reportes
	// se calculan en cada petición.
	var (
		reportCache reports.Cache
		engineOpts  = []inventory.EngineOption{inventory.WithRecorder(invMetrics)}
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, reportes sin caché")
		} else {
			rc := cache.NewReportCache(rdb, cfg.Redis.CacheTTL, log.Component("report_cache"))
			reportCache = rc
			engineOpts = append(engineOpts, inventory.WithNotifier(rc))
		}
	}

	unitValue, err := decimal.NewFromString(cfg.Reports.UnitValue)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.Reports.UnitValue).Msg("REPORT_UNIT_VALUE inválido")
	}

	warehouseRepo := postgres.NewWarehouseRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	ids := idgen.New()

	engine := inventory.NewStockEngine(txRunner, warehouseRepo, engineOpts...)
	dispatchUC := inventory.NewDispatchUseCase(engine, ids)
	returnUC := inventory.NewReturnUseCase(engine, ids)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo)
	reportUC := reports.NewReportUseCase(
		postgres.NewInventoryRecordRepository(pool),
		postgres.NewStockMovementRepository(pool),
		postgres.NewDispatchRepository(pool),
		warehouseRepo,
		reportCache,
		reports.Config{
			Valuer:         reports.FlatValuer{Value: unitValue},
			StockAccuracy:  cfg.Reports.StockAccuracy,
			NearExpiryDays: cfg.Reports.NearExpiryDays,
		},
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30, // el PDF de reportes puede tardar
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "VendStock API",
		}))
	} else if cfg.HTTP.SwaggerFile != "" {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name, "db": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:         engine,
		DispatchUC:     dispatchUC,
		ReturnUC:       returnUC,
		ReportUC:       reportUC,
		WarehouseUC:    warehouseUC,
		PDF:            infrapdf.NewReportPDFGenerator(),
		ReportObserver: invMetrics,
		Gatherer:       registry,
		JWTSecret:      cfg.JWT.Secret,
		Logger:         log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
