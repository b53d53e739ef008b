// import_stock registra recepciones de mercancía desde un CSV (Excel o ERP del proveedor).
//
// Uso:
//
//	go run ./cmd/import_stock -company <uuid> -warehouse <uuid> -user <uuid> [-charset latin1] archivo.csv
//
// Cada fila pasa por StockEngine.Receive (suma al lote existente o lo crea) y deja su
// movimiento RECEIVE. Con -dry-run sólo valida el archivo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/csvimport"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/vendstock-api/pkg/config"
	"github.com/jhoicas/vendstock-api/pkg/logger"
)

func main() {
	companyID := flag.String("company", "", "UUID de la empresa")
	warehouseID := flag.String("warehouse", "", "UUID de la bodega destino")
	userID := flag.String("user", "", "UUID del usuario que registra la recepción")
	charset := flag.String("charset", "utf-8", "utf-8, latin1 o windows-1252")
	dryRun := flag.Bool("dry-run", false, "validar sin escribir")
	flag.Parse()

	if flag.NArg() != 1 || *companyID == "" || *warehouseID == "" {
		fmt.Fprintln(os.Stderr, "uso: import_stock -company <uuid> -warehouse <uuid> [-user <uuid>] [-charset latin1] [-dry-run] archivo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: cfg.App.Name + "-import"})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir archivo")
	}
	defer f.Close()

	rows, err := csvimport.ParseReceipts(f, csvimport.Options{Charset: *charset})
	if err != nil {
		log.Fatal().Err(err).Msg("archivo inválido")
	}
	log.Info().Int("rows", len(rows)).Msg("archivo leído")
	if *dryRun {
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.WithMinConns(0))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	engine := inventory.NewStockEngine(postgres.NewTxRunner(pool), postgres.NewWarehouseRepository(pool))

	var created, updated, failed int
	for _, row := range rows {
		rec, isNew, err := engine.Receive(ctx, row.ToReceiveInput(*companyID, *warehouseID, *userID))
		if err != nil {
			failed++
			log.Error().Err(err).Int("line", row.Line).Str("sku", row.SKU).Str("batch_id", row.BatchID).Msg("fila rechazada")
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
		log.Debug().Int("line", row.Line).Str("record_id", rec.ID).Int64("quantity", rec.Quantity).Msg("fila aplicada")
	}

	log.Info().Int("created", created).Int("updated", updated).Int("failed", failed).Msg("importación terminada")
	if failed > 0 {
		os.Exit(1)
	}
}
