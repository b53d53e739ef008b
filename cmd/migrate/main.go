// migrate aplica las migraciones embebidas de pkg/migrate contra la base configurada.
//
// Uso: go run ./cmd/migrate [up|down|status|version|redo|reset|up-to N|down-to N]
// Sin argumentos ejecuta "up".
package main

import (
	"context"
	"os"

	"github.com/jhoicas/vendstock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/vendstock-api/pkg/config"
	"github.com/jhoicas/vendstock-api/pkg/logger"
	"github.com/jhoicas/vendstock-api/pkg/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: cfg.App.Name + "-migrate"})

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.WithMinConns(0))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	db := postgres.OpenDB(pool)
	defer db.Close()

	if err := migrate.Run(ctx, db, command, args...); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migraciones")
	}
	log.Info().Str("command", command).Msg("migraciones aplicadas")
}
