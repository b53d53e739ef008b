// devtoken emite un JWT firmado con JWT_SECRET para probar la API en local, sin el
// servicio de identidad.
//
// Uso:
//
//	go run ./cmd/devtoken -company <uuid> -user <uuid> [-role bodeguero] [-perms inventory:manage,reports:view] [-ttl 8h]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/pkg/config"
	"github.com/jhoicas/vendstock-api/pkg/jwt"
	"github.com/jhoicas/vendstock-api/pkg/logger"
)

func main() {
	companyID := flag.String("company", "", "UUID de la empresa")
	userID := flag.String("user", "", "UUID del usuario (vacío = uno nuevo)")
	role := flag.String("role", "admin", "rol del token")
	perms := flag.String("perms", "", "permisos separados por coma")
	ttl := flag.Duration("ttl", 8*time.Hour, "vigencia del token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: cfg.App.Name + "-devtoken", Output: os.Stderr})

	if !cfg.App.IsDev() {
		log.Fatal().Str("env", cfg.App.Env).Msg("devtoken solo corre en development")
	}
	if !domain.IsValidID(*companyID) {
		log.Fatal().Str("company", *companyID).Msg("-company debe ser un UUID")
	}
	if *userID == "" {
		*userID = uuid.New().String()
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, *userID, *companyID, *role, splitPerms(*perms), cfg.JWT.Issuer, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("firmar token (¿JWT_SECRET vacío?)")
	}
	log.Info().Str("user_id", *userID).Str("role", *role).Dur("ttl", *ttl).Msg("token emitido")
	fmt.Println(tok)
}

func splitPerms(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
