package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: migrate <up|down|version|force N>")
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar migrador")
		}
	}()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = m.Version()
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versión actual")
		}
	case "force":
		if len(args) < 2 {
			log.Fatal().Msg("force requiere la versión")
		}
		var v int
		v, err = strconv.Atoi(args[1])
		if err == nil {
			err = m.Force(v)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("migración fallida")
		os.Exit(1)
	}
}
