package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/repository"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/seed"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var nominaInicial int64

	flag.IntVar(&op, "op", 0, "operación a ejecutar (1: insertar empleados aleatorios, 2: sembrar datos de demostración)")
	flag.IntVar(&n, "n", 5, "cantidad de empleados a insertar")
	flag.Int64Var(&nominaInicial, "nomina", 9000, "número de nómina inicial para los empleados aleatorios")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("no se pudo cargar la configuración", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("no se pudo crear el pool de conexiones", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open no conecta todavía; el ping confirma que la base responde
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("no se pudo conectar a la base de datos", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("no se indicó ninguna operación")
	case 1:
		if n <= 0 {
			logger.Error("la cantidad de empleados debe ser positiva")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			empleado, err := utils.GenerarEmpleadoAleatorio(cfg.Seed.User.Password, cfg.Email.UserDomain, nominaInicial+int64(i))
			if err != nil {
				logger.Error("no se pudo generar el empleado", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CrearUsuario(context.Background(), empleado); err != nil {
				logger.Error("no se pudo insertar el empleado", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		logger.Info("empleados insertados", slog.Int("count", cnt))
	case 2:
		if err := seed.Run(context.Background(), cfg, repo, logger); err != nil {
			logger.Error("la siembra falló", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("siembra completada")
	default:
		logger.Error("la operación indicada no es válida")
	}
}
