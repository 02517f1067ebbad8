package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/asignacion"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/eventos"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/handler"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/reprogramacion"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/repository"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/reservas"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/scheduler"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

func main() {
	/**********************************************
	 * Logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * Configuración
	 **********************************************/
	_ = godotenv.Load() // en desarrollo el .env es opcional

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("no se pudo cargar la configuración", "error", err)
		return
	}

	/**********************************************
	 * Base de datos
	 **********************************************/
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

	/**********************************************
	 * Repositorio
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * Administrador inicial
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("no se pudo generar el hash del administrador inicial", "error", err)
		return
	}
	initialAdmin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleSuperUsuario,
	}
	if err := repo.CrearUsuario(ctx, initialAdmin); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "users_username_key":
				// el administrador inicial ya existe
			default:
				logger.Error("no se pudo crear el administrador inicial", "error", err)
				return
			}
		default:
			logger.Error("no se pudo crear el administrador inicial", "error", err)
			return
		}
	}

	/**********************************************
	 * Registro de reglas de turnos
	 **********************************************/
	reglas, err := repo.Reglas(ctx)
	if err != nil {
		logger.Error("no se pudieron cargar las reglas de turnos", "error", err)
		return
	}

	opciones := []turnos.Opcion{}
	if cfg.Vacaciones.SemanaSantaFechaFin != "" {
		fin, err := time.Parse(time.DateOnly, cfg.Vacaciones.SemanaSantaFechaFin)
		if err != nil {
			logger.Error("VACACIONES_SEMANA_SANTA_FECHA_FIN inválida", "error", err)
			return
		}
		opciones = append(opciones, turnos.ConSemanaSanta(fin))
	}

	registro, err := turnos.NuevoRegistro(cfg.FechaAnclaTime(), reglas, opciones...)
	if err != nil {
		logger.Error("no se pudo construir el registro de turnos", "error", err)
		return
	}

	/**********************************************
	 * RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("no se pudo conectar a rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("no se pudo abrir el canal", "error", err)
		return
	}
	defer ch.Close()

	publicador, err := eventos.NuevoPublicadorAMQP(cfg, ch)
	if err != nil {
		logger.Error("no se pudo declarar la cola de eventos", "error", err)
		return
	}

	/**********************************************
	 * Redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	/**********************************************
	 * Servicios de dominio
	 **********************************************/
	validador := ausencias.NuevoValidador(repo, logger)
	lookahead := time.Duration(cfg.Vacaciones.LookaheadHoras) * time.Hour
	servicios := &handler.Servicios{
		Registro:       registro,
		Validador:      validador,
		Reservas:       reservas.NuevoServicio(repo, registro, validador, publicador, logger, lookahead),
		Motor:          asignacion.NuevoMotor(repo, registro, validador, logger, cfg.Vacaciones.SemanasExcluidas, cfg.Vacaciones.MaxDiasAutomaticos),
		Reprogramacion: reprogramacion.NuevoServicio(repo, registro, validador, publicador, logger),
		Generador:      bloques.NuevoGenerador(registro),
		Barrido:        scheduler.NuevoBarrido(repo, publicador, logger),
		Publicador:     publicador,
	}

	/**********************************************
	 * Barrido periódico de estados de bloques
	 **********************************************/
	barridoCtx, detenerBarrido := context.WithCancel(context.Background())
	defer detenerBarrido()
	go servicios.Barrido.Iniciar(barridoCtx, 5*time.Minute)

	/**********************************************
	 * Handler y servidor HTTP
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, rdb, servicios)
	if err != nil {
		logger.Error("no se pudo crear el handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("iniciando el servidor...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("no se pudo iniciar el servidor", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("apagando el servidor...")
	detenerBarrido()

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("no se pudo apagar el servidor", slog.String("error", err.Error()))
	}
	logger.Info("servidor apagado")
}
