package handler

import (
	"github.com/go-chi/chi/v5"
	locales_es "github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/redis/go-redis/v9"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/asignacion"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/reprogramacion"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/repository"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/reservas"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/scheduler"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// Servicios agrupa las dependencias de dominio del handler. Todas se
// construyen en cmd/api sobre el mismo repositorio.
type Servicios struct {
	Registro       *turnos.Registro
	Validador      *ausencias.Validador
	Reservas       *reservas.Servicio
	Motor          *asignacion.Motor
	Reprogramacion *reprogramacion.Servicio
	Generador      *bloques.Generador
	Barrido        *scheduler.Barrido
	Publicador     domain.Publicador
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	redisClient *redis.Client
	servicios   *Servicios

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, servicios *Servicios) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	es := locales_es.New()
	uni := ut.New(es, es)
	trans, _ := uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		redisClient: rdb,
		servicios:   servicios,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// Autenticación
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/restablecer-password", func(r chi.Router) {
			r.Post("/solicitar", h.SolicitarRestablecerPassword)
			r.Post("/confirmar", h.ConfirmarRestablecerPassword)
		})
	})

	// Todo lo demás exige sesión iniciada
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/mi-perfil", func(r chi.Router) {
			r.Use(h.miPerfil)
			r.Get("/", h.GetMiPerfil)
			r.Patch("/password", h.ActualizarMiPassword)
			r.Get("/calendario", h.GetMiCalendario)
			r.Get("/saldo", h.GetMiSaldo)
			r.Get("/estado-reserva", h.GetMiEstadoReserva)
			r.Route("/vacaciones", func(r chi.Router) {
				r.Use(h.soloEmpleadosActivos)
				r.Post("/dias", h.SeleccionarDia)
				r.Delete("/dias", h.CancelarDia)
				r.Post("/completar", h.CompletarReservacion)
			})
			r.Route("/reprogramaciones", func(r chi.Router) {
				r.Use(h.soloEmpleadosActivos)
				r.Post("/", h.SolicitarReprogramacion)
			})
		})

		r.Route("/usuarios", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdministrador, domain.RoleSuperUsuario}))
			r.Post("/", h.CrearUsuario)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.empleadoInfo)
				r.Get("/", h.GetUsuario)
				r.Patch("/", h.ActualizarUsuario)
				r.Get("/auditoria", h.GetAuditoria)
			})
		})

		r.Get("/dias-inhabiles", h.GetDiasInhabiles)
		r.Get("/derechos-vacaciones", h.GetDerechosVacaciones)

		r.Route("/reglas", func(r chi.Router) {
			r.Get("/", h.GetReglas)
			r.Get("/{rolGrupo}/rol", h.GetRol)
		})

		r.Route("/grupos", func(r chi.Router) {
			r.Get("/", h.GetGrupos)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.grupoInfo)
				r.Get("/rol", h.GetRolDeGrupo)
				r.Get("/ausencias/validar", h.ValidarAusencia)
				r.Route("/bloques", func(r chi.Router) {
					r.Get("/", h.GetBloques)
					jefes := []domain.Role{domain.RoleJefeArea, domain.RoleAdministrador, domain.RoleSuperUsuario}
					r.With(h.RequiredRole(jefes)).Post("/generar", h.GenerarBloques)
					r.With(h.RequiredRole(jefes)).Post("/aprobar", h.AprobarBloques)
					r.With(h.RequiredRole(jefes)).Post("/cambiar-empleado", h.CambiarEmpleadoDeBloque)
				})
				r.With(h.RequiredRole([]domain.Role{domain.RoleJefeArea, domain.RoleAdministrador, domain.RoleSuperUsuario})).
					Post("/asignacion-automatica", h.EjecutarAsignacionAutomatica)
			})
		})

		r.With(h.RequiredRole([]domain.Role{domain.RoleJefeArea, domain.RoleAdministrador, domain.RoleSuperUsuario})).
			Post("/bloques/actualizar-estados", h.ActualizarEstadosBloques)

		r.With(h.RequiredRole([]domain.Role{domain.RoleAdministrador, domain.RoleSuperUsuario})).
			Post("/asignacion-manual", h.AsignacionManual)

		r.Route("/reprogramaciones", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleJefeArea, domain.RoleAdministrador, domain.RoleSuperUsuario}))
			r.Get("/", h.GetReprogramaciones)
			r.Post("/{id}/decidir", h.DecidirReprogramacion)
		})
	})
}
