// Package reservas implementa la selección y cancelación de días dentro del
// bloque de reservación de un empleado. Las verificaciones previas corren
// fuera de la transacción como cortesía al cliente; la palabra final la tiene
// el almacén, que repite techo, turno y unicidad bajo el candado de
// (grupo, fecha).
package reservas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// ReservaDia es la orden atómica que el almacén ejecuta bajo el candado de
// (grupo, fecha): revalidar techo de ausencia, turno de reservación y
// unicidad, insertar la vacación y descontar el saldo, todo o nada.
type ReservaDia struct {
	EmpleadoID   int64
	GrupoID      int64
	AsignacionID int64
	Fecha        time.Time
	Tipo         domain.TipoVacacion
	Origen       domain.OrigenAsignacion
}

// Almacen es lo que el servicio necesita de la capa de persistencia.
type Almacen interface {
	Empleado(ctx context.Context, id int64) (*domain.User, error)
	Grupo(ctx context.Context, id int64) (*domain.GrupoTrabajo, error)
	Saldo(ctx context.Context, empleadoID int64, anio int) (*domain.SaldoVacaciones, error)
	// AsignacionVigente devuelve el bloque del empleado para el año con todas
	// sus asignaciones, o (nil, nil) si no participa en ningún ciclo.
	AsignacionVigente(ctx context.Context, empleadoID int64, anio int) (*bloques.BloqueConAsignaciones, *domain.AsignacionBloque, error)
	ReservarDia(ctx context.Context, orden ReservaDia) (*domain.VacacionAsignada, error)
	// CancelarDia revierte una selección del empleado restaurando su saldo.
	// Falla con ErrDiaNoRemovible si el día no fue elegido por él.
	CancelarDia(ctx context.Context, empleadoID int64, fecha time.Time) (*domain.VacacionAsignada, error)
	MarcarReservacionCompleta(ctx context.Context, asignacionID int64) error
}

type Servicio struct {
	almacen    Almacen
	registro   *turnos.Registro
	validador  *ausencias.Validador
	publicador domain.Publicador
	logger     *slog.Logger
	lookahead  time.Duration
	ahora      func() time.Time
}

func NuevoServicio(almacen Almacen, registro *turnos.Registro, validador *ausencias.Validador, publicador domain.Publicador, logger *slog.Logger, lookahead time.Duration) *Servicio {
	return &Servicio{
		almacen:    almacen,
		registro:   registro,
		validador:  validador,
		publicador: publicador,
		logger:     logger,
		lookahead:  lookahead,
		ahora:      time.Now,
	}
}

// Resultado acompaña al día reservado con la advertencia de ausencia, si la
// proyección quedó cerca del techo.
type Resultado struct {
	Vacacion    *domain.VacacionAsignada `json:"vacacion"`
	Advertencia bool                     `json:"advertencia"`
}

// SeleccionarDia reserva un día programable para el empleado. Orden de
// rechazo: día no laborable, día ya asignado, saldo agotado, techo de
// ausencia, fuera de turno.
func (s *Servicio) SeleccionarDia(ctx context.Context, empleadoID int64, fecha time.Time) (*Resultado, error) {
	empleado, grupo, err := s.empleadoConGrupo(ctx, empleadoID)
	if err != nil {
		return nil, err
	}

	turno := s.registro.Resolve(grupo.ReglaCodigo, grupo.NumeroGrupo, fecha)
	if turnos.EsDescanso(turno) {
		return nil, domain.ErrDiaNoSeleccionable
	}

	anio := fecha.Year()
	saldo, err := s.almacen.Saldo(ctx, empleadoID, anio)
	if err != nil {
		return nil, fmt.Errorf("consultar saldo: %w", err)
	}
	if saldo.ProgramablesRestantes() <= 0 {
		return nil, domain.ErrSinSaldoProgramable
	}

	bloque, asignacion, err := s.almacen.AsignacionVigente(ctx, empleadoID, anio)
	if err != nil {
		return nil, fmt.Errorf("consultar asignación de bloque: %w", err)
	}
	var pares []*domain.AsignacionBloque
	if bloque != nil {
		pares = bloque.Asignaciones
	}
	var bloqueRes *domain.BloqueReservacion
	if bloque != nil {
		bloqueRes = bloque.Bloque
	}
	if !bloques.PuedeReservar(bloqueRes, asignacion, pares, s.ahora()) {
		return nil, domain.ErrFueraDeTurno
	}

	veredicto, err := s.validador.Validar(ctx, grupo.ID, fecha, 0)
	if err != nil {
		return nil, fmt.Errorf("validar ausencias: %w", err)
	}
	if !veredicto.Permitido {
		return nil, domain.ErrLimiteAusencia
	}

	orden := ReservaDia{
		EmpleadoID:   empleadoID,
		GrupoID:      grupo.ID,
		AsignacionID: asignacion.ID,
		Fecha:        fecha,
		Tipo:         domain.VacacionAnual,
		Origen:       domain.OrigenEmpleado,
	}
	vacacion, err := s.reservarConReintento(ctx, orden)
	if err != nil {
		return nil, err
	}

	s.publicar(ctx, domain.NuevoEvento(
		domain.EventoDiaAsignado,
		empleadoID,
		empleado.Email,
		empleado.FullName,
		"Día de vacaciones reservado",
		fmt.Sprintf("Tu día de vacaciones del %s quedó reservado.", fecha.Format("02/01/2006")),
		map[string]any{"fecha": fecha.Format(time.DateOnly), "tipo": vacacion.Tipo},
	))

	return &Resultado{Vacacion: vacacion, Advertencia: veredicto.Advertencia}, nil
}

// CancelarDia revierte una selección previa del empleado y restaura su saldo.
func (s *Servicio) CancelarDia(ctx context.Context, empleadoID int64, fecha time.Time) error {
	empleado, err := s.almacen.Empleado(ctx, empleadoID)
	if err != nil {
		return fmt.Errorf("consultar empleado: %w", err)
	}

	vacacion, err := s.almacen.CancelarDia(ctx, empleadoID, fecha)
	if errors.Is(err, domain.ErrConflictoConcurrencia) {
		vacacion, err = s.almacen.CancelarDia(ctx, empleadoID, fecha)
	}
	if err != nil {
		return err
	}

	s.publicar(ctx, domain.NuevoEvento(
		domain.EventoDiaCancelado,
		empleadoID,
		empleado.Email,
		empleado.FullName,
		"Día de vacaciones cancelado",
		fmt.Sprintf("Tu día de vacaciones del %s fue cancelado y el saldo quedó restaurado.", fecha.Format("02/01/2006")),
		map[string]any{"fecha": fecha.Format(time.DateOnly), "tipo": vacacion.Tipo},
	))
	return nil
}

// CompletarReservacion marca la asignación del empleado como Reservado, lo que
// libera el turno de las posiciones siguientes del bloque.
func (s *Servicio) CompletarReservacion(ctx context.Context, empleadoID int64, anio int) error {
	bloque, asignacion, err := s.almacen.AsignacionVigente(ctx, empleadoID, anio)
	if err != nil {
		return fmt.Errorf("consultar asignación de bloque: %w", err)
	}
	if bloque == nil || asignacion == nil {
		return domain.ErrFueraDeTurno
	}
	if asignacion.Resuelta() {
		return nil
	}
	if !bloque.Bloque.Contiene(s.ahora()) {
		return domain.ErrFueraDeTurno
	}
	return s.almacen.MarcarReservacionCompleta(ctx, asignacion.ID)
}

// Estado devuelve la proyección de reservación que el frontend presenta.
func (s *Servicio) Estado(ctx context.Context, empleadoID int64, anio int) (domain.EstadoReserva, error) {
	bloque, asignacion, err := s.almacen.AsignacionVigente(ctx, empleadoID, anio)
	if err != nil {
		return "", fmt.Errorf("consultar asignación de bloque: %w", err)
	}
	if bloque == nil {
		return domain.ReservaCerrado, nil
	}
	return bloques.ProyectarEstado(bloque.Bloque, asignacion, bloque.Asignaciones, s.ahora(), s.lookahead), nil
}

func (s *Servicio) empleadoConGrupo(ctx context.Context, empleadoID int64) (*domain.User, *domain.GrupoTrabajo, error) {
	empleado, err := s.almacen.Empleado(ctx, empleadoID)
	if err != nil {
		return nil, nil, fmt.Errorf("consultar empleado: %w", err)
	}
	if empleado.GrupoID == nil {
		return nil, nil, fmt.Errorf("el empleado %d no pertenece a ningún grupo", empleadoID)
	}
	grupo, err := s.almacen.Grupo(ctx, *empleado.GrupoID)
	if err != nil {
		return nil, nil, fmt.Errorf("consultar grupo: %w", err)
	}
	return empleado, grupo, nil
}

// reservarConReintento ejecuta la orden atómica y reintenta una sola vez si
// pierde la carrera contra otro escritor.
func (s *Servicio) reservarConReintento(ctx context.Context, orden ReservaDia) (*domain.VacacionAsignada, error) {
	vacacion, err := s.almacen.ReservarDia(ctx, orden)
	if errors.Is(err, domain.ErrConflictoConcurrencia) {
		s.logger.Info("conflicto de concurrencia al reservar, reintentando",
			slog.Int64("empleadoID", orden.EmpleadoID),
			slog.Time("fecha", orden.Fecha),
		)
		vacacion, err = s.almacen.ReservarDia(ctx, orden)
	}
	return vacacion, err
}

func (s *Servicio) publicar(ctx context.Context, evento *domain.Evento) {
	if err := s.publicador.Publicar(ctx, evento); err != nil {
		s.logger.Error("no se pudo publicar el evento",
			slog.String("tipo", string(evento.Tipo)),
			slog.Int64("empleadoID", evento.EmpleadoID),
			slog.String("error", err.Error()),
		)
	}
}
