// Package reprogramacion maneja las solicitudes de cambio de un día de
// vacaciones ya comprometido. La aprobación intercambia el día viejo por el
// nuevo en un solo paso atómico: un intercambio a medias equivale a que no
// ocurrió.
package reprogramacion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// OrdenAprobacion es el intercambio atómico que ejecuta el almacén bajo el
// candado de (grupo, fecha nueva): cancela la vacación original, inserta la
// nueva con tipo Reprogramacion, revalida el techo excluyendo el día origen
// del propio empleado y marca la solicitud como aprobada.
type OrdenAprobacion struct {
	SolicitudID int64
	GrupoID     int64
	ResueltaPor int64
}

type Almacen interface {
	Empleado(ctx context.Context, id int64) (*domain.User, error)
	Grupo(ctx context.Context, id int64) (*domain.GrupoTrabajo, error)
	Vacacion(ctx context.Context, id int64) (*domain.VacacionAsignada, error)
	// VacacionActivaEn busca la vacación activa del empleado en la fecha, nil
	// si no hay.
	VacacionActivaEn(ctx context.Context, empleadoID int64, fecha time.Time) (*domain.VacacionAsignada, error)
	CrearSolicitud(ctx context.Context, solicitud *domain.SolicitudReprogramacion) error
	Solicitud(ctx context.Context, id int64) (*domain.SolicitudReprogramacion, error)
	AprobarSolicitud(ctx context.Context, orden OrdenAprobacion) error
	RechazarSolicitud(ctx context.Context, solicitudID, resueltaPor int64, motivo string) error
}

type Servicio struct {
	almacen    Almacen
	registro   *turnos.Registro
	validador  *ausencias.Validador
	publicador domain.Publicador
	logger     *slog.Logger
}

func NuevoServicio(almacen Almacen, registro *turnos.Registro, validador *ausencias.Validador, publicador domain.Publicador, logger *slog.Logger) *Servicio {
	return &Servicio{
		almacen:    almacen,
		registro:   registro,
		validador:  validador,
		publicador: publicador,
		logger:     logger,
	}
}

// Solicitar levanta una solicitud de reprogramación sobre una vacación activa
// del empleado. No toca el calendario: solo valida y registra la petición con
// su proyección de ausencia para auditoría.
func (s *Servicio) Solicitar(ctx context.Context, empleadoID, vacacionID int64, fechaNueva time.Time, motivo string) (*domain.SolicitudReprogramacion, error) {
	empleado, grupo, err := s.empleadoConGrupo(ctx, empleadoID)
	if err != nil {
		return nil, err
	}

	vacacion, err := s.almacen.Vacacion(ctx, vacacionID)
	if err != nil {
		return nil, fmt.Errorf("consultar vacación: %w", err)
	}
	if vacacion.EmpleadoID != empleadoID {
		return nil, fmt.Errorf("la vacación %d no pertenece al empleado %d", vacacionID, empleadoID)
	}
	if vacacion.Estado != domain.VacacionActiva {
		return nil, domain.ErrDiaNoRemovible
	}

	if err := s.validarFechaNueva(ctx, empleado, grupo, fechaNueva); err != nil {
		return nil, err
	}

	veredicto, err := s.validador.Validar(ctx, grupo.ID, fechaNueva, empleadoID)
	if err != nil {
		return nil, fmt.Errorf("validar ausencias: %w", err)
	}
	if !veredicto.Permitido {
		return nil, domain.ErrLimiteAusencia
	}

	solicitud := &domain.SolicitudReprogramacion{
		EmpleadoID:          empleadoID,
		VacacionOriginalID:  vacacionID,
		FechaOriginal:       vacacion.Fecha,
		FechaNueva:          fechaNueva,
		Estado:              domain.SolicitudSolicitada,
		MotivoEmpleado:      motivo,
		PorcentajeCalculado: veredicto.PorcentajeProyectado,
	}
	if err := s.almacen.CrearSolicitud(ctx, solicitud); err != nil {
		return nil, fmt.Errorf("crear solicitud: %w", err)
	}
	return solicitud, nil
}

// Aprobar ejecuta el intercambio atómico. El almacén repite la validación de
// ausencias sobre la fecha nueva, excluyendo el día origen del empleado, bajo
// el mismo candado que la escritura; aquí solo se repiten las verificaciones
// baratas y se reintenta una vez el conflicto de concurrencia.
func (s *Servicio) Aprobar(ctx context.Context, solicitudID, resueltaPor int64) error {
	solicitud, err := s.almacen.Solicitud(ctx, solicitudID)
	if err != nil {
		return fmt.Errorf("consultar solicitud: %w", err)
	}
	if solicitud.Estado != domain.SolicitudSolicitada {
		return domain.ErrSolicitudResuelta
	}

	empleado, grupo, err := s.empleadoConGrupo(ctx, solicitud.EmpleadoID)
	if err != nil {
		return err
	}
	if err := s.validarFechaNueva(ctx, empleado, grupo, solicitud.FechaNueva); err != nil {
		return err
	}

	orden := OrdenAprobacion{SolicitudID: solicitudID, GrupoID: grupo.ID, ResueltaPor: resueltaPor}
	err = s.almacen.AprobarSolicitud(ctx, orden)
	if errors.Is(err, domain.ErrConflictoConcurrencia) {
		s.logger.Info("conflicto de concurrencia al aprobar reprogramación, reintentando",
			slog.Int64("solicitudID", solicitudID))
		err = s.almacen.AprobarSolicitud(ctx, orden)
	}
	if err != nil {
		return err
	}

	s.publicar(ctx, empleado, solicitud, "Reprogramación aprobada",
		fmt.Sprintf("Tu día del %s se movió al %s.",
			solicitud.FechaOriginal.Format("02/01/2006"), solicitud.FechaNueva.Format("02/01/2006")))
	return nil
}

// Rechazar cierra la solicitud sin tocar el calendario.
func (s *Servicio) Rechazar(ctx context.Context, solicitudID, resueltaPor int64, motivo string) error {
	if motivo == "" {
		return fmt.Errorf("el rechazo requiere un motivo")
	}

	solicitud, err := s.almacen.Solicitud(ctx, solicitudID)
	if err != nil {
		return fmt.Errorf("consultar solicitud: %w", err)
	}
	if solicitud.Estado != domain.SolicitudSolicitada {
		return domain.ErrSolicitudResuelta
	}

	if err := s.almacen.RechazarSolicitud(ctx, solicitudID, resueltaPor, motivo); err != nil {
		return err
	}

	empleado, err := s.almacen.Empleado(ctx, solicitud.EmpleadoID)
	if err != nil {
		return fmt.Errorf("consultar empleado: %w", err)
	}
	s.publicar(ctx, empleado, solicitud, "Reprogramación rechazada",
		fmt.Sprintf("Tu solicitud para mover el día del %s fue rechazada: %s",
			solicitud.FechaOriginal.Format("02/01/2006"), motivo))
	return nil
}

// validarFechaNueva aplica los rechazos de negocio sobre la fecha destino:
// debe ser laborable para el empleado y no estar ya comprometida.
func (s *Servicio) validarFechaNueva(ctx context.Context, empleado *domain.User, grupo *domain.GrupoTrabajo, fechaNueva time.Time) error {
	turno := s.registro.Resolve(grupo.ReglaCodigo, grupo.NumeroGrupo, fechaNueva)
	if turnos.EsDescanso(turno) {
		return domain.ErrDiaNoSeleccionable
	}

	existente, err := s.almacen.VacacionActivaEn(ctx, empleado.ID, fechaNueva)
	if err != nil {
		return fmt.Errorf("consultar vacaciones: %w", err)
	}
	if existente != nil {
		return domain.ErrDiaYaAsignado
	}
	return nil
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

func (s *Servicio) publicar(ctx context.Context, empleado *domain.User, solicitud *domain.SolicitudReprogramacion, titulo, mensaje string) {
	evento := domain.NuevoEvento(
		domain.EventoReprogramacionResuelta,
		empleado.ID,
		empleado.Email,
		empleado.FullName,
		titulo,
		mensaje,
		map[string]any{
			"solicitudID":   solicitud.ID,
			"fechaOriginal": solicitud.FechaOriginal.Format(time.DateOnly),
			"fechaNueva":    solicitud.FechaNueva.Format(time.DateOnly),
		},
	)
	if err := s.publicador.Publicar(ctx, evento); err != nil {
		s.logger.Error("no se pudo publicar el evento",
			slog.String("tipo", string(evento.Tipo)),
			slog.Int64("empleadoID", evento.EmpleadoID),
			slog.String("error", err.Error()),
		)
	}
}
