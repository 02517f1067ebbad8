package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/reprogramacion"
)

const columnasSolicitud = `
	id, empleado_id, vacacion_original_id, fecha_original, fecha_nueva, estado,
	motivo_empleado, motivo_rechazo, porcentaje_calculado, resuelta_por,
	fecha_respuesta, created_at
`

func escanearSolicitud(row interface{ Scan(...any) error }) (*domain.SolicitudReprogramacion, error) {
	s := &domain.SolicitudReprogramacion{}
	dst := []any{&s.ID, &s.EmpleadoID, &s.VacacionOriginalID, &s.FechaOriginal, &s.FechaNueva, &s.Estado, &s.MotivoEmpleado, &s.MotivoRechazo, &s.PorcentajeCalculado, &s.ResueltaPor, &s.FechaRespuesta, &s.CreatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) CrearSolicitud(ctx context.Context, s *domain.SolicitudReprogramacion) error {
	query := `
		INSERT INTO solicitudes_reprogramacion (empleado_id, vacacion_original_id, fecha_original,
			fecha_nueva, estado, motivo_empleado, porcentaje_calculado)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{s.EmpleadoID, s.VacacionOriginalID, soloFecha(s.FechaOriginal), soloFecha(s.FechaNueva), s.Estado, s.MotivoEmpleado, s.PorcentajeCalculado}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt)
}

func (r *Repository) Solicitud(ctx context.Context, id int64) (*domain.SolicitudReprogramacion, error) {
	query := `SELECT ` + columnasSolicitud + ` FROM solicitudes_reprogramacion WHERE id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return escanearSolicitud(r.dbpool.QueryRowContext(ctx, query, id))
}

// Solicitudes lista las solicitudes por estado; estado vacío lista todas.
func (r *Repository) Solicitudes(ctx context.Context, estado domain.EstadoSolicitud) ([]*domain.SolicitudReprogramacion, error) {
	query := `
		SELECT ` + columnasSolicitud + `
		FROM solicitudes_reprogramacion
		WHERE $1 = '' OR estado = $1
		ORDER BY created_at
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, string(estado))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	solicitudes := make([]*domain.SolicitudReprogramacion, 0)
	for rows.Next() {
		s, err := escanearSolicitud(rows)
		if err != nil {
			return nil, err
		}
		solicitudes = append(solicitudes, s)
	}
	return solicitudes, rows.Err()
}

// AprobarSolicitud ejecuta el intercambio atómico bajo el candado de
// (grupo, fecha nueva): revalida el techo excluyendo al propio empleado,
// cancela la vacación original, inserta el día reprogramado, mueve el consumo
// de saldo de una categoría a otra y marca la solicitud como aprobada. Si
// cualquier paso falla no queda ningún cambio.
func (r *Repository) AprobarSolicitud(ctx context.Context, orden reprogramacion.OrdenAprobacion) error {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	bloqueo := `SELECT ` + columnasSolicitud + ` FROM solicitudes_reprogramacion WHERE id = $1 FOR UPDATE`
	solicitud, err := escanearSolicitud(tx.QueryRowContext(ctx, bloqueo, orden.SolicitudID))
	if err != nil {
		return err
	}
	if solicitud.Estado != domain.SolicitudSolicitada {
		return domain.ErrSolicitudResuelta
	}

	fechaNueva := soloFecha(solicitud.FechaNueva)
	if err := bloquearGrupoFecha(ctx, tx, orden.GrupoID, fechaNueva); err != nil {
		return err
	}

	// Unicidad sobre la fecha destino.
	existe := false
	unico := `
		SELECT EXISTS (
			SELECT 1 FROM vacaciones_asignadas
			WHERE empleado_id = $1 AND fecha = $2 AND estado = 'Activa'
		)
	`
	if err := tx.QueryRowContext(ctx, unico, solicitud.EmpleadoID, fechaNueva).Scan(&existe); err != nil {
		return err
	}
	if existe {
		return domain.ErrDiaYaAsignado
	}

	// Techo de ausencia de la fecha destino, excluyendo al solicitante: su
	// día origen no cuenta porque se está cancelando en este mismo paso.
	conteo, err := conteoAusenciasTx(ctx, tx, orden.GrupoID, fechaNueva, solicitud.EmpleadoID)
	if err != nil {
		return err
	}
	umbrales, err := r.umbralesTx(ctx, tx, orden.GrupoID, fechaNueva)
	if err != nil {
		return err
	}
	if veredicto := ausencias.Evaluar(conteo, umbrales); !veredicto.Permitido {
		return domain.ErrLimiteAusencia
	}

	cancela := `
		UPDATE vacaciones_asignadas
		SET estado = 'Cancelada'
		WHERE id = $1 AND estado = 'Activa'
		RETURNING tipo
	`
	var tipoOriginal domain.TipoVacacion
	if err := tx.QueryRowContext(ctx, cancela, solicitud.VacacionOriginalID).Scan(&tipoOriginal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// El día original ya no está activo; el intercambio perdió su base.
			return domain.ErrDiaNoRemovible
		}
		return err
	}

	if err := moverConsumoTx(ctx, tx, solicitud.EmpleadoID, solicitud.FechaOriginal.Year(), tipoOriginal); err != nil {
		return err
	}

	if _, err := insertarVacacionTx(ctx, tx, solicitud.EmpleadoID, fechaNueva, domain.VacacionReprogramacion, domain.OrigenEmpleado, solicitud.MotivoEmpleado); err != nil {
		return err
	}

	resuelve := `
		UPDATE solicitudes_reprogramacion
		SET estado = 'Aprobada', resuelta_por = $2, fecha_respuesta = now()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, resuelve, orden.SolicitudID, orden.ResueltaPor); err != nil {
		return err
	}

	return tx.Commit()
}

// moverConsumoTx traslada un día consumido de la categoría original hacia
// consumido_reprogramacion dentro del mismo saldo.
func moverConsumoTx(ctx context.Context, tx *sql.Tx, empleadoID int64, anio int, tipoOriginal domain.TipoVacacion) error {
	columna := "consumido_anual"
	switch tipoOriginal {
	case domain.VacacionAutomatica:
		columna = "consumido_automatica"
	case domain.VacacionReprogramacion:
		// Reprogramar un día ya reprogramado no mueve el consumo.
		return nil
	}

	query := `
		UPDATE saldos_vacaciones
		SET ` + columna + ` = GREATEST(` + columna + ` - 1, 0),
			consumido_reprogramacion = consumido_reprogramacion + 1,
			version = version + 1
		WHERE empleado_id = $1 AND anio = $2
	`
	_, err := tx.ExecContext(ctx, query, empleadoID, anio)
	return err
}

// RechazarSolicitud cierra la solicitud sin tocar el calendario.
func (r *Repository) RechazarSolicitud(ctx context.Context, solicitudID, resueltaPor int64, motivo string) error {
	query := `
		UPDATE solicitudes_reprogramacion
		SET estado = 'Rechazada', motivo_rechazo = $2, resuelta_por = $3, fecha_respuesta = now()
		WHERE id = $1 AND estado = 'Solicitada'
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, solicitudID, motivo, resueltaPor)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSolicitudResuelta
	}
	return nil
}
