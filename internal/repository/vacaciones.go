package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/asignacion"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/reservas"
)

const columnasVacacion = `
	id, empleado_id, fecha, tipo, origen, estado, observaciones, created_at
`

func escanearVacacion(row interface{ Scan(...any) error }) (*domain.VacacionAsignada, error) {
	v := &domain.VacacionAsignada{}
	dst := []any{&v.ID, &v.EmpleadoID, &v.Fecha, &v.Tipo, &v.Origen, &v.Estado, &v.Observaciones, &v.CreatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repository) Vacacion(ctx context.Context, id int64) (*domain.VacacionAsignada, error) {
	query := `SELECT ` + columnasVacacion + ` FROM vacaciones_asignadas WHERE id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return escanearVacacion(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) VacacionActivaEn(ctx context.Context, empleadoID int64, fecha time.Time) (*domain.VacacionAsignada, error) {
	query := `
		SELECT ` + columnasVacacion + `
		FROM vacaciones_asignadas
		WHERE empleado_id = $1 AND fecha = $2 AND estado = 'Activa'
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	v, err := escanearVacacion(r.dbpool.QueryRowContext(ctx, query, empleadoID, soloFecha(fecha)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// VacacionesDelEmpleado devuelve las vacaciones activas del empleado dentro
// del rango, para la proyección de calendario.
func (r *Repository) VacacionesDelEmpleado(ctx context.Context, empleadoID int64, desde, hasta time.Time) (map[time.Time]domain.TipoVacacion, error) {
	query := `
		SELECT fecha, tipo
		FROM vacaciones_asignadas
		WHERE empleado_id = $1 AND estado = 'Activa' AND fecha BETWEEN $2 AND $3
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, empleadoID, soloFecha(desde), soloFecha(hasta))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fechas := make(map[time.Time]domain.TipoVacacion)
	for rows.Next() {
		var f time.Time
		var tipo domain.TipoVacacion
		if err := rows.Scan(&f, &tipo); err != nil {
			return nil, err
		}
		fechas[soloFecha(f)] = tipo
	}
	return fechas, rows.Err()
}

func (r *Repository) FechasAsignadas(ctx context.Context, empleadoID int64, anio int) (map[time.Time]struct{}, error) {
	query := `
		SELECT fecha
		FROM vacaciones_asignadas
		WHERE empleado_id = $1 AND estado = 'Activa' AND EXTRACT(YEAR FROM fecha) = $2
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, empleadoID, anio)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fechas := make(map[time.Time]struct{})
	for rows.Next() {
		var f time.Time
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		fechas[soloFecha(f)] = struct{}{}
	}
	return fechas, rows.Err()
}

func (r *Repository) DiasAutomaticosActivos(ctx context.Context, empleadoID int64, anio int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM vacaciones_asignadas
		WHERE empleado_id = $1 AND estado = 'Activa' AND tipo = 'Automatica'
		  AND EXTRACT(YEAR FROM fecha) = $2
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var n int
	if err := r.dbpool.QueryRowContext(ctx, query, empleadoID, anio).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ConteoAusencias implementa la lectura fuera de transacción del validador.
func (r *Repository) ConteoAusencias(ctx context.Context, grupoID int64, fecha time.Time, excluirEmpleadoID int64) (ausencias.Conteo, error) {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return ausencias.Conteo{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conteo, err := conteoAusenciasTx(ctx, tx, grupoID, soloFecha(fecha), excluirEmpleadoID)
	if err != nil {
		return ausencias.Conteo{}, err
	}
	return conteo, tx.Commit()
}

func (r *Repository) UmbralesPara(ctx context.Context, grupoID int64, fecha time.Time) (ausencias.Umbrales, error) {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return ausencias.Umbrales{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	umbrales, err := r.umbralesTx(ctx, tx, grupoID, soloFecha(fecha))
	if err != nil {
		return ausencias.Umbrales{}, err
	}
	return umbrales, tx.Commit()
}

// ReservarDia ejecuta la selección de un día bajo el candado de
// (grupo, fecha): revalida turno, unicidad, techo de ausencia y saldo dentro
// de la transacción, inserta la vacación y descuenta el saldo.
func (r *Repository) ReservarDia(ctx context.Context, orden reservas.ReservaDia) (*domain.VacacionAsignada, error) {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	fecha := soloFecha(orden.Fecha)

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := bloquearGrupoFecha(ctx, tx, orden.GrupoID, fecha); err != nil {
		return nil, err
	}

	// Turno de reservación: el bloque debe contener el instante actual y no
	// puede quedar ninguna posición menor sin resolver.
	enTurno := false
	turnoQuery := `
		SELECT b.inicio <= now() AND now() < b.fin
		   AND b.estado IN ('Aprobado', 'Activo')
		   AND NOT EXISTS (
				SELECT 1 FROM asignaciones_bloque p
				WHERE p.bloque_id = a.bloque_id
				  AND p.posicion < a.posicion
				  AND p.estado = 'Asignado'
		   )
		FROM asignaciones_bloque a
		JOIN bloques_reservacion b ON b.id = a.bloque_id
		WHERE a.id = $1 AND a.empleado_id = $2
	`
	if err := tx.QueryRowContext(ctx, turnoQuery, orden.AsignacionID, orden.EmpleadoID).Scan(&enTurno); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFueraDeTurno
		}
		return nil, err
	}
	if !enTurno {
		return nil, domain.ErrFueraDeTurno
	}

	if err := verificarDisponibilidadTx(ctx, tx, r, orden.GrupoID, orden.EmpleadoID, fecha); err != nil {
		return nil, err
	}

	if err := descontarSaldoTx(ctx, tx, orden.EmpleadoID, fecha.Year(), orden.Tipo); err != nil {
		return nil, err
	}

	vacacion, err := insertarVacacionTx(ctx, tx, orden.EmpleadoID, fecha, orden.Tipo, orden.Origen, "")
	if err != nil {
		return nil, err
	}

	// El primer día elegido mueve la asignación a Reservado.
	marca := `
		UPDATE asignaciones_bloque
		SET estado = 'Reservado'
		WHERE id = $1 AND estado = 'Asignado'
	`
	if _, err := tx.ExecContext(ctx, marca, orden.AsignacionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return vacacion, nil
}

// CancelarDia revierte una selección del empleado y restaura su saldo.
func (r *Repository) CancelarDia(ctx context.Context, empleadoID int64, fecha time.Time) (*domain.VacacionAsignada, error) {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	f := soloFecha(fecha)

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE vacaciones_asignadas
		SET estado = 'Cancelada'
		WHERE empleado_id = $1 AND fecha = $2 AND estado = 'Activa'
		  AND origen = 'Empleado' AND tipo IN ('Anual', 'Reprogramacion')
		RETURNING ` + columnasVacacion

	vacacion, err := escanearVacacion(tx.QueryRowContext(ctx, query, empleadoID, f))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDiaNoRemovible
		}
		return nil, err
	}

	columna := "consumido_anual"
	if vacacion.Tipo == domain.VacacionReprogramacion {
		columna = "consumido_reprogramacion"
	}
	restaura := `
		UPDATE saldos_vacaciones
		SET ` + columna + ` = GREATEST(` + columna + ` - 1, 0), version = version + 1
		WHERE empleado_id = $1 AND anio = $2
	`
	if _, err := tx.ExecContext(ctx, restaura, empleadoID, f.Year()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return vacacion, nil
}

// AsignarDiaAutomatico escribe un día del motor bajo el mismo candado que la
// selección manual; no verifica turno de bloque porque el motor corre antes
// de que el ciclo abra.
func (r *Repository) AsignarDiaAutomatico(ctx context.Context, orden asignacion.OrdenAutomatica) (*domain.VacacionAsignada, error) {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	fecha := soloFecha(orden.Fecha)

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := bloquearGrupoFecha(ctx, tx, orden.GrupoID, fecha); err != nil {
		return nil, err
	}
	if err := verificarDisponibilidadTx(ctx, tx, r, orden.GrupoID, orden.EmpleadoID, fecha); err != nil {
		return nil, err
	}
	if err := descontarSaldoTx(ctx, tx, orden.EmpleadoID, fecha.Year(), domain.VacacionAutomatica); err != nil {
		return nil, err
	}

	vacacion, err := insertarVacacionTx(ctx, tx, orden.EmpleadoID, fecha, domain.VacacionAutomatica, domain.OrigenSistema, "")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return vacacion, nil
}

// AsignarDiaManual brinca la validación de ausencias y deja el registro de
// auditoría en la misma transacción.
func (r *Repository) AsignarDiaManual(ctx context.Context, orden asignacion.OrdenManual) (*domain.VacacionAsignada, error) {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	fecha := soloFecha(orden.Fecha)

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Unicidad sí; techo de ausencia no.
	existe := false
	unico := `
		SELECT EXISTS (
			SELECT 1 FROM vacaciones_asignadas
			WHERE empleado_id = $1 AND fecha = $2 AND estado = 'Activa'
		)
	`
	if err := tx.QueryRowContext(ctx, unico, orden.EmpleadoID, fecha).Scan(&existe); err != nil {
		return nil, err
	}
	if existe {
		return nil, domain.ErrDiaYaAsignado
	}

	vacacion, err := insertarVacacionTx(ctx, tx, orden.EmpleadoID, fecha, orden.Tipo, domain.OrigenManual, orden.Justificacion)
	if err != nil {
		return nil, err
	}

	datos, _ := json.Marshal(map[string]any{
		"vacacionID": vacacion.ID,
		"fecha":      fecha.Format(time.DateOnly),
		"tipo":       orden.Tipo,
	})
	auditoria := `
		INSERT INTO registro_auditoria (operador_id, empleado_id, accion, justificacion, datos)
		VALUES ($1, $2, 'AsignacionManual', $3, $4)
	`
	if _, err := tx.ExecContext(ctx, auditoria, orden.OperadorID, orden.EmpleadoID, orden.Justificacion, datos); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return vacacion, nil
}

// verificarDisponibilidadTx repite, ya con el candado tomado, la unicidad por
// (empleado, fecha) y el techo de ausencia del grupo.
func verificarDisponibilidadTx(ctx context.Context, tx *sql.Tx, r *Repository, grupoID, empleadoID int64, fecha time.Time) error {
	existe := false
	unico := `
		SELECT EXISTS (
			SELECT 1 FROM vacaciones_asignadas
			WHERE empleado_id = $1 AND fecha = $2 AND estado = 'Activa'
		)
	`
	if err := tx.QueryRowContext(ctx, unico, empleadoID, fecha).Scan(&existe); err != nil {
		return err
	}
	if existe {
		return domain.ErrDiaYaAsignado
	}

	conteo, err := conteoAusenciasTx(ctx, tx, grupoID, fecha, 0)
	if err != nil {
		return err
	}
	umbrales, err := r.umbralesTx(ctx, tx, grupoID, fecha)
	if err != nil {
		return err
	}
	if veredicto := ausencias.Evaluar(conteo, umbrales); !veredicto.Permitido {
		return domain.ErrLimiteAusencia
	}
	return nil
}

// descontarSaldoTx consume un día de la categoría correspondiente con guardia
// de tope: si otro escritor agotó el saldo primero, la fila no se actualiza.
func descontarSaldoTx(ctx context.Context, tx *sql.Tx, empleadoID int64, anio int, tipo domain.TipoVacacion) error {
	var query string
	switch tipo {
	case domain.VacacionAutomatica:
		query = `
			UPDATE saldos_vacaciones
			SET consumido_automatica = consumido_automatica + 1, version = version + 1
			WHERE empleado_id = $1 AND anio = $2 AND consumido_automatica < dias_automaticos
			RETURNING id
		`
	default:
		query = `
			UPDATE saldos_vacaciones
			SET consumido_anual = consumido_anual + 1, version = version + 1
			WHERE empleado_id = $1 AND anio = $2 AND consumido_anual < dias_programables
			RETURNING id
		`
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, empleadoID, anio).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrSinSaldoProgramable
		}
		return err
	}
	return nil
}

func insertarVacacionTx(ctx context.Context, tx *sql.Tx, empleadoID int64, fecha time.Time, tipo domain.TipoVacacion, origen domain.OrigenAsignacion, observaciones string) (*domain.VacacionAsignada, error) {
	query := `
		INSERT INTO vacaciones_asignadas (empleado_id, fecha, tipo, origen, estado, observaciones)
		VALUES ($1, $2, $3, $4, 'Activa', $5)
		RETURNING ` + columnasVacacion

	return escanearVacacion(tx.QueryRowContext(ctx, query, empleadoID, fecha, tipo, origen, observaciones))
}
