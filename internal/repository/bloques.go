package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

const columnasBloque = `
	id, grupo_id, area_id, anio_objetivo, numero, inicio, fin,
	personas_por_bloque, estado, es_bloque_cola, generado_por,
	fecha_aprobacion, aprobado_por, observaciones, created_at, version
`

const columnasAsignacion = `
	id, bloque_id, empleado_id, posicion, estado, fecha_completado,
	asignado_por, observaciones, created_at
`

func escanearBloque(row interface{ Scan(...any) error }) (*domain.BloqueReservacion, error) {
	b := &domain.BloqueReservacion{}
	dst := []any{&b.ID, &b.GrupoID, &b.AreaID, &b.AnioObjetivo, &b.Numero, &b.Inicio, &b.Fin, &b.PersonasPorBloque, &b.Estado, &b.EsBloqueCola, &b.GeneradoPor, &b.FechaAprobacion, &b.AprobadoPor, &b.Observaciones, &b.CreatedAt, &b.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return b, nil
}

func escanearAsignacion(row interface{ Scan(...any) error }) (*domain.AsignacionBloque, error) {
	a := &domain.AsignacionBloque{}
	dst := []any{&a.ID, &a.BloqueID, &a.EmpleadoID, &a.Posicion, &a.Estado, &a.FechaCompletado, &a.AsignadoPor, &a.Observaciones, &a.CreatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return a, nil
}

// GuardarBloques persiste un ciclo completo generado para un grupo: bloques y
// asignaciones en una transacción. Rechaza la escritura si el grupo ya tiene
// bloques no cancelados para el año objetivo.
func (r *Repository) GuardarBloques(ctx context.Context, ciclo []*bloques.BloqueConAsignaciones) error {
	if len(ciclo) == 0 {
		return nil
	}
	for _, bc := range ciclo {
		if err := bloques.VerificarPosiciones(bc.Asignaciones); err != nil {
			return err
		}
	}

	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	primero := ciclo[0].Bloque
	existe := false
	previo := `
		SELECT EXISTS (
			SELECT 1 FROM bloques_reservacion
			WHERE grupo_id = $1 AND anio_objetivo = $2 AND estado <> 'Cancelado'
		)
	`
	if err := tx.QueryRowContext(ctx, previo, primero.GrupoID, primero.AnioObjetivo).Scan(&existe); err != nil {
		return err
	}
	if existe {
		return domain.ErrConflictoConcurrencia
	}

	insertaBloque := `
		INSERT INTO bloques_reservacion (grupo_id, area_id, anio_objetivo, numero, inicio, fin,
			personas_por_bloque, estado, es_bloque_cola, generado_por, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, version
	`
	insertaAsignacion := `
		INSERT INTO asignaciones_bloque (bloque_id, empleado_id, posicion, estado, asignado_por, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	for _, bc := range ciclo {
		b := bc.Bloque
		args := []any{b.GrupoID, b.AreaID, b.AnioObjetivo, b.Numero, b.Inicio, b.Fin, b.PersonasPorBloque, b.Estado, b.EsBloqueCola, b.GeneradoPor, b.Observaciones}
		if err := tx.QueryRowContext(ctx, insertaBloque, args...).Scan(&b.ID, &b.CreatedAt, &b.Version); err != nil {
			return err
		}
		for _, a := range bc.Asignaciones {
			a.BloqueID = b.ID
			args := []any{a.BloqueID, a.EmpleadoID, a.Posicion, a.Estado, a.AsignadoPor, a.Observaciones}
			if err := tx.QueryRowContext(ctx, insertaAsignacion, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *Repository) BloquePorID(ctx context.Context, id int64) (*bloques.BloqueConAsignaciones, error) {
	query := `SELECT ` + columnasBloque + ` FROM bloques_reservacion WHERE id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	bloque, err := escanearBloque(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	asignaciones, err := r.asignacionesDeBloques(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return &bloques.BloqueConAsignaciones{Bloque: bloque, Asignaciones: asignaciones[id]}, nil
}

// BloquesDelGrupo devuelve el ciclo del grupo para el año, ordenado por número
// y con las asignaciones de cada bloque.
func (r *Repository) BloquesDelGrupo(ctx context.Context, grupoID int64, anio int) ([]*bloques.BloqueConAsignaciones, error) {
	query := `
		SELECT ` + columnasBloque + `
		FROM bloques_reservacion
		WHERE grupo_id = $1 AND anio_objetivo = $2 AND estado <> 'Cancelado'
		ORDER BY numero
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, grupoID, anio)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ciclo := make([]*bloques.BloqueConAsignaciones, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		b, err := escanearBloque(rows)
		if err != nil {
			return nil, err
		}
		ciclo = append(ciclo, &bloques.BloqueConAsignaciones{Bloque: b})
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ciclo) == 0 {
		return ciclo, nil
	}

	porBloque, err := r.asignacionesDeBloques(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, bc := range ciclo {
		bc.Asignaciones = porBloque[bc.Bloque.ID]
	}
	return ciclo, nil
}

func (r *Repository) asignacionesDeBloques(ctx context.Context, bloqueIDs []int64) (map[int64][]*domain.AsignacionBloque, error) {
	query := `
		SELECT ` + columnasAsignacion + `
		FROM asignaciones_bloque
		WHERE bloque_id = ANY($1)
		ORDER BY bloque_id, posicion
	`

	rows, err := r.dbpool.QueryContext(ctx, query, bloqueIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	porBloque := make(map[int64][]*domain.AsignacionBloque)
	for rows.Next() {
		a, err := escanearAsignacion(rows)
		if err != nil {
			return nil, err
		}
		porBloque[a.BloqueID] = append(porBloque[a.BloqueID], a)
	}
	return porBloque, rows.Err()
}

// AsignacionVigente busca la asignación no transferida del empleado dentro del
// ciclo del año y devuelve su bloque con todas las asignaciones pares. Ambos
// en nil cuando el empleado no participa en ningún ciclo.
func (r *Repository) AsignacionVigente(ctx context.Context, empleadoID int64, anio int) (*bloques.BloqueConAsignaciones, *domain.AsignacionBloque, error) {
	query := `
		SELECT a.bloque_id
		FROM asignaciones_bloque a
		JOIN bloques_reservacion b ON b.id = a.bloque_id
		WHERE a.empleado_id = $1 AND b.anio_objetivo = $2
		  AND a.estado <> 'Transferido' AND b.estado <> 'Cancelado'
		ORDER BY b.numero DESC
		LIMIT 1
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var bloqueID int64
	if err := r.dbpool.QueryRowContext(qctx, query, empleadoID, anio).Scan(&bloqueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	bc, err := r.BloquePorID(ctx, bloqueID)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range bc.Asignaciones {
		if a.EmpleadoID == empleadoID && a.Estado != domain.AsignacionTransferida {
			return bc, a, nil
		}
	}
	return nil, nil, nil
}

// AprobarBloques publica el ciclo del grupo: Activo pasa a Aprobado y los
// empleados quedan visibles para reservar en su ventana.
func (r *Repository) AprobarBloques(ctx context.Context, grupoID int64, anio int, aprobadoPor int64) (int64, error) {
	query := `
		UPDATE bloques_reservacion
		SET estado = 'Aprobado', fecha_aprobacion = now(), aprobado_por = $3, version = version + 1
		WHERE grupo_id = $1 AND anio_objetivo = $2 AND estado = 'Activo'
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, grupoID, anio, aprobadoPor)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarcarReservacionCompleta cierra el turno del empleado una vez que terminó
// de seleccionar. Es idempotente sobre asignaciones ya resueltas.
func (r *Repository) MarcarReservacionCompleta(ctx context.Context, asignacionID int64) error {
	query := `
		UPDATE asignaciones_bloque
		SET estado = 'Completado', fecha_completado = now()
		WHERE id = $1 AND estado IN ('Asignado', 'Reservado')
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, asignacionID)
	return err
}

// AplicarPlan ejecuta en una sola transacción el plan del barrido de estados:
// asignaciones completadas, bloques completados, transferencias al bloque cola
// y marcas de NoRespondio.
func (r *Repository) AplicarPlan(ctx context.Context, colaID int64, plan bloques.PlanActualizacion) error {
	if plan.Vacio() {
		return nil
	}

	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(plan.AsignacionesCompletadas) > 0 {
		query := `
			UPDATE asignaciones_bloque
			SET estado = 'Completado', fecha_completado = now()
			WHERE id = ANY($1) AND estado = 'Reservado'
		`
		if _, err := tx.ExecContext(ctx, query, plan.AsignacionesCompletadas); err != nil {
			return err
		}
	}

	for _, t := range plan.Transferencias {
		marca := `
			UPDATE asignaciones_bloque
			SET estado = 'Transferido'
			WHERE id = $1 AND estado = 'Asignado'
		`
		res, err := tx.ExecContext(ctx, marca, t.AsignacionID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		// Otro barrido ya la movió; no dupliques la fila en la cola.
		if n == 0 {
			continue
		}

		inserta := `
			INSERT INTO asignaciones_bloque (bloque_id, empleado_id, posicion, estado, asignado_por, observaciones)
			VALUES ($1, $2, $3, 'Asignado', 0, $4)
		`
		nota := "transferido del bloque " + strconv.Itoa(t.BloqueOrigen)
		if _, err := tx.ExecContext(ctx, inserta, colaID, t.EmpleadoID, t.Posicion, nota); err != nil {
			return err
		}
	}

	if len(plan.SinRespuesta) > 0 {
		query := `
			UPDATE asignaciones_bloque
			SET estado = 'NoRespondio'
			WHERE id = ANY($1) AND estado = 'Asignado'
		`
		if _, err := tx.ExecContext(ctx, query, plan.SinRespuesta); err != nil {
			return err
		}
	}

	if len(plan.BloquesCompletados) > 0 {
		query := `
			UPDATE bloques_reservacion
			SET estado = 'Completado', version = version + 1
			WHERE id = ANY($1) AND estado IN ('Aprobado', 'Activo')
		`
		if _, err := tx.ExecContext(ctx, query, plan.BloquesCompletados); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReasignarEmpleado aplica el movimiento administrativo planeado: transfiere
// la asignación de origen e inserta la nueva al final del bloque destino.
func (r *Repository) ReasignarEmpleado(ctx context.Context, origenID int64, nueva *domain.AsignacionBloque) error {
	ctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	marca := `
		UPDATE asignaciones_bloque
		SET estado = 'Transferido'
		WHERE id = $1 AND estado NOT IN ('Transferido', 'Completado')
	`
	res, err := tx.ExecContext(ctx, marca, origenID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConflictoConcurrencia
	}

	inserta := `
		INSERT INTO asignaciones_bloque (bloque_id, empleado_id, posicion, estado, asignado_por, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	args := []any{nueva.BloqueID, nueva.EmpleadoID, nueva.Posicion, nueva.Estado, nueva.AsignadoPor, nueva.Observaciones}
	if err := tx.QueryRowContext(ctx, inserta, args...).Scan(&nueva.ID, &nueva.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GruposConCicloVigente lista los grupos con bloques abiertos, para el barrido
// periódico de estados.
func (r *Repository) GruposConCicloVigente(ctx context.Context) (map[int64]int, error) {
	query := `
		SELECT DISTINCT grupo_id, anio_objetivo
		FROM bloques_reservacion
		WHERE estado IN ('Aprobado', 'Activo')
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grupos := make(map[int64]int)
	for rows.Next() {
		var grupoID int64
		var anio int
		if err := rows.Scan(&grupoID, &anio); err != nil {
			return nil, err
		}
		grupos[grupoID] = anio
	}
	return grupos, rows.Err()
}
