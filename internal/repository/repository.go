// Package repository implementa la persistencia sobre PostgreSQL. Las
// operaciones que compiten por el conteo de ausencias de un (grupo, fecha)
// serializan con un candado consultivo de transacción sobre esa pareja y
// repiten la decisión completa dentro de la transacción.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) txCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}

// bloquearGrupoFecha toma el candado consultivo de la pareja (grupo, fecha)
// por lo que resta de la transacción. Todos los escritores de esa pareja
// pasan por aquí, así que la verificación de techo que sigue es definitiva.
func bloquearGrupoFecha(ctx context.Context, tx *sql.Tx, grupoID int64, fecha time.Time) error {
	dias := int32(fecha.Unix() / 86400)
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::int, $2::int)`, int32(grupoID), dias)
	return err
}

// conteoAusenciasTx cuenta los ausentes del grupo en la fecha dentro de la
// transacción: vacaciones activas más ausencias externas registradas
// (incapacidades, permisos), sobre la plantilla activa del grupo.
func conteoAusenciasTx(ctx context.Context, tx *sql.Tx, grupoID int64, fecha time.Time, excluirEmpleadoID int64) (ausencias.Conteo, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE grupo_id = $1 AND is_active = true AND nomina IS NOT NULL),
			(SELECT COUNT(DISTINCT empleado_id) FROM (
				SELECT v.empleado_id
				FROM vacaciones_asignadas v
				JOIN users u ON u.id = v.empleado_id
				WHERE u.grupo_id = $1 AND v.fecha = $2 AND v.estado = 'Activa' AND v.empleado_id <> $3
				UNION
				SELECT a.empleado_id
				FROM ausencias_externas a
				JOIN users u ON u.id = a.empleado_id
				WHERE u.grupo_id = $1 AND $2 BETWEEN a.fecha_inicio AND a.fecha_fin AND a.empleado_id <> $3
			) ausentes)
	`

	var conteo ausencias.Conteo
	if err := tx.QueryRowContext(ctx, query, grupoID, fecha, excluirEmpleadoID).Scan(&conteo.TotalEmpleados, &conteo.Ausentes); err != nil {
		return ausencias.Conteo{}, err
	}
	return conteo, nil
}

// umbralesTx resuelve los umbrales vigentes: la excepción por (grupo, fecha)
// si existe, los porcentajes de configuración si no.
func (r *Repository) umbralesTx(ctx context.Context, tx *sql.Tx, grupoID int64, fecha time.Time) (ausencias.Umbrales, error) {
	umbrales := ausencias.Umbrales{
		Maximo: decimal.NewFromFloat(r.cfg.Vacaciones.PorcentajeAusenciaMaximo),
		Aviso:  decimal.NewFromFloat(r.cfg.Vacaciones.PorcentajeAviso),
	}

	query := `
		SELECT porcentaje_maximo FROM excepciones_porcentaje
		WHERE grupo_id = $1 AND fecha = $2
	`
	var maximo decimal.Decimal
	err := tx.QueryRowContext(ctx, query, grupoID, fecha).Scan(&maximo)
	switch err {
	case nil:
		umbrales.Maximo = maximo
	case sql.ErrNoRows:
	default:
		return ausencias.Umbrales{}, err
	}
	return umbrales, nil
}

// soloFecha normaliza a medianoche UTC; las columnas de fecha del esquema son
// DATE y las comparaciones deben ignorar la hora.
func soloFecha(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
