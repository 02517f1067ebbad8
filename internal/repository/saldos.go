package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/vacaciones"
)

const columnasSaldo = `
	id, empleado_id, anio, dias_empresa, dias_automaticos, dias_programables,
	consumido_automatica, consumido_anual, consumido_reprogramacion,
	consumido_festivo, created_at, version
`

func escanearSaldo(row interface{ Scan(...any) error }) (*domain.SaldoVacaciones, error) {
	s := &domain.SaldoVacaciones{}
	dst := []any{&s.ID, &s.EmpleadoID, &s.Anio, &s.DiasEmpresa, &s.DiasAutomaticos, &s.DiasProgramables, &s.ConsumidoAutomatica, &s.ConsumidoAnual, &s.ConsumidoReprogramacion, &s.ConsumidoFestivo, &s.CreatedAt, &s.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return s, nil
}

// Saldo devuelve el saldo del empleado para el año, creándolo a partir de su
// antigüedad la primera vez que se consulta.
func (r *Repository) Saldo(ctx context.Context, empleadoID int64, anio int) (*domain.SaldoVacaciones, error) {
	query := `SELECT ` + columnasSaldo + ` FROM saldos_vacaciones WHERE empleado_id = $1 AND anio = $2`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	saldo, err := escanearSaldo(r.dbpool.QueryRowContext(qctx, query, empleadoID, anio))
	if err == nil {
		return saldo, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	empleado, err := r.Empleado(ctx, empleadoID)
	if err != nil {
		return nil, err
	}
	nuevo := vacaciones.SaldoInicial(empleado, anio)
	if err := r.crearSaldo(ctx, &nuevo); err != nil {
		return nil, err
	}
	return &nuevo, nil
}

func (r *Repository) crearSaldo(ctx context.Context, s *domain.SaldoVacaciones) error {
	// ON CONFLICT cubre la carrera entre dos primeras consultas simultáneas.
	query := `
		INSERT INTO saldos_vacaciones (empleado_id, anio, dias_empresa, dias_automaticos, dias_programables)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (empleado_id, anio) DO UPDATE SET empleado_id = EXCLUDED.empleado_id
		RETURNING ` + columnasSaldo

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{s.EmpleadoID, s.Anio, s.DiasEmpresa, s.DiasAutomaticos, s.DiasProgramables}
	actual, err := escanearSaldo(r.dbpool.QueryRowContext(ctx, query, args...))
	if err != nil {
		return err
	}
	*s = *actual
	return nil
}
