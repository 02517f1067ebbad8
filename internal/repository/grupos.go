package repository

import (
	"context"
	"strings"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

func (r *Repository) Grupo(ctx context.Context, id int64) (*domain.GrupoTrabajo, error) {
	query := `
		SELECT id, area_id, nombre, regla_codigo, numero_grupo, created_at, version
		FROM grupos WHERE id = $1
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	g := &domain.GrupoTrabajo{}
	dst := []any{&g.ID, &g.AreaID, &g.Nombre, &g.ReglaCodigo, &g.NumeroGrupo, &g.CreatedAt, &g.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Repository) Grupos(ctx context.Context, areaID *int64) ([]*domain.GrupoTrabajo, error) {
	query := `
		SELECT id, area_id, nombre, regla_codigo, numero_grupo, created_at, version
		FROM grupos
		WHERE $1::bigint IS NULL OR area_id = $1
		ORDER BY area_id, numero_grupo
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grupos := make([]*domain.GrupoTrabajo, 0)
	for rows.Next() {
		g := &domain.GrupoTrabajo{}
		dst := []any{&g.ID, &g.AreaID, &g.Nombre, &g.ReglaCodigo, &g.NumeroGrupo, &g.CreatedAt, &g.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		grupos = append(grupos, g)
	}
	return grupos, rows.Err()
}

func (r *Repository) CrearGrupo(ctx context.Context, g *domain.GrupoTrabajo) error {
	query := `
		INSERT INTO grupos (area_id, nombre, regla_codigo, numero_grupo)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{g.AreaID, g.Nombre, g.ReglaCodigo, g.NumeroGrupo}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&g.ID, &g.CreatedAt, &g.Version)
}

func (r *Repository) CrearArea(ctx context.Context, a *domain.Area) error {
	query := `
		INSERT INTO areas (nombre)
		VALUES ($1)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, a.Nombre).Scan(&a.ID, &a.CreatedAt)
}

// Reglas carga todas las reglas de turnos; el registro del paquete turnos las
// valida al arrancar.
func (r *Repository) Reglas(ctx context.Context) ([]*domain.ReglaTurnos, error) {
	query := `
		SELECT id, codigo, patron, created_at
		FROM reglas_turnos
		ORDER BY codigo
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reglas := make([]*domain.ReglaTurnos, 0)
	for rows.Next() {
		regla := &domain.ReglaTurnos{}
		var patron string
		if err := rows.Scan(&regla.ID, &regla.Codigo, &patron, &regla.CreatedAt); err != nil {
			return nil, err
		}
		regla.Patron = strings.Split(patron, ",")
		reglas = append(reglas, regla)
	}
	return reglas, rows.Err()
}

func (r *Repository) CrearRegla(ctx context.Context, regla *domain.ReglaTurnos) error {
	query := `
		INSERT INTO reglas_turnos (codigo, patron)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, regla.Codigo, strings.Join(regla.Patron, ",")).Scan(&regla.ID, &regla.CreatedAt)
}

// DiasInhabiles devuelve las fechas no asignables del año como conjunto con
// llaves a medianoche UTC.
func (r *Repository) DiasInhabiles(ctx context.Context, anio int) (map[time.Time]struct{}, error) {
	query := `
		SELECT fecha FROM dias_inhabiles
		WHERE EXTRACT(YEAR FROM fecha) = $1
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, anio)
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

func (r *Repository) ListaDiasInhabiles(ctx context.Context, anio int) ([]*domain.DiaInhabil, error) {
	query := `
		SELECT id, fecha, descripcion FROM dias_inhabiles
		WHERE EXTRACT(YEAR FROM fecha) = $1
		ORDER BY fecha
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, anio)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dias := make([]*domain.DiaInhabil, 0)
	for rows.Next() {
		d := &domain.DiaInhabil{}
		if err := rows.Scan(&d.ID, &d.Fecha, &d.Descripcion); err != nil {
			return nil, err
		}
		dias = append(dias, d)
	}
	return dias, rows.Err()
}

func (r *Repository) CrearDiaInhabil(ctx context.Context, d *domain.DiaInhabil) error {
	query := `
		INSERT INTO dias_inhabiles (fecha, descripcion)
		VALUES ($1, $2)
		RETURNING id
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, soloFecha(d.Fecha), d.Descripcion).Scan(&d.ID)
}
