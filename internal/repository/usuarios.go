package repository

import (
	"context"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

const columnasUsuario = `
	id, username, password_hash, full_name, email, role, nomina, area_id,
	grupo_id, fecha_ingreso, is_active, created_at, version
`

func escanearUsuario(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	dst := []any{&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Role, &u.Nomina, &u.AreaID, &u.GrupoID, &u.FechaIngreso, &u.IsActive, &u.CreatedAt, &u.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) Empleado(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + columnasUsuario + ` FROM users WHERE id = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return escanearUsuario(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) UsuarioPorUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + columnasUsuario + ` FROM users WHERE username = $1`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return escanearUsuario(r.dbpool.QueryRowContext(ctx, query, username))
}

func (r *Repository) CrearUsuario(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, nomina, area_id, grupo_id, fecha_ingreso)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, created_at, version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{u.Username, u.PasswordHash, u.FullName, u.Email, u.Role, u.Nomina, u.AreaID, u.GrupoID, u.FechaIngreso}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.Version)
}

func (r *Repository) ActualizarUsuario(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			email = $2,
			role = $3,
			nomina = $4,
			area_id = $5,
			grupo_id = $6,
			fecha_ingreso = $7,
			is_active = $8,
			version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING version
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{u.PasswordHash, u.Email, u.Role, u.Nomina, u.AreaID, u.GrupoID, u.FechaIngreso, u.IsActive, u.ID, u.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&u.Version)
}

// EmpleadosPorGrupo devuelve la plantilla sindicalizada activa del grupo.
func (r *Repository) EmpleadosPorGrupo(ctx context.Context, grupoID int64) ([]*domain.User, error) {
	query := `
		SELECT ` + columnasUsuario + `
		FROM users
		WHERE grupo_id = $1 AND is_active = true AND nomina IS NOT NULL
		ORDER BY fecha_ingreso ASC NULLS LAST, nomina ASC
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, grupoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usuarios := make([]*domain.User, 0)
	for rows.Next() {
		u, err := escanearUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, u)
	}
	return usuarios, rows.Err()
}

// EmpleadosSindicalizados devuelve los empleados elegibles para la asignación
// automática, opcionalmente acotados a ciertos grupos.
func (r *Repository) EmpleadosSindicalizados(ctx context.Context, grupoIDs []int64) ([]*domain.User, error) {
	query := `
		SELECT ` + columnasUsuario + `
		FROM users
		WHERE is_active = true AND nomina IS NOT NULL AND fecha_ingreso IS NOT NULL AND grupo_id IS NOT NULL
		  AND ($1::bigint[] IS NULL OR grupo_id = ANY($1))
		ORDER BY grupo_id, fecha_ingreso ASC, nomina ASC
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var filtro any
	if len(grupoIDs) > 0 {
		filtro = grupoIDs
	}
	rows, err := r.dbpool.QueryContext(ctx, query, filtro)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usuarios := make([]*domain.User, 0)
	for rows.Next() {
		u, err := escanearUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, u)
	}
	return usuarios, rows.Err()
}

func (r *Repository) ExisteEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	existe := false
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&existe); err != nil {
		return false, err
	}
	return existe, nil
}
