package repository

import (
	"context"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

func (r *Repository) RegistrarAuditoria(ctx context.Context, reg *domain.RegistroAuditoria) error {
	query := `
		INSERT INTO registro_auditoria (operador_id, empleado_id, accion, justificacion, datos)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	args := []any{reg.OperadorID, reg.EmpleadoID, reg.Accion, reg.Justificacion, reg.Datos}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&reg.ID, &reg.CreatedAt)
}

// ConsultarAuditoria devuelve la bitácora de un empleado, de la más reciente a
// la más antigua.
func (r *Repository) ConsultarAuditoria(ctx context.Context, empleadoID int64) ([]*domain.RegistroAuditoria, error) {
	query := `
		SELECT id, operador_id, empleado_id, accion, justificacion, datos, created_at
		FROM registro_auditoria
		WHERE empleado_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, empleadoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registros := make([]*domain.RegistroAuditoria, 0)
	for rows.Next() {
		reg := &domain.RegistroAuditoria{}
		dst := []any{&reg.ID, &reg.OperadorID, &reg.EmpleadoID, &reg.Accion, &reg.Justificacion, &reg.Datos, &reg.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		registros = append(registros, reg)
	}
	return registros, rows.Err()
}
