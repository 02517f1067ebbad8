package domain

import "time"

// RegistroAuditoria deja constancia de las operaciones administrativas que
// alteran el calendario fuera del flujo normal, en particular la asignación
// manual que brinca la validación de ausencias.
type RegistroAuditoria struct {
	ID            int64     `json:"id"`
	OperadorID    int64     `json:"operadorID"`
	EmpleadoID    int64     `json:"empleadoID"`
	Accion        string    `json:"accion"`
	Justificacion string    `json:"justificacion"`
	Datos         string    `json:"datos,omitempty"` // JSON con el detalle de la operación
	CreatedAt     time.Time `json:"createdAt"`
}
