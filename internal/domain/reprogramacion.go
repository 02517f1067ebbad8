package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EstadoSolicitud string

const (
	SolicitudSolicitada EstadoSolicitud = "Solicitada"
	SolicitudAprobada   EstadoSolicitud = "Aprobada"
	SolicitudRechazada  EstadoSolicitud = "Rechazada"
)

// SolicitudReprogramacion pide mover un día ya comprometido a otra fecha.
// FechaOriginal se guarda aparte de la vacación para conservar el dato aunque
// la vacación cambie después.
type SolicitudReprogramacion struct {
	ID                 int64           `json:"id"`
	EmpleadoID         int64           `json:"empleadoID"`
	VacacionOriginalID int64           `json:"vacacionOriginalID"`
	FechaOriginal      time.Time       `json:"fechaOriginal"`
	FechaNueva         time.Time       `json:"fechaNueva"`
	Estado             EstadoSolicitud `json:"estado"`
	MotivoEmpleado     string          `json:"motivoEmpleado,omitempty"`
	MotivoRechazo      string          `json:"motivoRechazo,omitempty"`
	// PorcentajeCalculado registra, para auditoría, la proyección de ausencia
	// sobre la fecha nueva al momento de solicitar.
	PorcentajeCalculado decimal.Decimal `json:"porcentajeCalculado"`
	ResueltaPor         *int64          `json:"resueltaPor"`
	FechaRespuesta      *time.Time      `json:"fechaRespuesta"`
	CreatedAt           time.Time       `json:"createdAt"`
}
