package domain

import "time"

type EstadoBloque string

const (
	BloqueActivo     EstadoBloque = "Activo"
	BloqueAprobado   EstadoBloque = "Aprobado"
	BloqueCompletado EstadoBloque = "Completado"
	BloqueCancelado  EstadoBloque = "Cancelado"
)

// BloqueReservacion es una ventana acotada en el tiempo dentro de la cual un
// subconjunto de empleados, ordenado por antigüedad, puede reservar sus días.
// Los bloques de un grupo están estrictamente ordenados y no se traslapan.
type BloqueReservacion struct {
	ID                int64        `json:"id"`
	GrupoID           int64        `json:"grupoID"`
	AreaID            int64        `json:"areaID"`
	AnioObjetivo      int          `json:"anioObjetivo"`
	Numero            int          `json:"numero"` // ordinal dentro del grupo, 1-based
	Inicio            time.Time    `json:"inicio"`
	Fin               time.Time    `json:"fin"`
	PersonasPorBloque int          `json:"personasPorBloque"`
	Estado            EstadoBloque `json:"estado"`
	// EsBloqueCola marca el bloque final que recibe a los empleados que no
	// respondieron en su bloque regular.
	EsBloqueCola    bool       `json:"esBloqueCola"`
	GeneradoPor     int64      `json:"generadoPor"`
	FechaAprobacion *time.Time `json:"fechaAprobacion"`
	AprobadoPor     *int64     `json:"aprobadoPor"`
	Observaciones   string     `json:"observaciones,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	Version         int32      `json:"-"`
}

// Contiene indica si el instante cae dentro de la ventana [Inicio, Fin).
func (b *BloqueReservacion) Contiene(t time.Time) bool {
	return !t.Before(b.Inicio) && t.Before(b.Fin)
}

type EstadoAsignacion string

const (
	AsignacionAsignada    EstadoAsignacion = "Asignado"
	AsignacionReservada   EstadoAsignacion = "Reservado"
	AsignacionCompletada  EstadoAsignacion = "Completado"
	AsignacionTransferida EstadoAsignacion = "Transferido"
	AsignacionNoRespondio EstadoAsignacion = "NoRespondio"
)

// AsignacionBloque coloca a un empleado dentro de un bloque con una posición
// de antigüedad (1 = más antiguo, atendido primero). La posición es única
// dentro del bloque.
type AsignacionBloque struct {
	ID              int64            `json:"id"`
	BloqueID        int64            `json:"bloqueID"`
	EmpleadoID      int64            `json:"empleadoID"`
	Posicion        int              `json:"posicion"`
	Estado          EstadoAsignacion `json:"estado"`
	FechaCompletado *time.Time       `json:"fechaCompletado"`
	AsignadoPor     int64            `json:"asignadoPor"`
	Observaciones   string           `json:"observaciones,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Resuelta indica que la asignación ya no bloquea a posiciones posteriores.
func (a *AsignacionBloque) Resuelta() bool {
	switch a.Estado {
	case AsignacionReservada, AsignacionCompletada, AsignacionTransferida, AsignacionNoRespondio:
		return true
	}
	return false
}

// EstadoReserva son los cinco estados que el frontend presenta a un empleado
// durante el ciclo de reservación. Es una proyección derivada, nunca un campo
// almacenado.
type EstadoReserva string

const (
	ReservaCerrado             EstadoReserva = "Cerrado"
	ReservaTurnoActual         EstadoReserva = "TurnoActual"
	ReservaTurnoSiguiente      EstadoReserva = "TurnoSiguiente"
	ReservaSinTurno            EstadoReserva = "SinTurno"
	ReservaEsperandoAntiguedad EstadoReserva = "EsperandoAntiguedad"
)
