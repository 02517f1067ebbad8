package bloques

import (
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

// ProyectarEstado deriva el estado de reservación que ve un empleado. Es una
// proyección pura sobre dos hechos: la ventana de su bloque y la cola de
// antigüedad dentro de él. bloque y asignacion en nil significan que el
// empleado no participa en ningún ciclo abierto.
func ProyectarEstado(bloque *domain.BloqueReservacion, asignacion *domain.AsignacionBloque, pares []*domain.AsignacionBloque, ahora time.Time, lookahead time.Duration) domain.EstadoReserva {
	if bloque == nil || asignacion == nil {
		return domain.ReservaCerrado
	}
	if asignacion.Estado == domain.AsignacionTransferida {
		return domain.ReservaSinTurno
	}
	if bloque.Estado == domain.BloqueCompletado || bloque.Estado == domain.BloqueCancelado {
		return domain.ReservaSinTurno
	}

	if bloque.Contiene(ahora) {
		if pendienteMasAntiguo(asignacion, pares) {
			return domain.ReservaEsperandoAntiguedad
		}
		return domain.ReservaTurnoActual
	}

	if ahora.Before(bloque.Inicio) {
		if bloque.Inicio.Sub(ahora) <= lookahead {
			return domain.ReservaTurnoSiguiente
		}
		return domain.ReservaSinTurno
	}

	// Ventana vencida pero el barrido aún no completa el bloque.
	return domain.ReservaSinTurno
}

// pendienteMasAntiguo revisa si alguna posición menor del mismo bloque sigue
// sin resolverse.
func pendienteMasAntiguo(asignacion *domain.AsignacionBloque, pares []*domain.AsignacionBloque) bool {
	for _, p := range pares {
		if p.EmpleadoID == asignacion.EmpleadoID {
			continue
		}
		if p.Posicion < asignacion.Posicion && !p.Resuelta() {
			return true
		}
	}
	return false
}

// PuedeReservar indica si la asignación admite un SelectDay en este instante.
// Es la misma regla que ProyectarEstado == TurnoActual; el repositorio la
// vuelve a verificar dentro de la transacción de escritura.
func PuedeReservar(bloque *domain.BloqueReservacion, asignacion *domain.AsignacionBloque, pares []*domain.AsignacionBloque, ahora time.Time) bool {
	return ProyectarEstado(bloque, asignacion, pares, ahora, 0) == domain.ReservaTurnoActual
}

// Transferencia mueve a un empleado que no respondió hacia el bloque cola.
type Transferencia struct {
	AsignacionID int64
	EmpleadoID   int64
	BloqueOrigen int
	Posicion     int // posición nueva dentro del bloque cola
}

// PlanActualizacion es el resultado del barrido de estados: qué completar, a
// quién transferir y a quién marcar sin respuesta. Se aplica en una sola
// transacción.
type PlanActualizacion struct {
	AsignacionesCompletadas []int64
	BloquesCompletados      []int64
	Transferencias          []Transferencia
	SinRespuesta            []int64 // asignaciones del bloque cola vencido
}

func (p *PlanActualizacion) Vacio() bool {
	return len(p.AsignacionesCompletadas) == 0 && len(p.BloquesCompletados) == 0 &&
		len(p.Transferencias) == 0 && len(p.SinRespuesta) == 0
}

// PlanearActualizacion calcula las transiciones pendientes de un grupo. Un
// bloque se completa cuando vence su ventana o cuando todas sus asignaciones
// vigentes están resueltas. Al completarse un bloque regular, los empleados
// que siguen en Asignado pasan al bloque cola; si el vencido es el propio
// bloque cola, quedan en NoRespondio para intervención manual.
func PlanearActualizacion(bloques []*BloqueConAsignaciones, ahora time.Time) PlanActualizacion {
	var plan PlanActualizacion

	var cola *BloqueConAsignaciones
	for _, b := range bloques {
		if b.Bloque.EsBloqueCola && b.Bloque.Estado != domain.BloqueCompletado {
			cola = b
			break
		}
	}

	posicionCola := 0
	if cola != nil {
		for _, a := range cola.Asignaciones {
			if a.Estado != domain.AsignacionTransferida && a.Posicion > posicionCola {
				posicionCola = a.Posicion
			}
		}
	}

	for _, b := range bloques {
		if b.Bloque.Estado != domain.BloqueAprobado && b.Bloque.Estado != domain.BloqueActivo {
			continue
		}

		vencido := ahora.After(b.Bloque.Fin)
		if vencido {
			for _, a := range b.Asignaciones {
				if a.Estado == domain.AsignacionReservada {
					plan.AsignacionesCompletadas = append(plan.AsignacionesCompletadas, a.ID)
				}
			}
		}

		completar := vencido
		if !completar {
			completar = len(b.Asignaciones) > 0 && todasResueltas(b.Asignaciones, plan.AsignacionesCompletadas)
		}
		if !completar {
			continue
		}

		plan.BloquesCompletados = append(plan.BloquesCompletados, b.Bloque.ID)

		for _, a := range b.Asignaciones {
			if a.Estado != domain.AsignacionAsignada {
				continue
			}
			if b.Bloque.EsBloqueCola {
				plan.SinRespuesta = append(plan.SinRespuesta, a.ID)
				continue
			}
			if cola != nil && cola.Bloque.ID != b.Bloque.ID {
				posicionCola++
				plan.Transferencias = append(plan.Transferencias, Transferencia{
					AsignacionID: a.ID,
					EmpleadoID:   a.EmpleadoID,
					BloqueOrigen: b.Bloque.Numero,
					Posicion:     posicionCola,
				})
			}
		}
	}

	return plan
}

func todasResueltas(asignaciones []*domain.AsignacionBloque, completadas []int64) bool {
	porCompletar := make(map[int64]struct{}, len(completadas))
	for _, id := range completadas {
		porCompletar[id] = struct{}{}
	}
	for _, a := range asignaciones {
		if a.Estado == domain.AsignacionTransferida {
			continue
		}
		if _, ok := porCompletar[a.ID]; ok {
			continue
		}
		if a.Estado != domain.AsignacionReservada && a.Estado != domain.AsignacionCompletada {
			return false
		}
	}
	return true
}
