package domain

import "errors"

// ErrorNegocio es una violación de regla de negocio esperada: se devuelve al
// cliente tal cual y nunca se registra como error de sistema.
type ErrorNegocio struct {
	Codigo  string
	Mensaje string
}

func (e *ErrorNegocio) Error() string {
	return e.Mensaje
}

var (
	ErrDiaNoSeleccionable = &ErrorNegocio{
		Codigo:  "DiaNoSeleccionable",
		Mensaje: "el día no es laborable según el rol de turnos del empleado",
	}
	ErrDiaYaAsignado = &ErrorNegocio{
		Codigo:  "DiaYaAsignado",
		Mensaje: "el empleado ya tiene una vacación activa en esa fecha",
	}
	ErrSinSaldoProgramable = &ErrorNegocio{
		Codigo:  "SinSaldoProgramable",
		Mensaje: "el empleado no tiene días programables disponibles",
	}
	ErrLimiteAusencia = &ErrorNegocio{
		Codigo:  "LimiteAusencia",
		Mensaje: "la ausencia excedería el porcentaje máximo permitido para el grupo",
	}
	ErrFueraDeTurno = &ErrorNegocio{
		Codigo:  "FueraDeTurno",
		Mensaje: "el empleado no está en turno de reservación",
	}
	ErrDiaNoRemovible = &ErrorNegocio{
		Codigo:  "DiaNoRemovible",
		Mensaje: "solo los días elegidos por el empleado pueden cancelarse por esta vía",
	}
	ErrSolicitudResuelta = &ErrorNegocio{
		Codigo:  "SolicitudResuelta",
		Mensaje: "la solicitud ya fue aprobada o rechazada",
	}
	ErrBloqueCompletado = &ErrorNegocio{
		Codigo:  "BloqueCompletado",
		Mensaje: "no se puede modificar un bloque completado",
	}
)

// ErrCupoAutomaticoInsatisfecho es una falla de invariante: ninguna fecha
// laborable del año satisface el techo de ausencias. Indica configuración
// inválida y debe alertarse al operador, no tratarse como rechazo normal.
var ErrCupoAutomaticoInsatisfecho = errors.New("no existe fecha laborable en el año que satisfaga el porcentaje de ausencia")

// ErrConflictoConcurrencia señala que la operación perdió la carrera atómica
// contra otro escritor; el llamador la reintenta una vez antes de rendirse.
var ErrConflictoConcurrencia = errors.New("conflicto de concurrencia, reintente la operación")

// EsErrorNegocio separa los rechazos esperados de las fallas de sistema.
func EsErrorNegocio(err error) (*ErrorNegocio, bool) {
	var en *ErrorNegocio
	if errors.As(err, &en) {
		return en, true
	}
	return nil, false
}
