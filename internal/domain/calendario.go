package domain

import "time"

// DiaCalendario es la proyección día a día del calendario de un empleado:
// el turno que le toca según su regla y, si existe, la vacación comprometida.
// Se deriva siempre bajo demanda, nunca se persiste como fuente de verdad.
type DiaCalendario struct {
	Fecha     time.Time     `json:"fecha"`
	Turno     string        `json:"turno"`
	Laborable bool          `json:"laborable"`
	Vacacion  *TipoVacacion `json:"vacacion,omitempty"`
}

// DiaInhabil es un día marcado por la empresa como no asignable (festivos de
// planta, paros programados). Excluido de la asignación automática.
type DiaInhabil struct {
	ID          int64     `json:"id"`
	Fecha       time.Time `json:"fecha"`
	Descripcion string    `json:"descripcion"`
}
