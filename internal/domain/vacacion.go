package domain

import "time"

type TipoVacacion string

const (
	VacacionAutomatica      TipoVacacion = "Automatica"
	VacacionAnual           TipoVacacion = "Anual"
	VacacionReprogramacion  TipoVacacion = "Reprogramacion"
	VacacionFestivoTrabajado TipoVacacion = "FestivoTrabajado"
)

type OrigenAsignacion string

const (
	OrigenSistema  OrigenAsignacion = "Sistema"  // asignación automática
	OrigenEmpleado OrigenAsignacion = "Empleado" // seleccionado en su bloque
	OrigenManual   OrigenAsignacion = "Manual"   // alta administrativa con justificación
)

type EstadoVacacion string

const (
	VacacionActiva    EstadoVacacion = "Activa"
	VacacionCancelada EstadoVacacion = "Cancelada"
)

// VacacionAsignada es un día de vacaciones comprometido. Única por
// (empleado, fecha) mientras esté Activa.
type VacacionAsignada struct {
	ID            int64            `json:"id"`
	EmpleadoID    int64            `json:"empleadoID"`
	Fecha         time.Time        `json:"fecha"` // solo fecha, medianoche UTC
	Tipo          TipoVacacion     `json:"tipo"`
	Origen        OrigenAsignacion `json:"origen"`
	Estado        EstadoVacacion   `json:"estado"`
	Observaciones string           `json:"observaciones,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// SaldoVacaciones lleva el derecho anual de un empleado y su consumo por
// categoría. Invariante: consumido ≤ otorgado en cada categoría.
type SaldoVacaciones struct {
	ID               int64 `json:"id"`
	EmpleadoID       int64 `json:"empleadoID"`
	Anio             int   `json:"anio"`
	DiasEmpresa      int   `json:"diasEmpresa"`
	DiasAutomaticos  int   `json:"diasAutomaticos"`
	DiasProgramables int   `json:"diasProgramables"`

	ConsumidoAutomatica     int `json:"consumidoAutomatica"`
	ConsumidoAnual          int `json:"consumidoAnual"`
	ConsumidoReprogramacion int `json:"consumidoReprogramacion"`
	ConsumidoFestivo        int `json:"consumidoFestivo"`

	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// TotalDias es el derecho anual completo del empleado.
func (s *SaldoVacaciones) TotalDias() int {
	return s.DiasEmpresa + s.DiasAutomaticos + s.DiasProgramables
}

// ProgramablesRestantes devuelve cuántos días puede todavía elegir el empleado
// dentro de su bloque. Los días de reprogramación no consumen saldo nuevo: se
// descuentan de la categoría Anual ya consumida.
func (s *SaldoVacaciones) ProgramablesRestantes() int {
	restante := s.DiasProgramables - s.ConsumidoAnual
	if restante < 0 {
		return 0
	}
	return restante
}

// AutomaticosRestantes devuelve cuántos días automáticos faltan por asignar.
func (s *SaldoVacaciones) AutomaticosRestantes() int {
	restante := s.DiasAutomaticos - s.ConsumidoAutomatica
	if restante < 0 {
		return 0
	}
	return restante
}
