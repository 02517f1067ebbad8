package domain

import "time"

// ReglaTurnos es una plantilla repetitiva de etiquetas de turno que cubre un
// número entero de semanas. Es inmutable una vez cargada: las reglas nuevas
// entran por importación de configuración, nunca por mutación en caliente.
type ReglaTurnos struct {
	ID        int64     `json:"id"`
	Codigo    string    `json:"codigo"` // p. ej. "R0144"
	Patron    []string  `json:"patron"` // longitud siempre múltiplo de 7
	CreatedAt time.Time `json:"createdAt"`
}

// Semanas devuelve el número de semanas que cubre el patrón.
func (r *ReglaTurnos) Semanas() int {
	return len(r.Patron) / 7
}

type Area struct {
	ID        int64     `json:"id"`
	Nombre    string    `json:"nombre"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// GrupoTrabajo liga un conjunto de empleados a una regla de turnos y a un
// desfase de grupo (1-based) dentro del ciclo semanal de esa regla.
type GrupoTrabajo struct {
	ID          int64     `json:"id"`
	AreaID      int64     `json:"areaID"`
	Nombre      string    `json:"nombre"` // formato "R0144_02"
	ReglaCodigo string    `json:"reglaCodigo"`
	NumeroGrupo int       `json:"numeroGrupo"` // desfase 1-based en semanas
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}
