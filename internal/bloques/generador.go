// Package bloques contiene la lógica pura del ciclo de reservación: generación
// de bloques por antigüedad, proyección del estado de cada empleado y el plan
// de barrido que completa bloques vencidos. La persistencia vive en el
// repositorio; aquí solo se calcula.
package bloques

import (
	"fmt"
	"sort"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/vacaciones"
)

// BloqueConAsignaciones agrupa un bloque con sus asignaciones vigentes.
type BloqueConAsignaciones struct {
	Bloque       *domain.BloqueReservacion
	Asignaciones []*domain.AsignacionBloque
}

// ParametrosGeneracion describe un ciclo de reservación a generar para un
// grupo. Empleados puede venir en cualquier orden: el generador los ordena y
// filtra por su cuenta.
type ParametrosGeneracion struct {
	Grupo             *domain.GrupoTrabajo
	Empleados         []*domain.User
	FechaInicio       time.Time
	AnioObjetivo      int
	PersonasPorBloque int
	DuracionHoras     int
	DiasInhabiles     map[time.Time]struct{} // llaves a medianoche UTC
	GeneradoPor       int64
}

type Generador struct {
	registro *turnos.Registro
}

func NuevoGenerador(registro *turnos.Registro) *Generador {
	return &Generador{registro: registro}
}

// OrdenarPorAntiguedad devuelve los empleados elegibles para reservar en el
// año objetivo, del más antiguo al más reciente. Empata por nómina menor.
// Quedan fuera los empleados sin nómina, sin fecha de ingreso o sin días
// programables para ese año.
func OrdenarPorAntiguedad(empleados []*domain.User, anioObjetivo int) []*domain.User {
	elegibles := make([]*domain.User, 0, len(empleados))
	for _, e := range empleados {
		if e.Nomina == nil || e.FechaIngreso == nil {
			continue
		}
		derecho := vacaciones.DerechoPorAntiguedad(e.AntiguedadEnAnios(anioObjetivo))
		if derecho.DiasProgramables <= 0 {
			continue
		}
		elegibles = append(elegibles, e)
	}

	sort.SliceStable(elegibles, func(i, j int) bool {
		if !elegibles[i].FechaIngreso.Equal(*elegibles[j].FechaIngreso) {
			return elegibles[i].FechaIngreso.Before(*elegibles[j].FechaIngreso)
		}
		return *elegibles[i].Nomina < *elegibles[j].Nomina
	})
	return elegibles
}

// Generar produce los bloques del ciclo y sus asignaciones. Los bloques son
// consecutivos, arrancan a las 09:00, evitan días de descanso del grupo y días
// inhábiles, y pausan el fin de semana (sábado desde la 01:00 hasta lunes
// 09:00). El último bloque es siempre el bloque cola, sin asignaciones
// iniciales propias: recibe a quienes no respondan en su bloque regular.
func (g *Generador) Generar(p ParametrosGeneracion) ([]*BloqueConAsignaciones, error) {
	if p.PersonasPorBloque <= 0 {
		return nil, fmt.Errorf("personas por bloque inválido: %d", p.PersonasPorBloque)
	}
	if p.DuracionHoras <= 0 {
		return nil, fmt.Errorf("duración de bloque inválida: %d", p.DuracionHoras)
	}

	elegibles := OrdenarPorAntiguedad(p.Empleados, p.AnioObjetivo)
	if len(elegibles) == 0 {
		return nil, nil
	}

	regulares := (len(elegibles) + p.PersonasPorBloque - 1) / p.PersonasPorBloque
	total := regulares + 1 // +1 por el bloque cola

	bloques, err := g.generarVentanas(p, total)
	if err != nil {
		return nil, err
	}

	asignarEmpleados(bloques, elegibles, p)
	return bloques, nil
}

func (g *Generador) generarVentanas(p ParametrosGeneracion, total int) ([]*BloqueConAsignaciones, error) {
	bloques := make([]*BloqueConAsignaciones, 0, total)
	cursor := time.Date(p.FechaInicio.Year(), p.FechaInicio.Month(), p.FechaInicio.Day(), 9, 0, 0, 0, time.UTC)
	numero := 1

	for len(bloques) < total {
		if cursor.Year() > p.AnioObjetivo+1 {
			return nil, fmt.Errorf("grupo %s: no hay fechas suficientes para generar %d bloques", p.Grupo.Nombre, total)
		}

		if !g.fechaValida(p, cursor) {
			cursor = cursor.AddDate(0, 0, 1)
			continue
		}

		fin := cursor.Add(time.Duration(p.DuracionHoras) * time.Hour)
		bloques = append(bloques, &BloqueConAsignaciones{
			Bloque: &domain.BloqueReservacion{
				GrupoID:           p.Grupo.ID,
				AreaID:            p.Grupo.AreaID,
				AnioObjetivo:      p.AnioObjetivo,
				Numero:            numero,
				Inicio:            cursor,
				Fin:               fin,
				PersonasPorBloque: p.PersonasPorBloque,
				Estado:            domain.BloqueActivo,
				EsBloqueCola:      numero == total,
				GeneradoPor:       p.GeneradoPor,
			},
		})
		numero++
		cursor = pausaFinDeSemana(fin)
	}

	return bloques, nil
}

// fechaValida rechaza días inhábiles y días de descanso del grupo según su
// regla de turnos.
func (g *Generador) fechaValida(p ParametrosGeneracion, fecha time.Time) bool {
	dia := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, time.UTC)
	if _, inhabil := p.DiasInhabiles[dia]; inhabil {
		return false
	}
	turno := g.registro.Resolve(p.Grupo.ReglaCodigo, p.Grupo.NumeroGrupo, fecha)
	return !turnos.EsDescanso(turno)
}

// pausaFinDeSemana recorre el cursor al lunes 09:00 cuando cae en sábado
// después de la 01:00 o en domingo. La madrugada del sábado (antes de la
// 01:00) todavía cierra el bloque en curso.
func pausaFinDeSemana(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		if t.Hour() >= 1 {
			return lunesSiguiente(t, 2)
		}
	case time.Sunday:
		return lunesSiguiente(t, 1)
	}
	return t
}

func lunesSiguiente(t time.Time, dias int) time.Time {
	lunes := t.AddDate(0, 0, dias)
	return time.Date(lunes.Year(), lunes.Month(), lunes.Day(), 9, 0, 0, 0, t.Location())
}

func asignarEmpleados(bloques []*BloqueConAsignaciones, elegibles []*domain.User, p ParametrosGeneracion) {
	idx := 0
	for _, b := range bloques {
		if b.Bloque.EsBloqueCola {
			continue
		}
		for pos := 1; pos <= p.PersonasPorBloque && idx < len(elegibles); pos++ {
			b.Asignaciones = append(b.Asignaciones, &domain.AsignacionBloque{
				EmpleadoID:  elegibles[idx].ID,
				Posicion:    pos,
				Estado:      domain.AsignacionAsignada,
				AsignadoPor: p.GeneradoPor,
			})
			idx++
		}
	}
}

// VerificarPosiciones detecta posiciones duplicadas dentro de un bloque. Un
// duplicado es falla de invariante: datos corruptos que deben alertarse, no
// un rechazo de negocio.
func VerificarPosiciones(asignaciones []*domain.AsignacionBloque) error {
	vistas := make(map[int]int64, len(asignaciones))
	for _, a := range asignaciones {
		if a.Estado == domain.AsignacionTransferida {
			continue
		}
		if otro, dup := vistas[a.Posicion]; dup {
			return fmt.Errorf("posición %d duplicada en el bloque: empleados %d y %d", a.Posicion, otro, a.EmpleadoID)
		}
		vistas[a.Posicion] = a.EmpleadoID
	}
	return nil
}

// PlanearReasignacion calcula el movimiento administrativo de un empleado a
// otro bloque: marca la asignación de origen como transferida y agrega al
// empleado al final del bloque destino, preservando posiciones únicas.
func PlanearReasignacion(origen, destino *BloqueConAsignaciones, empleadoID, operadorID int64, motivo string) (*domain.AsignacionBloque, error) {
	if destino.Bloque.Estado == domain.BloqueCompletado || destino.Bloque.Estado == domain.BloqueCancelado {
		return nil, domain.ErrBloqueCompletado
	}

	var actual *domain.AsignacionBloque
	for _, a := range origen.Asignaciones {
		if a.EmpleadoID == empleadoID && a.Estado != domain.AsignacionTransferida {
			actual = a
			break
		}
	}
	if actual == nil {
		return nil, fmt.Errorf("el empleado %d no tiene asignación vigente en el bloque %d", empleadoID, origen.Bloque.ID)
	}
	if actual.Estado == domain.AsignacionCompletada {
		return nil, domain.ErrBloqueCompletado
	}

	maxPos := 0
	for _, a := range destino.Asignaciones {
		if a.Estado != domain.AsignacionTransferida && a.Posicion > maxPos {
			maxPos = a.Posicion
		}
	}

	return &domain.AsignacionBloque{
		BloqueID:    destino.Bloque.ID,
		EmpleadoID:  empleadoID,
		Posicion:    maxPos + 1,
		Estado:      actual.Estado,
		AsignadoPor: operadorID,
	}, nil
}
