package vacaciones

import (
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// Calendario proyecta el calendario de un empleado sobre un rango de fechas:
// turno por día según la regla de su grupo y la vacación activa si existe.
// Las llaves de vacaciones van a medianoche UTC.
func Calendario(registro *turnos.Registro, grupo *domain.GrupoTrabajo, vacaciones map[time.Time]domain.TipoVacacion, desde, hasta time.Time) []domain.DiaCalendario {
	if hasta.Before(desde) {
		return nil
	}

	inicio := time.Date(desde.Year(), desde.Month(), desde.Day(), 0, 0, 0, 0, time.UTC)
	fin := time.Date(hasta.Year(), hasta.Month(), hasta.Day(), 0, 0, 0, 0, time.UTC)

	dias := make([]domain.DiaCalendario, 0, int(fin.Sub(inicio).Hours()/24)+1)
	for fecha := inicio; !fecha.After(fin); fecha = fecha.AddDate(0, 0, 1) {
		turno := registro.Resolve(grupo.ReglaCodigo, grupo.NumeroGrupo, fecha)
		dia := domain.DiaCalendario{
			Fecha:     fecha,
			Turno:     turno,
			Laborable: !turnos.EsDescanso(turno),
		}
		if tipo, ok := vacaciones[fecha]; ok {
			t := tipo
			dia.Vacacion = &t
		}
		dias = append(dias, dia)
	}
	return dias
}
