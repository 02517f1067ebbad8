// Package seed llena una base de datos vacía con datos de demostración:
// áreas, grupos con sus reglas de turnos, empleados sindicalizados y los días
// inhábiles del año objetivo.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/repository"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/utils"
)

// patrón rotativo de 4 semanas; D marca descanso
var patronRotativo = []string{
	"1", "1", "1", "1", "1", "D", "D",
	"D", "3", "3", "3", "3", "3", "D",
	"2", "2", "D", "D", "2", "2", "3",
	"3", "D", "2", "2", "D", "1", "1",
}

// patrón fijo de lunes a viernes
var patronSemanal = []string{"1", "1", "1", "1", "1", "D", "D"}

const empleadosPorGrupo = 20

func Run(ctx context.Context, cfg *config.Config, repo *repository.Repository, logger *slog.Logger) error {
	area := &domain.Area{Nombre: "Operaciones"}
	if err := repo.CrearArea(ctx, area); err != nil {
		return fmt.Errorf("crear área: %w", err)
	}

	reglas := []*domain.ReglaTurnos{
		{Codigo: "R0144", Patron: patronRotativo},
		{Codigo: "L5D2", Patron: patronSemanal},
	}
	for _, regla := range reglas {
		if err := repo.CrearRegla(ctx, regla); err != nil {
			return fmt.Errorf("crear regla %s: %w", regla.Codigo, err)
		}
	}

	grupos := []*domain.GrupoTrabajo{
		{AreaID: area.ID, Nombre: "Turno rotativo 1", ReglaCodigo: "R0144", NumeroGrupo: 1},
		{AreaID: area.ID, Nombre: "Turno rotativo 2", ReglaCodigo: "R0144", NumeroGrupo: 2},
		{AreaID: area.ID, Nombre: "Turno rotativo 3", ReglaCodigo: "R0144", NumeroGrupo: 3},
		{AreaID: area.ID, Nombre: "Turno rotativo 4", ReglaCodigo: "R0144", NumeroGrupo: 4},
		{AreaID: area.ID, Nombre: "Administrativo", ReglaCodigo: "L5D2", NumeroGrupo: 1},
	}

	nomina := int64(1000)
	for _, grupo := range grupos {
		if err := repo.CrearGrupo(ctx, grupo); err != nil {
			return fmt.Errorf("crear grupo %s: %w", grupo.Nombre, err)
		}

		for i := 0; i < empleadosPorGrupo; i++ {
			nomina++
			empleado, err := utils.GenerarEmpleadoAleatorio(cfg.Seed.User.Password, cfg.Email.UserDomain, nomina)
			if err != nil {
				return fmt.Errorf("generar empleado: %w", err)
			}
			empleado.AreaID = &area.ID
			empleado.GrupoID = &grupo.ID
			if err := repo.CrearUsuario(ctx, empleado); err != nil {
				return fmt.Errorf("crear empleado: %w", err)
			}
		}
		logger.Info("grupo sembrado", slog.String("grupo", grupo.Nombre), slog.Int("empleados", empleadosPorGrupo))
	}

	anio := time.Now().Year() + 1
	for _, dia := range diasInhabiles(anio) {
		if err := repo.CrearDiaInhabil(ctx, dia); err != nil {
			return fmt.Errorf("crear día inhábil: %w", err)
		}
	}
	logger.Info("días inhábiles sembrados", slog.Int("anio", anio))

	return nil
}

// diasInhabiles devuelve los descansos obligatorios de fecha fija del año.
func diasInhabiles(anio int) []*domain.DiaInhabil {
	fechas := []struct {
		mes         time.Month
		dia         int
		descripcion string
	}{
		{time.January, 1, "Año Nuevo"},
		{time.February, 5, "Día de la Constitución"},
		{time.March, 21, "Natalicio de Benito Juárez"},
		{time.May, 1, "Día del Trabajo"},
		{time.September, 16, "Día de la Independencia"},
		{time.November, 20, "Revolución Mexicana"},
		{time.December, 25, "Navidad"},
	}

	dias := make([]*domain.DiaInhabil, 0, len(fechas))
	for _, f := range fechas {
		dias = append(dias, &domain.DiaInhabil{
			Fecha:       time.Date(anio, f.mes, f.dia, 0, 0, 0, 0, time.UTC),
			Descripcion: f.descripcion,
		})
	}
	return dias
}
