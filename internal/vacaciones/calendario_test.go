package vacaciones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

func TestCalendario(t *testing.T) {
	reg, err := turnos.NuevoRegistro(
		time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		[]*domain.ReglaTurnos{{Codigo: "R0001", Patron: []string{"1", "1", "1", "1", "1", "D", "D"}}},
	)
	require.NoError(t, err)
	grupo := &domain.GrupoTrabajo{ID: 1, Nombre: "R0001_01", ReglaCodigo: "R0001", NumeroGrupo: 1}

	lunes := time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC)
	domingo := lunes.AddDate(0, 0, 6)
	vacaciones := map[time.Time]domain.TipoVacacion{
		lunes.AddDate(0, 0, 2): domain.VacacionAnual,
	}

	dias := Calendario(reg, grupo, vacaciones, lunes, domingo)
	require.Len(t, dias, 7)

	assert.Equal(t, "1", dias[0].Turno)
	assert.True(t, dias[0].Laborable)
	assert.Equal(t, "D", dias[5].Turno)
	assert.False(t, dias[5].Laborable)

	require.NotNil(t, dias[2].Vacacion)
	assert.Equal(t, domain.VacacionAnual, *dias[2].Vacacion)
	assert.Nil(t, dias[0].Vacacion)
}

func TestCalendarioRangoInvertido(t *testing.T) {
	reg, err := turnos.NuevoRegistro(
		time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		[]*domain.ReglaTurnos{{Codigo: "R0001", Patron: []string{"1", "1", "1", "1", "1", "D", "D"}}},
	)
	require.NoError(t, err)
	grupo := &domain.GrupoTrabajo{ID: 1, ReglaCodigo: "R0001", NumeroGrupo: 1}

	hoy := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, Calendario(reg, grupo, nil, hoy, hoy.AddDate(0, 0, -1)))
}
