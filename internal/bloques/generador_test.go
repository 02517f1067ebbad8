package bloques

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// patrón de cuatro semanas sin descansos, para que las ventanas de bloque no
// dependan del rol en los escenarios que no lo ejercitan.
var patronContinuo = []string{
	"1", "1", "1", "1", "1", "1", "1",
	"2", "2", "2", "2", "2", "2", "2",
	"3", "3", "3", "3", "3", "3", "3",
	"1", "1", "1", "1", "1", "1", "1",
}

func generadorDePrueba(t *testing.T, patron []string) *Generador {
	t.Helper()
	reg, err := turnos.NuevoRegistro(
		time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		[]*domain.ReglaTurnos{{Codigo: "R0144", Patron: patron}},
	)
	require.NoError(t, err)
	return NuevoGenerador(reg)
}

func empleado(id int64, nomina int64, ingreso time.Time) *domain.User {
	return &domain.User{ID: id, Nomina: &nomina, FechaIngreso: &ingreso}
}

func grupoDePrueba() *domain.GrupoTrabajo {
	return &domain.GrupoTrabajo{ID: 10, AreaID: 3, Nombre: "R0144_02", ReglaCodigo: "R0144", NumeroGrupo: 2}
}

func TestOrdenarPorAntiguedadFiltraYOrdena(t *testing.T) {
	ing := func(anio int) time.Time { return time.Date(anio, 1, 10, 0, 0, 0, 0, time.UTC) }

	sinNomina := &domain.User{ID: 99, FechaIngreso: ptrTime(ing(2000))}
	nuevoIngreso := empleado(5, 505, ing(2025)) // 1 año al cierre de 2026: sin programables

	empleados := []*domain.User{
		empleado(3, 303, ing(2015)),
		empleado(1, 101, ing(2005)),
		sinNomina,
		empleado(2, 102, ing(2005)), // misma fecha que 1: desempata por nómina
		nuevoIngreso,
		empleado(4, 404, ing(2020)),
	}

	orden := OrdenarPorAntiguedad(empleados, 2026)
	require.Len(t, orden, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{orden[0].ID, orden[1].ID, orden[2].ID, orden[3].ID})
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestGenerarBloquesConsecutivosYBloqueCola(t *testing.T) {
	g := generadorDePrueba(t, patronContinuo)

	var empleados []*domain.User
	for i := int64(1); i <= 7; i++ {
		empleados = append(empleados, empleado(i, 100+i, time.Date(2000+int(i), 1, 1, 0, 0, 0, 0, time.UTC)))
	}

	// Lunes 2026-01-05.
	bloques, err := g.Generar(ParametrosGeneracion{
		Grupo:             grupoDePrueba(),
		Empleados:         empleados,
		FechaInicio:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		AnioObjetivo:      2026,
		PersonasPorBloque: 4,
		DuracionHoras:     24,
		GeneradoPor:       1,
	})
	require.NoError(t, err)

	// 7 empleados / 4 por bloque = 2 regulares + 1 cola.
	require.Len(t, bloques, 3)
	assert.False(t, bloques[0].Bloque.EsBloqueCola)
	assert.False(t, bloques[1].Bloque.EsBloqueCola)
	assert.True(t, bloques[2].Bloque.EsBloqueCola)

	// Arranque 09:00 y ventanas consecutivas sin traslape.
	assert.Equal(t, 9, bloques[0].Bloque.Inicio.Hour())
	for i := 1; i < len(bloques); i++ {
		assert.False(t, bloques[i].Bloque.Inicio.Before(bloques[i-1].Bloque.Fin), "bloque %d traslapa", i)
	}

	// Antigüedad: los cuatro más antiguos en el bloque 1, el resto en el 2,
	// el bloque cola vacío.
	require.Len(t, bloques[0].Asignaciones, 4)
	require.Len(t, bloques[1].Asignaciones, 3)
	assert.Empty(t, bloques[2].Asignaciones)
	for i, a := range bloques[0].Asignaciones {
		assert.Equal(t, i+1, a.Posicion)
		assert.Equal(t, empleados[i].ID, a.EmpleadoID)
		assert.Equal(t, domain.AsignacionAsignada, a.Estado)
	}
}

func TestGenerarPausaElFinDeSemana(t *testing.T) {
	g := generadorDePrueba(t, patronContinuo)

	// Viernes 2026-01-09 09:00 + 48h = domingo: el siguiente bloque debe
	// arrancar el lunes 09:00.
	bloques, err := g.Generar(ParametrosGeneracion{
		Grupo:             grupoDePrueba(),
		Empleados:         []*domain.User{empleado(1, 101, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))},
		FechaInicio:       time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC),
		AnioObjetivo:      2026,
		PersonasPorBloque: 1,
		DuracionHoras:     48,
		GeneradoPor:       1,
	})
	require.NoError(t, err)
	require.Len(t, bloques, 2)

	segundo := bloques[1].Bloque.Inicio
	assert.Equal(t, time.Monday, segundo.Weekday())
	assert.Equal(t, 9, segundo.Hour())
	assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), segundo)
}

func TestGenerarEvitaDiasInhabilesYDescansos(t *testing.T) {
	// Patrón con la segunda semana completa en descanso.
	patron := []string{
		"1", "1", "1", "1", "1", "1", "1",
		"D", "D", "D", "D", "D", "D", "D",
	}
	g := generadorDePrueba(t, patron)
	grupo := grupoDePrueba()
	grupo.NumeroGrupo = 1

	inhabil := time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC)
	bloques, err := g.Generar(ParametrosGeneracion{
		Grupo:             grupo,
		Empleados:         []*domain.User{empleado(1, 101, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))},
		FechaInicio:       time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC), // martes, inhábil
		AnioObjetivo:      2026,
		PersonasPorBloque: 1,
		DuracionHoras:     24,
		DiasInhabiles:     map[time.Time]struct{}{inhabil: {}},
		GeneradoPor:       1,
	})
	require.NoError(t, err)
	require.Len(t, bloques, 2)

	// El día inhábil se salta y ningún bloque arranca en descanso.
	assert.Equal(t, time.Date(2025, 9, 17, 9, 0, 0, 0, time.UTC), bloques[0].Bloque.Inicio)
	reg, _ := turnos.NuevoRegistro(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), []*domain.ReglaTurnos{{Codigo: "R0144", Patron: patron}})
	for _, b := range bloques {
		turno := reg.Resolve("R0144", 1, b.Bloque.Inicio)
		assert.False(t, turnos.EsDescanso(turno), "bloque %d arranca en descanso", b.Bloque.Numero)
	}
}

func TestGenerarSinElegiblesNoProduceBloques(t *testing.T) {
	g := generadorDePrueba(t, patronContinuo)
	bloques, err := g.Generar(ParametrosGeneracion{
		Grupo:             grupoDePrueba(),
		Empleados:         nil,
		FechaInicio:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		AnioObjetivo:      2026,
		PersonasPorBloque: 4,
		DuracionHoras:     24,
		GeneradoPor:       1,
	})
	require.NoError(t, err)
	assert.Empty(t, bloques)
}

func TestVerificarPosiciones(t *testing.T) {
	sanas := []*domain.AsignacionBloque{
		{EmpleadoID: 1, Posicion: 1, Estado: domain.AsignacionAsignada},
		{EmpleadoID: 2, Posicion: 2, Estado: domain.AsignacionAsignada},
		{EmpleadoID: 3, Posicion: 2, Estado: domain.AsignacionTransferida}, // no cuenta
	}
	assert.NoError(t, VerificarPosiciones(sanas))

	duplicadas := []*domain.AsignacionBloque{
		{EmpleadoID: 1, Posicion: 1, Estado: domain.AsignacionAsignada},
		{EmpleadoID: 2, Posicion: 1, Estado: domain.AsignacionReservada},
	}
	assert.Error(t, VerificarPosiciones(duplicadas))
}

func TestPlanearReasignacion(t *testing.T) {
	origen := &BloqueConAsignaciones{
		Bloque: &domain.BloqueReservacion{ID: 1, Numero: 1, Estado: domain.BloqueActivo},
		Asignaciones: []*domain.AsignacionBloque{
			{ID: 11, EmpleadoID: 7, Posicion: 1, Estado: domain.AsignacionAsignada},
		},
	}
	destino := &BloqueConAsignaciones{
		Bloque: &domain.BloqueReservacion{ID: 2, Numero: 2, Estado: domain.BloqueActivo},
		Asignaciones: []*domain.AsignacionBloque{
			{ID: 21, EmpleadoID: 8, Posicion: 1, Estado: domain.AsignacionAsignada},
			{ID: 22, EmpleadoID: 9, Posicion: 2, Estado: domain.AsignacionAsignada},
		},
	}

	nueva, err := PlanearReasignacion(origen, destino, 7, 1, "cambio de turno")
	require.NoError(t, err)
	assert.Equal(t, int64(2), nueva.BloqueID)
	assert.Equal(t, 3, nueva.Posicion) // se agrega al final, nunca intercalado
	assert.Equal(t, domain.AsignacionAsignada, nueva.Estado)

	// No se puede mover hacia un bloque completado.
	destino.Bloque.Estado = domain.BloqueCompletado
	_, err = PlanearReasignacion(origen, destino, 7, 1, "tarde")
	assert.ErrorIs(t, err, domain.ErrBloqueCompletado)

	// Ni mover a quien no está en el bloque de origen.
	destino.Bloque.Estado = domain.BloqueActivo
	_, err = PlanearReasignacion(origen, destino, 99, 1, "no existe")
	assert.Error(t, err)

	// Ni reabrir trabajo completado.
	origen.Asignaciones[0].Estado = domain.AsignacionCompletada
	_, err = PlanearReasignacion(origen, destino, 7, 1, "ya terminó")
	assert.ErrorIs(t, err, domain.ErrBloqueCompletado)
}
