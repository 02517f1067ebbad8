package turnos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

var patronR0144 = []string{
	"1", "1", "1", "1", "1", "D", "D",
	"D", "3", "3", "3", "3", "3", "D",
	"2", "2", "D", "D", "2", "2", "3",
	"3", "D", "2", "2", "D", "1", "1",
}

var ancla = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

func registroDePrueba(t *testing.T, opts ...Opcion) *Registro {
	t.Helper()
	reg, err := NuevoRegistro(ancla, []*domain.ReglaTurnos{
		{Codigo: "R0144", Patron: patronR0144},
	}, opts...)
	require.NoError(t, err)
	return reg
}

func TestNuevoRegistroRechazaPatronesInvalidos(t *testing.T) {
	casos := []struct {
		nombre string
		reglas []*domain.ReglaTurnos
	}{
		{"patrón vacío", []*domain.ReglaTurnos{{Codigo: "R1", Patron: nil}}},
		{"longitud no múltiplo de 7", []*domain.ReglaTurnos{{Codigo: "R1", Patron: []string{"1", "2", "3"}}}},
		{"sin código", []*domain.ReglaTurnos{{Codigo: "", Patron: patronR0144}}},
		{"código duplicado", []*domain.ReglaTurnos{
			{Codigo: "R1", Patron: patronR0144},
			{Codigo: "R1", Patron: patronR0144},
		}},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			_, err := NuevoRegistro(ancla, c.reglas)
			assert.Error(t, err)
		})
	}
}

func TestResolveGrupoUnoSigueElPatronDesdeElAncla(t *testing.T) {
	reg := registroDePrueba(t)

	for i, esperado := range patronR0144 {
		fecha := ancla.AddDate(0, 0, i)
		assert.Equal(t, esperado, reg.Resolve("R0144", 1, fecha), "día %d", i)
	}
}

func TestResolveGrupoDosArrancaConDesfaseDeSieteDias(t *testing.T) {
	reg := registroDePrueba(t)

	// El grupo 2 vive el patrón una semana adelante: su día 0 es el índice 7.
	for i := 0; i < 14; i++ {
		fecha := ancla.AddDate(0, 0, i)
		esperado := patronR0144[(i+7)%len(patronR0144)]
		assert.Equal(t, esperado, reg.Resolve("R0144", 2, fecha), "día %d", i)
	}
}

func TestResolveEsPeriodicoPorCiclosCompletos(t *testing.T) {
	reg := registroDePrueba(t)
	fecha := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	base := reg.Resolve("R0144", 3, fecha)
	for _, ciclos := range []int{1, 2, 13, -1, -5} {
		desplazada := fecha.AddDate(0, 0, ciclos*len(patronR0144))
		assert.Equal(t, base, reg.Resolve("R0144", 3, desplazada), "ciclos=%d", ciclos)
	}
}

func TestResolveFechasAnterioresAlAncla(t *testing.T) {
	reg := registroDePrueba(t)

	// Un día antes del ancla el grupo 1 está en el último índice del patrón.
	vispera := ancla.AddDate(0, 0, -1)
	assert.Equal(t, patronR0144[len(patronR0144)-1], reg.Resolve("R0144", 1, vispera))

	// Y un ciclo completo hacia atrás repite el ancla.
	unCicloAtras := ancla.AddDate(0, 0, -len(patronR0144))
	assert.Equal(t, patronR0144[0], reg.Resolve("R0144", 1, unCicloAtras))
}

func TestResolveIgnoraLaHoraYElHuso(t *testing.T) {
	reg := registroDePrueba(t)
	monterrey := time.FixedZone("America/Monterrey", -6*60*60)

	madrugada := time.Date(2025, 10, 2, 0, 30, 0, 0, monterrey)
	noche := time.Date(2025, 10, 2, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, reg.Resolve("R0144", 1, noche), reg.Resolve("R0144", 1, madrugada))
}

func TestResolveReglaDesconocidaCaeAlTurnoMatutino(t *testing.T) {
	reg := registroDePrueba(t)
	assert.Equal(t, "1", reg.Resolve("NOEXISTE", 1, ancla))
}

func TestConSemanaSantaDesplazaLasFechasPosteriores(t *testing.T) {
	fin := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	reg := registroDePrueba(t, ConSemanaSanta(fin))
	sinAjuste := registroDePrueba(t)

	// Hasta el fin de Semana Santa nada cambia.
	assert.Equal(t, sinAjuste.Resolve("R0144", 1, fin), reg.Resolve("R0144", 1, fin))

	// Después, cada fecha resuelve como su homóloga de una semana antes.
	despues := fin.AddDate(0, 0, 3)
	assert.Equal(t, sinAjuste.Resolve("R0144", 1, despues.AddDate(0, 0, -7)), reg.Resolve("R0144", 1, despues))
}

func TestCrearRol(t *testing.T) {
	reg := registroDePrueba(t)

	rol1 := reg.CrearRol("R0144", 1)
	assert.Equal(t, patronR0144, rol1)

	rol2 := reg.CrearRol("R0144", 2)
	require.Len(t, rol2, len(patronR0144))
	for i := range rol2 {
		assert.Equal(t, patronR0144[(i+7)%len(patronR0144)], rol2[i], "índice %d", i)
	}

	assert.Nil(t, reg.CrearRol("NOEXISTE", 1))
}

func TestEsDescanso(t *testing.T) {
	assert.True(t, EsDescanso("D"))
	assert.True(t, EsDescanso("0"))
	assert.True(t, EsDescanso(""))
	assert.False(t, EsDescanso("1"))
	assert.False(t, EsDescanso("2"))
	assert.False(t, EsDescanso("3"))
}

func TestParseRolGrupo(t *testing.T) {
	codigo, numero, err := ParseRolGrupo("R0144_04")
	require.NoError(t, err)
	assert.Equal(t, "R0144", codigo)
	assert.Equal(t, 4, numero)

	codigo, numero, err = ParseRolGrupo("R0144")
	require.NoError(t, err)
	assert.Equal(t, "R0144", codigo)
	assert.Equal(t, 1, numero)

	for _, invalido := range []string{"", "R0144_xx", "R0144_0", "R0144_1_2"} {
		_, _, err := ParseRolGrupo(invalido)
		assert.Error(t, err, "entrada %q", invalido)
	}
}
