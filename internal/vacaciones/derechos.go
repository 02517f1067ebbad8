// Package vacaciones define los derechos de vacaciones por antigüedad y el
// cálculo de saldos anuales derivados de ellos.
package vacaciones

import "github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"

// Derecho es la dotación anual de días para una banda de antigüedad.
// Los días de empresa los coloca la planta en los paros programados; los
// automáticos los reparte el motor y los programables los elige el empleado.
type Derecho struct {
	AntiguedadDesde  int  `json:"antiguedadDesde"`
	AntiguedadHasta  *int `json:"antiguedadHasta"` // nil = sin tope superior dentro de la tabla
	TotalDias        int  `json:"totalDias"`
	DiasEmpresa      int  `json:"diasEmpresa"`
	DiasAutomaticos  int  `json:"diasAutomaticos"`
	DiasProgramables int  `json:"diasProgramables"`
}

func hasta(n int) *int { return &n }

// tablaDerechos sigue la Ley Federal del Trabajo con el reparto interno de la
// planta: 12 días de empresa fijos y el resto crece con la antigüedad.
var tablaDerechos = []Derecho{
	{AntiguedadDesde: 1, TotalDias: 12, DiasEmpresa: 12, DiasAutomaticos: 0, DiasProgramables: 0},
	{AntiguedadDesde: 2, TotalDias: 14, DiasEmpresa: 12, DiasAutomaticos: 0, DiasProgramables: 2},
	{AntiguedadDesde: 3, TotalDias: 16, DiasEmpresa: 12, DiasAutomaticos: 0, DiasProgramables: 4},
	{AntiguedadDesde: 4, TotalDias: 18, DiasEmpresa: 12, DiasAutomaticos: 3, DiasProgramables: 3},
	{AntiguedadDesde: 5, TotalDias: 20, DiasEmpresa: 12, DiasAutomaticos: 4, DiasProgramables: 4},
	{AntiguedadDesde: 6, AntiguedadHasta: hasta(10), TotalDias: 22, DiasEmpresa: 12, DiasAutomaticos: 4, DiasProgramables: 6},
	{AntiguedadDesde: 11, AntiguedadHasta: hasta(15), TotalDias: 24, DiasEmpresa: 12, DiasAutomaticos: 5, DiasProgramables: 7},
	{AntiguedadDesde: 16, AntiguedadHasta: hasta(20), TotalDias: 26, DiasEmpresa: 12, DiasAutomaticos: 5, DiasProgramables: 9},
	{AntiguedadDesde: 21, AntiguedadHasta: hasta(25), TotalDias: 28, DiasEmpresa: 12, DiasAutomaticos: 5, DiasProgramables: 11},
	{AntiguedadDesde: 26, AntiguedadHasta: hasta(30), TotalDias: 30, DiasEmpresa: 12, DiasAutomaticos: 5, DiasProgramables: 13},
	{AntiguedadDesde: 31, AntiguedadHasta: hasta(35), TotalDias: 32, DiasEmpresa: 12, DiasAutomaticos: 5, DiasProgramables: 15},
}

// Tabla devuelve una copia de la tabla de derechos, para exponerla por API.
func Tabla() []Derecho {
	tabla := make([]Derecho, len(tablaDerechos))
	copy(tabla, tablaDerechos)
	return tabla
}

// DerechoPorAntiguedad resuelve la banda que corresponde a los años cumplidos.
// Antigüedades menores a un año usan la primera banda; más allá de la tabla el
// derecho sigue creciendo 2 días programables por cada quinquenio adicional.
func DerechoPorAntiguedad(anios int) Derecho {
	if anios < 1 {
		return tablaDerechos[0]
	}

	ultima := tablaDerechos[len(tablaDerechos)-1]
	if anios > *ultima.AntiguedadHasta {
		quinquenios := (anios - *ultima.AntiguedadHasta + 4) / 5
		d := ultima
		d.AntiguedadDesde = *ultima.AntiguedadHasta + 1
		d.AntiguedadHasta = nil
		d.TotalDias += 2 * quinquenios
		d.DiasProgramables += 2 * quinquenios
		return d
	}

	for i := len(tablaDerechos) - 1; i >= 0; i-- {
		if anios >= tablaDerechos[i].AntiguedadDesde {
			return tablaDerechos[i]
		}
	}
	return tablaDerechos[0]
}

// SaldoInicial arma el saldo anual de un empleado a partir de su antigüedad
// cumplida al cierre del año objetivo.
func SaldoInicial(empleado *domain.User, anioObjetivo int) domain.SaldoVacaciones {
	derecho := DerechoPorAntiguedad(empleado.AntiguedadEnAnios(anioObjetivo))
	return domain.SaldoVacaciones{
		EmpleadoID:       empleado.ID,
		Anio:             anioObjetivo,
		DiasEmpresa:      derecho.DiasEmpresa,
		DiasAutomaticos:  derecho.DiasAutomaticos,
		DiasProgramables: derecho.DiasProgramables,
	}
}
