// Package turnos resuelve el turno de un empleado para cualquier fecha a
// partir de su regla de rotación y su desfase de grupo. Todo el paquete es
// puro: sin estado mutable y sin acceso a datos.
package turnos

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

// Registro contiene las reglas de turnos validadas. Un código desconocido es
// un error de configuración que se reporta al construir el registro, no al
// resolver una fecha.
type Registro struct {
	ancla          time.Time
	reglas         map[string]*domain.ReglaTurnos
	semanaSantaFin *time.Time
}

type Opcion func(*Registro)

// ConSemanaSanta activa el ajuste de Semana Santa: las fechas posteriores a
// fin retroceden 7 días para el cálculo, de modo que la semana siguiente a
// Semana Santa repita el patrón de ésta.
func ConSemanaSanta(fin time.Time) Opcion {
	return func(r *Registro) {
		f := aFecha(fin)
		r.semanaSantaFin = &f
	}
}

// NuevoRegistro valida y carga las reglas. Rechaza patrones vacíos, longitudes
// que no sean múltiplo de 7 y códigos duplicados.
func NuevoRegistro(ancla time.Time, reglas []*domain.ReglaTurnos, opts ...Opcion) (*Registro, error) {
	r := &Registro{
		ancla:  aFecha(ancla),
		reglas: make(map[string]*domain.ReglaTurnos, len(reglas)),
	}

	for _, regla := range reglas {
		if regla.Codigo == "" {
			return nil, fmt.Errorf("regla sin código")
		}
		if len(regla.Patron) == 0 {
			return nil, fmt.Errorf("regla %s: patrón vacío", regla.Codigo)
		}
		if len(regla.Patron)%7 != 0 {
			return nil, fmt.Errorf("regla %s: la longitud del patrón (%d) debe ser múltiplo de 7", regla.Codigo, len(regla.Patron))
		}
		if _, existe := r.reglas[regla.Codigo]; existe {
			return nil, fmt.Errorf("regla %s duplicada", regla.Codigo)
		}
		r.reglas[regla.Codigo] = regla
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Codigos devuelve los códigos de regla cargados.
func (r *Registro) Codigos() []string {
	codigos := make([]string, 0, len(r.reglas))
	for codigo := range r.reglas {
		codigos = append(codigos, codigo)
	}
	return codigos
}

// Existe indica si el código de regla está cargado.
func (r *Registro) Existe(codigo string) bool {
	_, ok := r.reglas[codigo]
	return ok
}

// Resolve devuelve la etiqueta de turno del grupo para la fecha dada. Es total:
// el registro ya validó las reglas, así que una regla ausente solo puede
// significar datos de grupo corruptos y se responde con el turno matutino.
func (r *Registro) Resolve(codigo string, numeroGrupo int, fecha time.Time) string {
	regla, ok := r.reglas[codigo]
	if !ok {
		return "1"
	}

	dias := r.diasDesdeAncla(fecha)
	indice := modFloor(dias+(numeroGrupo-1)*7, len(regla.Patron))
	return regla.Patron[indice]
}

// CrearRol materializa un ciclo completo del patrón desde la fase del grupo.
// Es una vista derivada de la regla, no estado aparte.
func (r *Registro) CrearRol(codigo string, numeroGrupo int) []string {
	regla, ok := r.reglas[codigo]
	if !ok {
		return nil
	}

	n := len(regla.Patron)
	rol := make([]string, n)
	dia := (numeroGrupo - 1) * 7
	for i := 0; i < n; i, dia = i+1, dia+1 {
		rol[i] = regla.Patron[modFloor(dia, n)]
	}
	return rol
}

// EsDescanso indica si la etiqueta no corresponde a un turno laborable.
// Los turnos laborables son los numéricos ("1", "2", "3"...).
func EsDescanso(turno string) bool {
	if turno == "" {
		return true
	}
	if _, err := strconv.Atoi(turno); err != nil {
		return true
	}
	return turno == "0"
}

// ParseRolGrupo separa el nombre de un grupo en código de regla y número de
// grupo. Acepta "R0144_04" o solo "R0144" (grupo 1 por omisión).
func ParseRolGrupo(rolGrupo string) (string, int, error) {
	if rolGrupo == "" {
		return "", 0, fmt.Errorf("rol de grupo vacío")
	}

	partes := strings.Split(rolGrupo, "_")
	switch len(partes) {
	case 1:
		return partes[0], 1, nil
	case 2:
		numero, err := strconv.Atoi(partes[1])
		if err != nil || numero < 1 {
			return "", 0, fmt.Errorf("rol de grupo %q: número de grupo inválido", rolGrupo)
		}
		return partes[0], numero, nil
	default:
		return "", 0, fmt.Errorf("rol de grupo %q: formato inválido", rolGrupo)
	}
}

// diasDesdeAncla cuenta días civiles entre el ancla y la fecha; negativo para
// fechas anteriores al ancla.
func (r *Registro) diasDesdeAncla(fecha time.Time) int {
	f := aFecha(fecha)
	if r.semanaSantaFin != nil && f.After(*r.semanaSantaFin) {
		f = f.AddDate(0, 0, -7)
	}
	return int(f.Sub(r.ancla).Hours() / 24)
}

// modFloor es el módulo de piso: el resultado siempre cae en [0, n), también
// para dividendos negativos. El módulo nativo de Go truncaría hacia cero y
// rompería las fechas anteriores al ancla.
func modFloor(x, n int) int {
	return ((x % n) + n) % n
}

// aFecha normaliza a medianoche UTC para que la aritmética de días no dependa
// de husos ni horarios de verano.
func aFecha(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
