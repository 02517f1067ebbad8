// Package asignacion implementa el motor de asignación automática de
// vacaciones y el alta manual administrativa. El motor recorre candidatos en
// orden determinista: mismo estado de entrada, mismas fechas de salida.
package asignacion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// OrdenAutomatica es la escritura atómica de un día automático: el almacén
// revalida techo y unicidad bajo el candado de (grupo, fecha) y descuenta el
// saldo automático.
type OrdenAutomatica struct {
	EmpleadoID int64
	GrupoID    int64
	Fecha      time.Time
}

// OrdenManual es el alta administrativa que brinca la validación de
// ausencias. Exige justificación y queda auditada.
type OrdenManual struct {
	EmpleadoID    int64
	OperadorID    int64
	Fecha         time.Time
	Tipo          domain.TipoVacacion
	Justificacion string
}

type Almacen interface {
	Grupo(ctx context.Context, id int64) (*domain.GrupoTrabajo, error)
	Saldo(ctx context.Context, empleadoID int64, anio int) (*domain.SaldoVacaciones, error)
	// DiasAutomaticosActivos cuenta las vacaciones Automatica activas del
	// empleado en el año; es la llave de idempotencia del motor.
	DiasAutomaticosActivos(ctx context.Context, empleadoID int64, anio int) (int, error)
	DiasInhabiles(ctx context.Context, anio int) (map[time.Time]struct{}, error)
	FechasAsignadas(ctx context.Context, empleadoID int64, anio int) (map[time.Time]struct{}, error)
	AsignarDiaAutomatico(ctx context.Context, orden OrdenAutomatica) (*domain.VacacionAsignada, error)
	// AsignarDiaManual persiste la vacación y su registro de auditoría en la
	// misma transacción.
	AsignarDiaManual(ctx context.Context, orden OrdenManual) (*domain.VacacionAsignada, error)
}

type Motor struct {
	almacen          Almacen
	registro         *turnos.Registro
	validador        *ausencias.Validador
	logger           *slog.Logger
	semanasExcluidas map[int]struct{}
	maxDias          int
}

func NuevoMotor(almacen Almacen, registro *turnos.Registro, validador *ausencias.Validador, logger *slog.Logger, semanasExcluidas []int, maxDias int) *Motor {
	excluidas := make(map[int]struct{}, len(semanasExcluidas))
	for _, s := range semanasExcluidas {
		excluidas[s] = struct{}{}
	}
	return &Motor{
		almacen:          almacen,
		registro:         registro,
		validador:        validador,
		logger:           logger,
		semanasExcluidas: excluidas,
		maxDias:          maxDias,
	}
}

// ResultadoEmpleado resume la corrida del motor para un empleado.
type ResultadoEmpleado struct {
	EmpleadoID      int64       `json:"empleadoID"`
	DiasPorAsignar  int         `json:"diasPorAsignar"`
	FechasAsignadas []time.Time `json:"fechasAsignadas"`
	Motivo          string      `json:"motivo,omitempty"`
}

// AsignarEmpleado corre el motor para un empleado y año. Es idempotente: si
// el empleado ya tiene sus días automáticos activos no escribe nada. Devuelve
// ErrCupoAutomaticoInsatisfecho solo cuando ninguna fecha laborable restante
// del año satisface el techo de ausencias.
func (m *Motor) AsignarEmpleado(ctx context.Context, empleado *domain.User, anio int) (*ResultadoEmpleado, error) {
	res := &ResultadoEmpleado{EmpleadoID: empleado.ID}

	if empleado.GrupoID == nil {
		res.Motivo = "el empleado no pertenece a ningún grupo"
		return res, nil
	}
	grupo, err := m.almacen.Grupo(ctx, *empleado.GrupoID)
	if err != nil {
		return nil, fmt.Errorf("consultar grupo: %w", err)
	}

	saldo, err := m.almacen.Saldo(ctx, empleado.ID, anio)
	if err != nil {
		return nil, fmt.Errorf("consultar saldo: %w", err)
	}
	derecho := saldo.DiasAutomaticos
	if derecho > m.maxDias {
		derecho = m.maxDias
	}
	if derecho <= 0 {
		res.Motivo = "el empleado no tiene días de asignación automática"
		return res, nil
	}

	existentes, err := m.almacen.DiasAutomaticosActivos(ctx, empleado.ID, anio)
	if err != nil {
		return nil, fmt.Errorf("consultar días automáticos: %w", err)
	}
	res.DiasPorAsignar = derecho - existentes
	if res.DiasPorAsignar <= 0 {
		res.Motivo = "el empleado ya tiene sus días automáticos del año"
		return res, nil
	}

	inhabiles, err := m.almacen.DiasInhabiles(ctx, anio)
	if err != nil {
		return nil, fmt.Errorf("consultar días inhábiles: %w", err)
	}
	ocupadas, err := m.almacen.FechasAsignadas(ctx, empleado.ID, anio)
	if err != nil {
		return nil, fmt.Errorf("consultar fechas asignadas: %w", err)
	}

	for _, arranque := range Segmentos(anio, res.DiasPorAsignar) {
		fecha, err := m.asignarDesde(ctx, empleado, grupo, anio, arranque, inhabiles, ocupadas)
		if err != nil {
			return nil, err
		}
		if fecha.IsZero() {
			continue
		}
		ocupadas[fecha] = struct{}{}
		res.FechasAsignadas = append(res.FechasAsignadas, fecha)
	}

	// Segmentos agotados: barrer el resto del año antes de declarar la falla.
	for len(res.FechasAsignadas) < res.DiasPorAsignar {
		fecha, err := m.asignarDesde(ctx, empleado, grupo, anio, time.Date(anio, 1, 1, 0, 0, 0, 0, time.UTC), inhabiles, ocupadas)
		if err != nil {
			return nil, err
		}
		if fecha.IsZero() {
			m.logger.Error("cupo automático insatisfecho",
				slog.Int64("empleadoID", empleado.ID),
				slog.Int("anio", anio),
				slog.Int("asignados", len(res.FechasAsignadas)),
				slog.Int("requeridos", res.DiasPorAsignar),
			)
			return res, domain.ErrCupoAutomaticoInsatisfecho
		}
		ocupadas[fecha] = struct{}{}
		res.FechasAsignadas = append(res.FechasAsignadas, fecha)
	}

	return res, nil
}

// asignarDesde camina el año desde la fecha dada y confirma el primer
// candidato viable. Devuelve la hora cero si el año se agota sin candidato.
func (m *Motor) asignarDesde(ctx context.Context, empleado *domain.User, grupo *domain.GrupoTrabajo, anio int, desde time.Time, inhabiles, ocupadas map[time.Time]struct{}) (time.Time, error) {
	for fecha := desde; fecha.Year() == anio; fecha = fecha.AddDate(0, 0, 1) {
		if !m.candidata(grupo, fecha, inhabiles, ocupadas) {
			continue
		}

		veredicto, err := m.validador.Validar(ctx, grupo.ID, fecha, 0)
		if err != nil {
			return time.Time{}, fmt.Errorf("validar ausencias: %w", err)
		}
		if !veredicto.Permitido {
			continue
		}

		_, err = m.almacen.AsignarDiaAutomatico(ctx, OrdenAutomatica{
			EmpleadoID: empleado.ID,
			GrupoID:    grupo.ID,
			Fecha:      fecha,
		})
		switch {
		case err == nil:
			return fecha, nil
		case errors.Is(err, domain.ErrLimiteAusencia), errors.Is(err, domain.ErrDiaYaAsignado), errors.Is(err, domain.ErrConflictoConcurrencia):
			// Perdió la carrera por esta fecha: el siguiente candidato sigue
			// siendo válido, el motor no reintenta la misma fecha.
			continue
		default:
			return time.Time{}, err
		}
	}
	return time.Time{}, nil
}

func (m *Motor) candidata(grupo *domain.GrupoTrabajo, fecha time.Time, inhabiles, ocupadas map[time.Time]struct{}) bool {
	if _, ok := ocupadas[fecha]; ok {
		return false
	}
	if _, ok := inhabiles[fecha]; ok {
		return false
	}
	_, semana := fecha.ISOWeek()
	if _, ok := m.semanasExcluidas[semana]; ok {
		return false
	}
	turno := m.registro.Resolve(grupo.ReglaCodigo, grupo.NumeroGrupo, fecha)
	return !turnos.EsDescanso(turno)
}

// Segmentos reparte el año en n tramos iguales y devuelve la fecha de
// arranque de cada uno. Así los días automáticos quedan repartidos a lo largo
// del año en vez de amontonarse en una sola semana.
func Segmentos(anio, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	inicio := time.Date(anio, 1, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(anio+1, 1, 1, 0, 0, 0, 0, time.UTC)
	totalDias := int(fin.Sub(inicio).Hours() / 24)

	arranques := make([]time.Time, n)
	for i := 0; i < n; i++ {
		arranques[i] = inicio.AddDate(0, 0, i*totalDias/n)
	}
	return arranques
}

// AsignacionManual brinca la validación de ausencias por orden explícita del
// operador. La justificación es obligatoria y la operación queda auditada.
func (m *Motor) AsignacionManual(ctx context.Context, orden OrdenManual) (*domain.VacacionAsignada, error) {
	if orden.Justificacion == "" {
		return nil, fmt.Errorf("la asignación manual requiere justificación")
	}
	if orden.Tipo == "" {
		orden.Tipo = domain.VacacionAnual
	}

	vacacion, err := m.almacen.AsignarDiaManual(ctx, orden)
	if err != nil {
		return nil, err
	}

	m.logger.Warn("asignación manual sin validación de ausencias",
		slog.Int64("empleadoID", orden.EmpleadoID),
		slog.Int64("operadorID", orden.OperadorID),
		slog.Time("fecha", orden.Fecha),
		slog.String("justificacion", orden.Justificacion),
	)
	return vacacion, nil
}
