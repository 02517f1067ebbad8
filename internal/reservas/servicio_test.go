package reservas

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

// almacenMemoria implementa Almacen y ausencias.Datos sobre mapas, con
// inyección de conflictos de concurrencia para probar el reintento.
type almacenMemoria struct {
	empleados  map[int64]*domain.User
	grupos     map[int64]*domain.GrupoTrabajo
	saldos     map[int64]*domain.SaldoVacaciones
	bloque     *bloques.BloqueConAsignaciones
	vacaciones map[string]*domain.VacacionAsignada // llave empleadoID|fecha

	totalGrupo          int
	ausentesExternos    int
	umbrales            ausencias.Umbrales
	conflictosRestantes int
	llamadasReservar    int
	completadas         []int64
}

func llave(empleadoID int64, fecha time.Time) string {
	return strconv.FormatInt(empleadoID, 10) + "|" + fecha.Format(time.DateOnly)
}

func (m *almacenMemoria) Empleado(_ context.Context, id int64) (*domain.User, error) {
	return m.empleados[id], nil
}

func (m *almacenMemoria) Grupo(_ context.Context, id int64) (*domain.GrupoTrabajo, error) {
	return m.grupos[id], nil
}

func (m *almacenMemoria) Saldo(_ context.Context, empleadoID int64, _ int) (*domain.SaldoVacaciones, error) {
	return m.saldos[empleadoID], nil
}

func (m *almacenMemoria) AsignacionVigente(_ context.Context, empleadoID int64, _ int) (*bloques.BloqueConAsignaciones, *domain.AsignacionBloque, error) {
	if m.bloque == nil {
		return nil, nil, nil
	}
	for _, a := range m.bloque.Asignaciones {
		if a.EmpleadoID == empleadoID {
			return m.bloque, a, nil
		}
	}
	return nil, nil, nil
}

func (m *almacenMemoria) ReservarDia(_ context.Context, orden ReservaDia) (*domain.VacacionAsignada, error) {
	m.llamadasReservar++
	if m.conflictosRestantes > 0 {
		m.conflictosRestantes--
		return nil, domain.ErrConflictoConcurrencia
	}
	k := llave(orden.EmpleadoID, orden.Fecha)
	if _, existe := m.vacaciones[k]; existe {
		return nil, domain.ErrDiaYaAsignado
	}
	v := &domain.VacacionAsignada{
		ID:         int64(len(m.vacaciones) + 1),
		EmpleadoID: orden.EmpleadoID,
		Fecha:      orden.Fecha,
		Tipo:       orden.Tipo,
		Origen:     orden.Origen,
		Estado:     domain.VacacionActiva,
	}
	m.vacaciones[k] = v
	m.saldos[orden.EmpleadoID].ConsumidoAnual++
	return v, nil
}

func (m *almacenMemoria) CancelarDia(_ context.Context, empleadoID int64, fecha time.Time) (*domain.VacacionAsignada, error) {
	k := llave(empleadoID, fecha)
	v, existe := m.vacaciones[k]
	if !existe {
		return nil, domain.ErrDiaNoRemovible
	}
	if v.Origen != domain.OrigenEmpleado {
		return nil, domain.ErrDiaNoRemovible
	}
	delete(m.vacaciones, k)
	v.Estado = domain.VacacionCancelada
	m.saldos[empleadoID].ConsumidoAnual--
	return v, nil
}

func (m *almacenMemoria) MarcarReservacionCompleta(_ context.Context, asignacionID int64) error {
	m.completadas = append(m.completadas, asignacionID)
	for _, a := range m.bloque.Asignaciones {
		if a.ID == asignacionID {
			a.Estado = domain.AsignacionReservada
		}
	}
	return nil
}

func (m *almacenMemoria) ConteoAusencias(_ context.Context, _ int64, fecha time.Time, excluirEmpleadoID int64) (ausencias.Conteo, error) {
	ausentes := m.ausentesExternos
	for _, v := range m.vacaciones {
		if v.EmpleadoID == excluirEmpleadoID {
			continue
		}
		if v.Fecha.Equal(fecha) && v.Estado == domain.VacacionActiva {
			ausentes++
		}
	}
	return ausencias.Conteo{TotalEmpleados: m.totalGrupo, Ausentes: ausentes}, nil
}

func (m *almacenMemoria) UmbralesPara(_ context.Context, _ int64, _ time.Time) (ausencias.Umbrales, error) {
	return m.umbrales, nil
}

type publicadorMemoria struct {
	eventos []*domain.Evento
}

func (p *publicadorMemoria) Publicar(_ context.Context, e *domain.Evento) error {
	p.eventos = append(p.eventos, e)
	return nil
}

// Escenario base: patrón de una semana laboral con descanso sábado/domingo,
// bloque activo conteniendo "ahora", empleado 1 en posición 1.
func escenario(t *testing.T) (*Servicio, *almacenMemoria, *publicadorMemoria) {
	t.Helper()

	patron := []string{"1", "1", "1", "1", "1", "D", "D"}
	reg, err := turnos.NuevoRegistro(
		time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), // lunes
		[]*domain.ReglaTurnos{{Codigo: "R0001", Patron: patron}},
	)
	require.NoError(t, err)

	grupoID := int64(10)
	nomina := int64(101)
	ingreso := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	almacen := &almacenMemoria{
		empleados: map[int64]*domain.User{
			1: {ID: 1, FullName: "Laura Mendoza", Email: "laura@planta.mx", Nomina: &nomina, GrupoID: &grupoID, FechaIngreso: &ingreso},
		},
		grupos: map[int64]*domain.GrupoTrabajo{
			grupoID: {ID: grupoID, AreaID: 3, Nombre: "R0001_01", ReglaCodigo: "R0001", NumeroGrupo: 1},
		},
		saldos: map[int64]*domain.SaldoVacaciones{
			1: {EmpleadoID: 1, Anio: 2025, DiasEmpresa: 12, DiasAutomaticos: 4, DiasProgramables: 4},
		},
		vacaciones: make(map[string]*domain.VacacionAsignada),
		totalGrupo: 20,
		umbrales: ausencias.Umbrales{
			Maximo: decimal.NewFromInt(20),
			Aviso:  decimal.NewFromInt(4),
		},
	}

	inicio := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)
	almacen.bloque = &bloques.BloqueConAsignaciones{
		Bloque: &domain.BloqueReservacion{ID: 1, GrupoID: grupoID, Numero: 1, Inicio: inicio, Fin: inicio.Add(48 * time.Hour), Estado: domain.BloqueAprobado},
		Asignaciones: []*domain.AsignacionBloque{
			{ID: 11, BloqueID: 1, EmpleadoID: 1, Posicion: 1, Estado: domain.AsignacionAsignada},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &publicadorMemoria{}
	s := NuevoServicio(almacen, reg, ausencias.NuevoValidador(almacen, logger), pub, logger, 48*time.Hour)
	s.ahora = func() time.Time { return inicio.Add(time.Hour) }
	return s, almacen, pub
}

// Viernes 2025-10-10: día laborable del patrón.
var fechaLaborable = time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)

func TestSeleccionarDia(t *testing.T) {
	s, almacen, pub := escenario(t)

	res, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	require.NoError(t, err)
	assert.Equal(t, domain.VacacionAnual, res.Vacacion.Tipo)
	assert.Equal(t, domain.OrigenEmpleado, res.Vacacion.Origen)
	assert.Equal(t, 1, almacen.saldos[1].ConsumidoAnual)

	require.Len(t, pub.eventos, 1)
	assert.Equal(t, domain.EventoDiaAsignado, pub.eventos[0].Tipo)
	assert.Equal(t, "laura@planta.mx", pub.eventos[0].Destinatario)
}

func TestSeleccionarDiaEnDescanso(t *testing.T) {
	s, _, _ := escenario(t)

	sabado := time.Date(2025, 10, 11, 0, 0, 0, 0, time.UTC)
	_, err := s.SeleccionarDia(context.Background(), 1, sabado)
	assert.ErrorIs(t, err, domain.ErrDiaNoSeleccionable)
}

func TestSeleccionarDiaSinSaldo(t *testing.T) {
	s, almacen, _ := escenario(t)
	almacen.saldos[1].ConsumidoAnual = almacen.saldos[1].DiasProgramables

	_, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	assert.ErrorIs(t, err, domain.ErrSinSaldoProgramable)
}

func TestSeleccionarDiaFueraDeTurno(t *testing.T) {
	s, almacen, _ := escenario(t)

	// Un par con posición menor sigue pendiente.
	almacen.bloque.Asignaciones[0].Posicion = 2
	almacen.bloque.Asignaciones = append([]*domain.AsignacionBloque{
		{ID: 10, BloqueID: 1, EmpleadoID: 2, Posicion: 1, Estado: domain.AsignacionAsignada},
	}, almacen.bloque.Asignaciones...)

	_, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	assert.ErrorIs(t, err, domain.ErrFueraDeTurno)
}

func TestSeleccionarDiaTechoDeAusencia(t *testing.T) {
	s, almacen, _ := escenario(t)

	// 4 de 20 ya ausentes: la siguiente proyecta 25% y se rechaza.
	almacen.ausentesExternos = 4
	_, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	assert.ErrorIs(t, err, domain.ErrLimiteAusencia)

	// Con 3 ausentes la cuarta cae exactamente en el techo y pasa, con aviso.
	almacen.ausentesExternos = 3
	res, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	require.NoError(t, err)
	assert.True(t, res.Advertencia)
}

func TestSeleccionarDiaReintentaUnaVezElConflicto(t *testing.T) {
	s, almacen, _ := escenario(t)
	almacen.conflictosRestantes = 1

	_, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	require.NoError(t, err)
	assert.Equal(t, 2, almacen.llamadasReservar)

	// Dos conflictos seguidos agotan el reintento y el error sube.
	almacen.conflictosRestantes = 2
	almacen.llamadasReservar = 0
	otra := fechaLaborable.AddDate(0, 0, -1)
	_, err = s.SeleccionarDia(context.Background(), 1, otra)
	assert.ErrorIs(t, err, domain.ErrConflictoConcurrencia)
	assert.Equal(t, 2, almacen.llamadasReservar)
}

func TestSeleccionarYCancelarRestauraElSaldo(t *testing.T) {
	s, almacen, pub := escenario(t)

	antes := almacen.saldos[1].ProgramablesRestantes()
	_, err := s.SeleccionarDia(context.Background(), 1, fechaLaborable)
	require.NoError(t, err)
	require.Equal(t, antes-1, almacen.saldos[1].ProgramablesRestantes())

	require.NoError(t, s.CancelarDia(context.Background(), 1, fechaLaborable))
	assert.Equal(t, antes, almacen.saldos[1].ProgramablesRestantes())

	require.Len(t, pub.eventos, 2)
	assert.Equal(t, domain.EventoDiaCancelado, pub.eventos[1].Tipo)
}

func TestCancelarDiaNoElegidoPorElEmpleado(t *testing.T) {
	s, _, _ := escenario(t)
	err := s.CancelarDia(context.Background(), 1, fechaLaborable)
	assert.ErrorIs(t, err, domain.ErrDiaNoRemovible)
}

func TestCompletarReservacion(t *testing.T) {
	s, almacen, _ := escenario(t)

	require.NoError(t, s.CompletarReservacion(context.Background(), 1, 2025))
	assert.Equal(t, []int64{11}, almacen.completadas)
	assert.Equal(t, domain.AsignacionReservada, almacen.bloque.Asignaciones[0].Estado)

	// Repetirlo es inocuo.
	require.NoError(t, s.CompletarReservacion(context.Background(), 1, 2025))
	assert.Len(t, almacen.completadas, 1)
}

func TestEstado(t *testing.T) {
	s, almacen, _ := escenario(t)

	estado, err := s.Estado(context.Background(), 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservaTurnoActual, estado)

	almacen.bloque = nil
	estado, err = s.Estado(context.Background(), 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservaCerrado, estado)
}
