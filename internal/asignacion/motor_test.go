package asignacion

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

type almacenMotor struct {
	grupo    *domain.GrupoTrabajo
	saldo    *domain.SaldoVacaciones
	activos  int
	inhabiles map[time.Time]struct{}
	ocupadas map[time.Time]struct{}

	escritas []time.Time
	manuales []OrdenManual

	totalGrupo int
	// ausentesPorFecha permite saturar fechas concretas; el resto usa cero.
	ausentesPorFecha map[time.Time]int
	ausentesSiempre  int
}

func (a *almacenMotor) Grupo(_ context.Context, _ int64) (*domain.GrupoTrabajo, error) {
	return a.grupo, nil
}

func (a *almacenMotor) Saldo(_ context.Context, _ int64, _ int) (*domain.SaldoVacaciones, error) {
	return a.saldo, nil
}

func (a *almacenMotor) DiasAutomaticosActivos(_ context.Context, _ int64, _ int) (int, error) {
	return a.activos, nil
}

func (a *almacenMotor) DiasInhabiles(_ context.Context, _ int) (map[time.Time]struct{}, error) {
	if a.inhabiles == nil {
		return map[time.Time]struct{}{}, nil
	}
	return a.inhabiles, nil
}

func (a *almacenMotor) FechasAsignadas(_ context.Context, _ int64, _ int) (map[time.Time]struct{}, error) {
	if a.ocupadas == nil {
		a.ocupadas = map[time.Time]struct{}{}
	}
	return a.ocupadas, nil
}

func (a *almacenMotor) AsignarDiaAutomatico(_ context.Context, orden OrdenAutomatica) (*domain.VacacionAsignada, error) {
	a.escritas = append(a.escritas, orden.Fecha)
	return &domain.VacacionAsignada{
		EmpleadoID: orden.EmpleadoID,
		Fecha:      orden.Fecha,
		Tipo:       domain.VacacionAutomatica,
		Origen:     domain.OrigenSistema,
		Estado:     domain.VacacionActiva,
	}, nil
}

func (a *almacenMotor) AsignarDiaManual(_ context.Context, orden OrdenManual) (*domain.VacacionAsignada, error) {
	a.manuales = append(a.manuales, orden)
	return &domain.VacacionAsignada{
		EmpleadoID: orden.EmpleadoID,
		Fecha:      orden.Fecha,
		Tipo:       orden.Tipo,
		Origen:     domain.OrigenManual,
		Estado:     domain.VacacionActiva,
	}, nil
}

func (a *almacenMotor) ConteoAusencias(_ context.Context, _ int64, fecha time.Time, _ int64) (ausencias.Conteo, error) {
	ausentes := a.ausentesSiempre
	if n, ok := a.ausentesPorFecha[fecha]; ok {
		ausentes = n
	}
	return ausencias.Conteo{TotalEmpleados: a.totalGrupo, Ausentes: ausentes}, nil
}

func (a *almacenMotor) UmbralesPara(_ context.Context, _ int64, _ time.Time) (ausencias.Umbrales, error) {
	return ausencias.Umbrales{Maximo: decimal.NewFromInt(20), Aviso: decimal.NewFromInt(4)}, nil
}

func motorDePrueba(t *testing.T, almacen *almacenMotor) *Motor {
	t.Helper()
	// Lunes a viernes laborable, fin de semana en descanso.
	reg, err := turnos.NuevoRegistro(
		time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		[]*domain.ReglaTurnos{{Codigo: "R0001", Patron: []string{"1", "1", "1", "1", "1", "D", "D"}}},
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NuevoMotor(almacen, reg, ausencias.NuevoValidador(almacen, logger), logger, []int{51, 52, 1, 2}, 5)
}

func almacenBase() *almacenMotor {
	grupoID := int64(10)
	return &almacenMotor{
		grupo:      &domain.GrupoTrabajo{ID: grupoID, AreaID: 3, Nombre: "R0001_01", ReglaCodigo: "R0001", NumeroGrupo: 1},
		saldo:      &domain.SaldoVacaciones{EmpleadoID: 1, Anio: 2026, DiasAutomaticos: 4, DiasProgramables: 4},
		totalGrupo: 20,
	}
}

func empleadoDePrueba() *domain.User {
	grupoID := int64(10)
	return &domain.User{ID: 1, GrupoID: &grupoID}
}

func fecha(anio int, mes time.Month, dia int) time.Time {
	return time.Date(anio, mes, dia, 0, 0, 0, 0, time.UTC)
}

func TestAsignarEmpleadoRepartidoYDeterminista(t *testing.T) {
	esperadas := []time.Time{
		// El arranque de enero cae en semanas excluidas (1 y 2); el primer
		// candidato viable es el lunes de la semana 3.
		fecha(2026, time.January, 12),
		fecha(2026, time.April, 2),
		fecha(2026, time.July, 2),
		fecha(2026, time.October, 1),
	}

	for corrida := 0; corrida < 2; corrida++ {
		almacen := almacenBase()
		motor := motorDePrueba(t, almacen)

		res, err := motor.AsignarEmpleado(context.Background(), empleadoDePrueba(), 2026)
		require.NoError(t, err)
		assert.Equal(t, 4, res.DiasPorAsignar)
		assert.Equal(t, esperadas, res.FechasAsignadas, "corrida %d", corrida)
		assert.Equal(t, esperadas, almacen.escritas)
	}
}

func TestAsignarEmpleadoEsIdempotente(t *testing.T) {
	almacen := almacenBase()
	almacen.activos = 4
	motor := motorDePrueba(t, almacen)

	res, err := motor.AsignarEmpleado(context.Background(), empleadoDePrueba(), 2026)
	require.NoError(t, err)
	assert.Empty(t, res.FechasAsignadas)
	assert.Empty(t, almacen.escritas)
	assert.NotEmpty(t, res.Motivo)
}

func TestAsignarEmpleadoRespetaElTopeDeDias(t *testing.T) {
	almacen := almacenBase()
	almacen.saldo.DiasAutomaticos = 9
	motor := motorDePrueba(t, almacen)

	res, err := motor.AsignarEmpleado(context.Background(), empleadoDePrueba(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 5, res.DiasPorAsignar)
	assert.Len(t, res.FechasAsignadas, 5)
}

func TestAsignarEmpleadoSaltaFechasSaturadas(t *testing.T) {
	almacen := almacenBase()
	// El 2 de abril está al tope: el motor debe avanzar al siguiente
	// candidato en vez de fallar.
	almacen.ausentesPorFecha = map[time.Time]int{fecha(2026, time.April, 2): 4}
	motor := motorDePrueba(t, almacen)

	res, err := motor.AsignarEmpleado(context.Background(), empleadoDePrueba(), 2026)
	require.NoError(t, err)
	assert.Contains(t, res.FechasAsignadas, fecha(2026, time.April, 3))
	assert.NotContains(t, res.FechasAsignadas, fecha(2026, time.April, 2))
}

func TestAsignarEmpleadoCupoInsatisfecho(t *testing.T) {
	almacen := almacenBase()
	almacen.ausentesSiempre = 5 // todo el año por encima del techo
	motor := motorDePrueba(t, almacen)

	res, err := motor.AsignarEmpleado(context.Background(), empleadoDePrueba(), 2026)
	assert.ErrorIs(t, err, domain.ErrCupoAutomaticoInsatisfecho)
	assert.Empty(t, res.FechasAsignadas)
	assert.Empty(t, almacen.escritas)
}

func TestAsignarEmpleadoSinDiasAutomaticos(t *testing.T) {
	almacen := almacenBase()
	almacen.saldo.DiasAutomaticos = 0
	motor := motorDePrueba(t, almacen)

	res, err := motor.AsignarEmpleado(context.Background(), empleadoDePrueba(), 2026)
	require.NoError(t, err)
	assert.Empty(t, res.FechasAsignadas)
	assert.NotEmpty(t, res.Motivo)
}

func TestSegmentosRepartenElAnio(t *testing.T) {
	arranques := Segmentos(2026, 4)
	require.Len(t, arranques, 4)
	assert.Equal(t, fecha(2026, time.January, 1), arranques[0])
	for i := 1; i < len(arranques); i++ {
		assert.True(t, arranques[i].After(arranques[i-1]))
		assert.Equal(t, 2026, arranques[i].Year())
	}
}

func TestAsignacionManual(t *testing.T) {
	almacen := almacenBase()
	// Grupo saturado: la vía manual debe pasar de todos modos.
	almacen.ausentesSiempre = 10
	motor := motorDePrueba(t, almacen)

	_, err := motor.AsignacionManual(context.Background(), OrdenManual{
		EmpleadoID: 1,
		OperadorID: 99,
		Fecha:      fecha(2026, time.May, 4),
	})
	assert.Error(t, err) // sin justificación no hay asignación manual

	vacacion, err := motor.AsignacionManual(context.Background(), OrdenManual{
		EmpleadoID:    1,
		OperadorID:    99,
		Fecha:         fecha(2026, time.May, 4),
		Justificacion: "permiso especial autorizado por RH",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrigenManual, vacacion.Origen)
	require.Len(t, almacen.manuales, 1)
	assert.Equal(t, int64(99), almacen.manuales[0].OperadorID)
}
