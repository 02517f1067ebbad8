package reprogramacion

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

type almacenRepro struct {
	empleado    *domain.User
	grupo       *domain.GrupoTrabajo
	vacaciones  map[int64]*domain.VacacionAsignada
	solicitudes map[int64]*domain.SolicitudReprogramacion

	totalGrupo          int
	ausentes            int
	conflictosRestantes int
	aprobaciones        int
}

func (a *almacenRepro) Empleado(_ context.Context, _ int64) (*domain.User, error) {
	return a.empleado, nil
}

func (a *almacenRepro) Grupo(_ context.Context, _ int64) (*domain.GrupoTrabajo, error) {
	return a.grupo, nil
}

func (a *almacenRepro) Vacacion(_ context.Context, id int64) (*domain.VacacionAsignada, error) {
	return a.vacaciones[id], nil
}

func (a *almacenRepro) VacacionActivaEn(_ context.Context, empleadoID int64, fecha time.Time) (*domain.VacacionAsignada, error) {
	for _, v := range a.vacaciones {
		if v.EmpleadoID == empleadoID && v.Fecha.Equal(fecha) && v.Estado == domain.VacacionActiva {
			return v, nil
		}
	}
	return nil, nil
}

func (a *almacenRepro) CrearSolicitud(_ context.Context, s *domain.SolicitudReprogramacion) error {
	s.ID = int64(len(a.solicitudes) + 1)
	a.solicitudes[s.ID] = s
	return nil
}

func (a *almacenRepro) Solicitud(_ context.Context, id int64) (*domain.SolicitudReprogramacion, error) {
	return a.solicitudes[id], nil
}

func (a *almacenRepro) AprobarSolicitud(_ context.Context, orden OrdenAprobacion) error {
	a.aprobaciones++
	if a.conflictosRestantes > 0 {
		a.conflictosRestantes--
		return domain.ErrConflictoConcurrencia
	}
	s := a.solicitudes[orden.SolicitudID]
	vieja := a.vacaciones[s.VacacionOriginalID]
	vieja.Estado = domain.VacacionCancelada
	nueva := &domain.VacacionAsignada{
		ID:         int64(len(a.vacaciones) + 100),
		EmpleadoID: s.EmpleadoID,
		Fecha:      s.FechaNueva,
		Tipo:       domain.VacacionReprogramacion,
		Origen:     domain.OrigenEmpleado,
		Estado:     domain.VacacionActiva,
	}
	a.vacaciones[nueva.ID] = nueva
	s.Estado = domain.SolicitudAprobada
	s.ResueltaPor = &orden.ResueltaPor
	return nil
}

func (a *almacenRepro) RechazarSolicitud(_ context.Context, solicitudID, resueltaPor int64, motivo string) error {
	s := a.solicitudes[solicitudID]
	s.Estado = domain.SolicitudRechazada
	s.MotivoRechazo = motivo
	s.ResueltaPor = &resueltaPor
	return nil
}

func (a *almacenRepro) ConteoAusencias(_ context.Context, _ int64, _ time.Time, _ int64) (ausencias.Conteo, error) {
	return ausencias.Conteo{TotalEmpleados: a.totalGrupo, Ausentes: a.ausentes}, nil
}

func (a *almacenRepro) UmbralesPara(_ context.Context, _ int64, _ time.Time) (ausencias.Umbrales, error) {
	return ausencias.Umbrales{Maximo: decimal.NewFromInt(20), Aviso: decimal.NewFromInt(4)}, nil
}

type publicadorRepro struct {
	eventos []*domain.Evento
}

func (p *publicadorRepro) Publicar(_ context.Context, e *domain.Evento) error {
	p.eventos = append(p.eventos, e)
	return nil
}

var (
	fechaOriginal = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)  // lunes
	fechaNueva    = time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC) // lunes
)

func escenario(t *testing.T) (*Servicio, *almacenRepro, *publicadorRepro) {
	t.Helper()

	reg, err := turnos.NuevoRegistro(
		time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), // lunes
		[]*domain.ReglaTurnos{{Codigo: "R0001", Patron: []string{"1", "1", "1", "1", "1", "D", "D"}}},
	)
	require.NoError(t, err)

	grupoID := int64(10)
	almacen := &almacenRepro{
		empleado: &domain.User{ID: 1, FullName: "Laura Mendoza", Email: "laura@planta.mx", GrupoID: &grupoID},
		grupo:    &domain.GrupoTrabajo{ID: grupoID, AreaID: 3, Nombre: "R0001_01", ReglaCodigo: "R0001", NumeroGrupo: 1},
		vacaciones: map[int64]*domain.VacacionAsignada{
			50: {ID: 50, EmpleadoID: 1, Fecha: fechaOriginal, Tipo: domain.VacacionAnual, Origen: domain.OrigenEmpleado, Estado: domain.VacacionActiva},
		},
		solicitudes: make(map[int64]*domain.SolicitudReprogramacion),
		totalGrupo:  20,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &publicadorRepro{}
	return NuevoServicio(almacen, reg, ausencias.NuevoValidador(almacen, logger), pub, logger), almacen, pub
}

func TestSolicitar(t *testing.T) {
	s, almacen, _ := escenario(t)

	solicitud, err := s.Solicitar(context.Background(), 1, 50, fechaNueva, "compromiso familiar")
	require.NoError(t, err)
	assert.Equal(t, domain.SolicitudSolicitada, solicitud.Estado)
	assert.Equal(t, fechaOriginal, solicitud.FechaOriginal)
	assert.False(t, solicitud.PorcentajeCalculado.IsZero())

	// La solicitud no toca el calendario.
	assert.Equal(t, domain.VacacionActiva, almacen.vacaciones[50].Estado)
}

func TestSolicitarRechazosDeNegocio(t *testing.T) {
	s, almacen, _ := escenario(t)

	// Fecha destino en descanso.
	sabado := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)
	_, err := s.Solicitar(context.Background(), 1, 50, sabado, "")
	assert.ErrorIs(t, err, domain.ErrDiaNoSeleccionable)

	// Fecha destino ya comprometida.
	almacen.vacaciones[51] = &domain.VacacionAsignada{
		ID: 51, EmpleadoID: 1, Fecha: fechaNueva, Tipo: domain.VacacionAnual, Origen: domain.OrigenEmpleado, Estado: domain.VacacionActiva,
	}
	_, err = s.Solicitar(context.Background(), 1, 50, fechaNueva, "")
	assert.ErrorIs(t, err, domain.ErrDiaYaAsignado)
	delete(almacen.vacaciones, 51)

	// Grupo saturado en la fecha destino.
	almacen.ausentes = 4
	_, err = s.Solicitar(context.Background(), 1, 50, fechaNueva, "")
	assert.ErrorIs(t, err, domain.ErrLimiteAusencia)

	// Vacación de otro empleado.
	almacen.ausentes = 0
	almacen.vacaciones[60] = &domain.VacacionAsignada{
		ID: 60, EmpleadoID: 2, Fecha: fechaOriginal.AddDate(0, 0, 1), Estado: domain.VacacionActiva,
	}
	_, err = s.Solicitar(context.Background(), 1, 60, fechaNueva, "")
	assert.Error(t, err)
}

func TestAprobarIntercambiaAtomicamente(t *testing.T) {
	s, almacen, pub := escenario(t)

	solicitud, err := s.Solicitar(context.Background(), 1, 50, fechaNueva, "compromiso familiar")
	require.NoError(t, err)

	require.NoError(t, s.Aprobar(context.Background(), solicitud.ID, 99))

	assert.Equal(t, domain.SolicitudAprobada, solicitud.Estado)
	assert.Equal(t, domain.VacacionCancelada, almacen.vacaciones[50].Estado)

	nueva, err := almacen.VacacionActivaEn(context.Background(), 1, fechaNueva)
	require.NoError(t, err)
	require.NotNil(t, nueva)
	assert.Equal(t, domain.VacacionReprogramacion, nueva.Tipo)

	require.Len(t, pub.eventos, 1)
	assert.Equal(t, domain.EventoReprogramacionResuelta, pub.eventos[0].Tipo)

	// Una solicitud resuelta no se vuelve a decidir.
	assert.ErrorIs(t, s.Aprobar(context.Background(), solicitud.ID, 99), domain.ErrSolicitudResuelta)
	assert.ErrorIs(t, s.Rechazar(context.Background(), solicitud.ID, 99, "tarde"), domain.ErrSolicitudResuelta)
}

func TestAprobarReintentaElConflicto(t *testing.T) {
	s, almacen, _ := escenario(t)

	solicitud, err := s.Solicitar(context.Background(), 1, 50, fechaNueva, "")
	require.NoError(t, err)

	almacen.conflictosRestantes = 1
	require.NoError(t, s.Aprobar(context.Background(), solicitud.ID, 99))
	assert.Equal(t, 2, almacen.aprobaciones)
	assert.Equal(t, domain.SolicitudAprobada, solicitud.Estado)
}

func TestRechazar(t *testing.T) {
	s, almacen, pub := escenario(t)

	solicitud, err := s.Solicitar(context.Background(), 1, 50, fechaNueva, "")
	require.NoError(t, err)

	assert.Error(t, s.Rechazar(context.Background(), solicitud.ID, 99, "")) // motivo obligatorio

	require.NoError(t, s.Rechazar(context.Background(), solicitud.ID, 99, "cobertura insuficiente"))
	assert.Equal(t, domain.SolicitudRechazada, solicitud.Estado)
	assert.Equal(t, "cobertura insuficiente", solicitud.MotivoRechazo)

	// El calendario queda intacto.
	assert.Equal(t, domain.VacacionActiva, almacen.vacaciones[50].Estado)
	require.Len(t, pub.eventos, 1)
}
