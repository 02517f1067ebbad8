package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

type almacenMemoria struct {
	grupos    map[int64]int
	ciclos    map[int64][]*bloques.BloqueConAsignaciones
	empleados map[int64]*domain.User

	planesAplicados []bloques.PlanActualizacion
	colasUsadas     []int64
	fallaGrupo      int64 // barrerGrupo de este grupo devuelve error
}

func (m *almacenMemoria) GruposConCicloVigente(_ context.Context) (map[int64]int, error) {
	return m.grupos, nil
}

func (m *almacenMemoria) BloquesDelGrupo(_ context.Context, grupoID int64, _ int) ([]*bloques.BloqueConAsignaciones, error) {
	if grupoID == m.fallaGrupo {
		return nil, errors.New("conexión perdida")
	}
	return m.ciclos[grupoID], nil
}

func (m *almacenMemoria) AplicarPlan(_ context.Context, colaID int64, plan bloques.PlanActualizacion) error {
	m.planesAplicados = append(m.planesAplicados, plan)
	m.colasUsadas = append(m.colasUsadas, colaID)
	return nil
}

func (m *almacenMemoria) Empleado(_ context.Context, id int64) (*domain.User, error) {
	e, ok := m.empleados[id]
	if !ok {
		return nil, errors.New("empleado no encontrado")
	}
	return e, nil
}

type publicadorMemoria struct {
	eventos []*domain.Evento
}

func (p *publicadorMemoria) Publicar(_ context.Context, e *domain.Evento) error {
	p.eventos = append(p.eventos, e)
	return nil
}

var ahora = time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

// cicloConVencido arma un ciclo de dos bloques: el primero vencido con un
// empleado sin responder y el bloque cola todavía abierto.
func cicloConVencido() []*bloques.BloqueConAsignaciones {
	return []*bloques.BloqueConAsignaciones{
		{
			Bloque: &domain.BloqueReservacion{
				ID: 1, GrupoID: 10, Numero: 1, Estado: domain.BloqueAprobado,
				Inicio: ahora.Add(-72 * time.Hour), Fin: ahora.Add(-24 * time.Hour),
			},
			Asignaciones: []*domain.AsignacionBloque{
				{ID: 11, BloqueID: 1, EmpleadoID: 1, Posicion: 1, Estado: domain.AsignacionReservada},
				{ID: 12, BloqueID: 1, EmpleadoID: 2, Posicion: 2, Estado: domain.AsignacionAsignada},
			},
		},
		{
			Bloque: &domain.BloqueReservacion{
				ID: 2, GrupoID: 10, Numero: 2, Estado: domain.BloqueAprobado, EsBloqueCola: true,
				Inicio: ahora.Add(24 * time.Hour), Fin: ahora.Add(72 * time.Hour),
			},
		},
	}
}

func nuevoBarridoPrueba(almacen *almacenMemoria) (*Barrido, *publicadorMemoria) {
	pub := &publicadorMemoria{}
	b := NuevoBarrido(almacen, pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.ahora = func() time.Time { return ahora }
	return b, pub
}

func TestEjecutarAplicaPlanYNotifica(t *testing.T) {
	almacen := &almacenMemoria{
		grupos: map[int64]int{10: 2026},
		ciclos: map[int64][]*bloques.BloqueConAsignaciones{10: cicloConVencido()},
		empleados: map[int64]*domain.User{
			2: {ID: 2, FullName: "Marco Rivas", Email: "marco@planta.mx"},
		},
	}
	b, pub := nuevoBarridoPrueba(almacen)

	cambiados, err := b.Ejecutar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cambiados)

	require.Len(t, almacen.planesAplicados, 1)
	plan := almacen.planesAplicados[0]
	assert.Equal(t, []int64{11}, plan.AsignacionesCompletadas)
	assert.Equal(t, []int64{1}, plan.BloquesCompletados)
	require.Len(t, plan.Transferencias, 1)
	assert.Equal(t, int64(2), plan.Transferencias[0].EmpleadoID)

	// El plan se aplica contra el bloque cola abierto.
	assert.Equal(t, []int64{2}, almacen.colasUsadas)

	require.Len(t, pub.eventos, 1)
	assert.Equal(t, domain.EventoTransferenciaCola, pub.eventos[0].Tipo)
	assert.Equal(t, "marco@planta.mx", pub.eventos[0].Destinatario)
}

func TestEjecutarSinCambios(t *testing.T) {
	ciclo := cicloConVencido()
	ciclo[0].Bloque.Fin = ahora.Add(24 * time.Hour) // nada vencido todavía

	almacen := &almacenMemoria{
		grupos: map[int64]int{10: 2026},
		ciclos: map[int64][]*bloques.BloqueConAsignaciones{10: ciclo},
	}
	b, pub := nuevoBarridoPrueba(almacen)

	cambiados, err := b.Ejecutar(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cambiados)
	assert.Empty(t, almacen.planesAplicados)
	assert.Empty(t, pub.eventos)
}

func TestEjecutarSigueConLosDemasGrupos(t *testing.T) {
	almacen := &almacenMemoria{
		grupos: map[int64]int{10: 2026, 20: 2026},
		ciclos: map[int64][]*bloques.BloqueConAsignaciones{10: cicloConVencido()},
		empleados: map[int64]*domain.User{
			2: {ID: 2, FullName: "Marco Rivas", Email: "marco@planta.mx"},
		},
		fallaGrupo: 20,
	}
	b, _ := nuevoBarridoPrueba(almacen)

	cambiados, err := b.Ejecutar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cambiados)
}
