// Package scheduler corre el barrido periódico de estados de bloques: completa
// bloques vencidos, cierra asignaciones reservadas y transfiere al bloque cola
// a quienes no respondieron. El cálculo del plan es puro (paquete bloques);
// aquí se orquesta su lectura, aplicación y notificación.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

type Almacen interface {
	// GruposConCicloVigente devuelve grupo -> año objetivo de los ciclos con
	// bloques abiertos.
	GruposConCicloVigente(ctx context.Context) (map[int64]int, error)
	BloquesDelGrupo(ctx context.Context, grupoID int64, anio int) ([]*bloques.BloqueConAsignaciones, error)
	AplicarPlan(ctx context.Context, colaID int64, plan bloques.PlanActualizacion) error
	Empleado(ctx context.Context, id int64) (*domain.User, error)
}

type Barrido struct {
	almacen    Almacen
	publicador domain.Publicador
	logger     *slog.Logger
	ahora      func() time.Time
}

func NuevoBarrido(almacen Almacen, publicador domain.Publicador, logger *slog.Logger) *Barrido {
	return &Barrido{
		almacen:    almacen,
		publicador: publicador,
		logger:     logger,
		ahora:      time.Now,
	}
}

// Ejecutar corre un barrido completo sobre todos los grupos con ciclo abierto
// y devuelve cuántos grupos tuvieron cambios.
func (b *Barrido) Ejecutar(ctx context.Context) (int, error) {
	grupos, err := b.almacen.GruposConCicloVigente(ctx)
	if err != nil {
		return 0, fmt.Errorf("consultar ciclos vigentes: %w", err)
	}

	cambiados := 0
	for grupoID, anio := range grupos {
		cambio, err := b.barrerGrupo(ctx, grupoID, anio)
		if err != nil {
			// un grupo con error no detiene el barrido de los demás
			b.logger.Error("barrido de grupo falló",
				slog.Int64("grupoID", grupoID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if cambio {
			cambiados++
		}
	}
	return cambiados, nil
}

func (b *Barrido) barrerGrupo(ctx context.Context, grupoID int64, anio int) (bool, error) {
	ciclo, err := b.almacen.BloquesDelGrupo(ctx, grupoID, anio)
	if err != nil {
		return false, err
	}

	plan := bloques.PlanearActualizacion(ciclo, b.ahora())
	if plan.Vacio() {
		return false, nil
	}

	var colaID int64
	for _, bc := range ciclo {
		if bc.Bloque.EsBloqueCola && bc.Bloque.Estado != domain.BloqueCompletado {
			colaID = bc.Bloque.ID
			break
		}
	}

	if err := b.almacen.AplicarPlan(ctx, colaID, plan); err != nil {
		return false, err
	}

	b.logger.Info("barrido aplicado",
		slog.Int64("grupoID", grupoID),
		slog.Int("bloquesCompletados", len(plan.BloquesCompletados)),
		slog.Int("transferencias", len(plan.Transferencias)),
		slog.Int("sinRespuesta", len(plan.SinRespuesta)),
	)

	for _, t := range plan.Transferencias {
		b.notificarTransferencia(ctx, t)
	}
	return true, nil
}

func (b *Barrido) notificarTransferencia(ctx context.Context, t bloques.Transferencia) {
	empleado, err := b.almacen.Empleado(ctx, t.EmpleadoID)
	if err != nil {
		b.logger.Error("no se pudo consultar al empleado transferido",
			slog.Int64("empleadoID", t.EmpleadoID),
			slog.String("error", err.Error()),
		)
		return
	}

	evento := domain.NuevoEvento(
		domain.EventoTransferenciaCola,
		empleado.ID,
		empleado.Email,
		empleado.FullName,
		"Turno de reservación transferido",
		fmt.Sprintf("Tu bloque de reservación %d venció sin respuesta; pasaste al bloque final con la posición %d.", t.BloqueOrigen, t.Posicion),
		nil,
	)
	if err := b.publicador.Publicar(ctx, evento); err != nil {
		b.logger.Error("no se pudo publicar el evento",
			slog.String("tipo", string(evento.Tipo)),
			slog.Int64("empleadoID", evento.EmpleadoID),
			slog.String("error", err.Error()),
		)
	}
}

// Iniciar corre el barrido cada intervalo hasta que el contexto se cancele.
func (b *Barrido) Iniciar(ctx context.Context, intervalo time.Duration) {
	ticker := time.NewTicker(intervalo)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Ejecutar(ctx); err != nil {
				b.logger.Error("barrido periódico falló", slog.String("error", err.Error()))
			}
		}
	}
}
