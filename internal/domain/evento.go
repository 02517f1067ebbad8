package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TipoEvento string

const (
	EventoBloqueActivado         TipoEvento = "bloque_activado"
	EventoDiaAsignado            TipoEvento = "dia_asignado"
	EventoDiaCancelado           TipoEvento = "dia_cancelado"
	EventoReprogramacionResuelta TipoEvento = "reprogramacion_resuelta"
	EventoTransferenciaCola      TipoEvento = "transferencia_bloque_cola"
	EventoCodigoVerificacion     TipoEvento = "codigo_verificacion"
)

// Evento es una notificación de tipo "dispara y olvida". El núcleo solo la
// publica; la entrega (correo) corre por cuenta del worker de notificaciones.
type Evento struct {
	ID         uuid.UUID  `json:"id"`
	Tipo       TipoEvento `json:"tipo"`
	EmpleadoID int64      `json:"empleadoID"`
	// Destinatario es el correo del empleado; el publicador lo resuelve para
	// que el worker no necesite acceso al directorio.
	Destinatario string    `json:"destinatario"`
	Nombre       string    `json:"nombre"`
	Titulo       string    `json:"titulo"`
	Mensaje      string    `json:"mensaje"`
	EmitidoEn    time.Time `json:"emitidoEn"`
	Datos        any       `json:"datos,omitempty"`
}

// Publicador entrega eventos al worker de notificaciones. La publicación es
// posterior al commit: si falla se registra y se sigue, nunca revierte la
// operación que la originó.
type Publicador interface {
	Publicar(ctx context.Context, evento *Evento) error
}

// NuevoEvento arma un evento con ID propio; el ID sirve también como llave de
// idempotencia para el consumidor.
func NuevoEvento(tipo TipoEvento, empleadoID int64, destinatario, nombre, titulo, mensaje string, datos any) *Evento {
	return &Evento{
		ID:           uuid.New(),
		Tipo:         tipo,
		EmpleadoID:   empleadoID,
		Destinatario: destinatario,
		Nombre:       nombre,
		Titulo:       titulo,
		Mensaje:      mensaje,
		EmitidoEn:    time.Now().UTC(),
		Datos:        datos,
	}
}
