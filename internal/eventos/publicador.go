// Package eventos publica las notificaciones del sistema en RabbitMQ. El
// worker de notificaciones las consume y entrega por correo.
package eventos

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

const NombreCola = "eventos_vacaciones"

type PublicadorAMQP struct {
	canal   *amqp.Channel
	timeout time.Duration
}

// NuevoPublicadorAMQP declara la cola de eventos y devuelve el publicador.
func NuevoPublicadorAMQP(cfg *config.Config, canal *amqp.Channel) (*PublicadorAMQP, error) {
	_, err := canal.QueueDeclare(
		NombreCola,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &PublicadorAMQP{
		canal:   canal,
		timeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	}, nil
}

func (p *PublicadorAMQP) Publicar(ctx context.Context, evento *domain.Evento) error {
	cuerpo, err := json.Marshal(evento)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.canal.PublishWithContext(
		ctx,
		"",
		NombreCola,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   evento.ID.String(),
			Body:        cuerpo,
		},
	)
}
