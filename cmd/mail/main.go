package main

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/config"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/eventos"
)

func main() {
	/**********************************************
	 * Logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * Configuración
	 **********************************************/
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("no se pudo cargar la configuración", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * Cliente de correo
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("no se pudo crear el cliente de correo", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("no se pudo conectar al servidor de correo", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * Plantilla de notificación
	 **********************************************/
	tmpl, err := template.ParseFiles("./templates/notificacion_email.html")
	if err != nil {
		logger.Error("no se pudo cargar la plantilla de correo", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("no se pudo conectar a rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("no se pudo abrir el canal", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		eventos.NombreCola,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("no se pudo declarar la cola", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("no se pudieron consumir mensajes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("evento recibido", slog.String("messageId", msg.MessageId))

				evento := domain.Evento{}
				if err := json.Unmarshal(msg.Body, &evento); err != nil {
					logger.Error("el evento no se pudo deserializar", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				correo := mail.NewMsg()
				if err := correo.From(cfg.Email.Sender); err != nil {
					logger.Error("no se pudo fijar el remitente", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := correo.To(evento.Destinatario); err != nil {
					logger.Error("no se pudo fijar el destinatario", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				correo.Subject("Vacaciones - " + evento.Titulo)
				if err := correo.SetBodyHTMLTemplate(tmpl, evento); err != nil {
					logger.Error("no se pudo armar el cuerpo del correo", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if err := client.DialAndSend(correo); err != nil {
					logger.Error("el correo no se pudo enviar", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // reencolar para reintentar
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("esperando eventos... (CTRL+C para salir)")
	<-sigChan

	slog.Info("apagando el worker de notificaciones...")
	cancel()
	wg.Wait()
	slog.Info("worker de notificaciones apagado")
}
