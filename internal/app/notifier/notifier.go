// Package notifier собирает рассыльщик писем: читает события студентов из RabbitMQ
// и отправляет письма через SMTP.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/student-records/internal/config"
	"github.com/magabrotheeeer/student-records/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/student-records/internal/services/notifier"
)

// App: процесс рассыльщика.
type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *notifierservice.Service
	logger  *slog.Logger
}

// New подключается к брокеру и объявляет очереди уведомлений.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is not configured", op)
	}
	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("%s: smtp host is not configured", op)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.StudentNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:    conn,
		ch:      ch,
		service: notifierservice.New(logger, transport),
		logger:  logger,
	}, nil
}

// handlers сопоставляет ключам маршрутизации обработчики.
func (a *App) handlers() map[string]func([]byte) error {
	return map[string]func([]byte) error{
		rabbitmq.RoutingStudentRegistered: a.service.HandleRegistered,
		rabbitmq.RoutingStudentCreated:    a.service.HandleCreated,
	}
}

// Run читает очереди до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	handlers := a.handlers()
	for _, q := range rabbitmq.StudentNotificationQueues() {
		handler, ok := handlers[q.RoutingKey]
		if !ok {
			continue
		}
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
		a.logger.Info("consuming", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
