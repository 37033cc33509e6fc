// Package studentrecords собирает HTTP API учёта студентов: выбирает хранилище,
// подключает необязательные Redis и RabbitMQ, создаёт сервисы и запускает
// HTTP-сервер вместе с gRPC-сервисом проверки здоровья.
package studentrecords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	_ "github.com/magabrotheeeer/student-records/docs" // регистрирует swagger-спецификацию
	"github.com/magabrotheeeer/student-records/internal/cache"
	"github.com/magabrotheeeer/student-records/internal/config"
	"github.com/magabrotheeeer/student-records/internal/events"
	healthgrpc "github.com/magabrotheeeer/student-records/internal/grpc/health"
	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/migrations"
	authservice "github.com/magabrotheeeer/student-records/internal/services/auth"
	studentservice "github.com/magabrotheeeer/student-records/internal/services/students"
	"github.com/magabrotheeeer/student-records/internal/storage"
	"github.com/magabrotheeeer/student-records/internal/storage/mongostore"
	"github.com/magabrotheeeer/student-records/internal/storage/postgresql"
)

const healthCheckInterval = 10 * time.Second

// App: собранное приложение.
type App struct {
	server *http.Server
	health *healthgrpc.Server
	cfg    *config.Config
	logger *slog.Logger

	store     storage.Store
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
}

// New создаёт все зависимости по конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.studentrecords.New"

	store, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{cfg: cfg, logger: logger, store: store}

	if cfg.RedisConnection.Address != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		logger.Info("redis is not configured, stats cache and token revocation are disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		app.amqpConn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(app.amqpConn, cfg.RabbitMQ.Exchange, rabbitmq.StudentNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
	} else {
		logger.Info("rabbitmq is not configured, lifecycle events are disabled")
	}

	handler := app.router(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	if cfg.GRPCHealthAddress != "" {
		app.health = healthgrpc.New(logger, store, healthCheckInterval)
	}
	return app, nil
}

// router связывает сервисы с необязательными зависимостями и строит маршруты.
func (a *App) router(reg prometheus.Registerer, gatherer prometheus.Gatherer) http.Handler {
	var publisher events.MessagePublisher
	if a.publisher != nil {
		publisher = a.publisher
	}
	bus := events.NewBus(publisher, a.logger)

	maker := jwt.NewJWTMaker(a.cfg.JWTToken.SecretKey, a.cfg.JWTToken.TokenTTL, a.cfg.JWTToken.Issuer)
	metrics := middlewarectx.NewMetrics(reg)

	authOpts := []authservice.Option{authservice.WithEvents(bus)}
	studentOpts := []studentservice.Option{studentservice.WithEvents(bus)}
	authnOpts := []middlewarectx.AuthOption{middlewarectx.WithFailureRecorder(metrics)}
	if a.cache != nil {
		authOpts = append(authOpts, authservice.WithStatsCache(a.cache))
		studentOpts = append(studentOpts, studentservice.WithCache(a.cache, a.cfg.Cache.StatsTTL))
		if a.cfg.JWTToken.RevokeOnLogout {
			authOpts = append(authOpts, authservice.WithRevoker(a.cache))
			authnOpts = append(authnOpts, middlewarectx.WithRevocation(a.cache))
		}
	}

	return NewRouter(Routes{
		Log:           a.logger,
		Auth:          authservice.New(a.logger, a.store, maker, authOpts...),
		Students:      studentservice.New(a.logger, a.store, studentOpts...),
		Authenticator: middlewarectx.NewAuthenticator(a.logger, maker, a.store, authnOpts...),
		Metrics:       metrics,
		Gatherer:      gatherer,
		AuthRateLimit: a.cfg.HTTPServer.AuthRateLimit,
	})
}

// OpenStore подключает хранилище, выбранное в конфигурации. Для PostgreSQL
// также применяются миграции.
func OpenStore(ctx context.Context, cfg config.Storage, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		logger.Info("using mongodb storage", slog.String("database", cfg.MongoDatabase))
		return mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverPostgres:
		logger.Info("using postgresql storage")
		db, err := postgresql.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Run обслуживает запросы до отмены ctx и корректно останавливает серверы.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
			err := a.server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				errCh <- nil
			} else {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			a.logger.Info("shutting down HTTP server gracefully")
			return a.server.Shutdown(timeoutCtx)
		}
	})

	if a.health != nil {
		g.Go(func() error {
			return a.health.Run(ctx, a.cfg.GRPCHealthAddress)
		})
	}

	err := g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close storage", sl.Err(err))
		}
	}
}
