// Команда seed заполняет хранилище демонстрационными данными: одним администратором
// и тремя студентами. Уже существующие записи пропускаются.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/student-records/internal/app/studentrecords"
	"github.com/magabrotheeeer/student-records/internal/config"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
	authservice "github.com/magabrotheeeer/student-records/internal/services/auth"
)

var seedAccounts = []authservice.RegisterInput{
	{Name: "Admin User", Email: "admin@example.com", Password: "admin123", Role: models.RoleAdmin},
	{Name: "John Doe", Email: "john@example.com", Password: "student123", Role: models.RoleStudent, Course: "Computer Science"},
	{Name: "Jane Smith", Email: "jane@example.com", Password: "student123", Role: models.RoleStudent, Course: "Mathematics"},
	{Name: "Bob Johnson", Email: "bob@example.com", Password: "student123", Role: models.RoleStudent, Course: "Physics"},
}

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := studentrecords.OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	maker := jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.TokenTTL, cfg.JWTToken.Issuer)
	svc := authservice.New(logger, store, maker)

	if err := seed(ctx, logger, svc); err != nil {
		logger.Error("seeding failed", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("seeding completed")
}

func seed(ctx context.Context, log *slog.Logger, svc *authservice.Service) error {
	for _, in := range seedAccounts {
		in.ConfirmPassword = in.Password
		if _, err := svc.Register(ctx, in); err != nil {
			if errors.Is(err, apperr.ErrDuplicateEmail) {
				log.Info("already exists, skipping", slog.String("email", in.Email))
				continue
			}
			return err
		}
		log.Info("created", slog.String("email", in.Email), slog.String("role", string(in.Role)))
	}
	return nil
}
