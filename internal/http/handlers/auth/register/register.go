// Package register реализует HTTP-обработчик регистрации.
//
// Handler декодирует JSON, передаёт данные в сервис аутентификации и
// возвращает учётную запись вместе с токеном. Валидация полей выполняется сервисом.
package register

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
}

// Handler обрабатывает запросы регистрации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Регистрация
// @Description Создаёт учётную запись; для роли student также профиль студента. Возвращает токен.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body auth.RegisterInput true "Данные регистрации"
// @Success 201 {object} response.Response "Registration successful"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req auth.RegisterInput
	if err := response.Decode(r, &req); err != nil {
		log.Info("failed to decode request body", slog.String("error", err.Error()))
		response.Fail(w, r, log, err)
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("account registered", slog.String("account_id", session.Account.ID))
	response.OK(w, r, http.StatusCreated, response.MsgRegistered, session)
}
