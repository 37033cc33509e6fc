// Package login реализует HTTP-обработчик входа по email и паролю.
package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, in auth.LoginInput) (*auth.Session, error)
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вход
// @Description Проверяет email и пароль, возвращает учётную запись и токен.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body auth.LoginInput true "Учётные данные"
// @Success 200 {object} response.Response "Login successful"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req auth.LoginInput
	if err := response.Decode(r, &req); err != nil {
		log.Info("failed to decode request body", slog.String("error", err.Error()))
		response.Fail(w, r, log, err)
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("login succeeded", slog.String("account_id", session.Account.ID))
	response.OK(w, r, http.StatusOK, response.MsgLoggedIn, session)
}
