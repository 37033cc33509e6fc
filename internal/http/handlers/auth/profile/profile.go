// Package profile реализует просмотр и изменение профиля текущего пользователя.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/auth"
)

// Service описывает операции над профилем текущего пользователя.
type Service interface {
	GetProfile(ctx context.Context, accountID string) (*auth.ProfileView, error)
	UpdateProfile(ctx context.Context, accountID string, in auth.UpdateProfileInput) (*models.Account, error)
}

// Handler обслуживает GET и PUT /auth/profile.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Get godoc
// @Summary Профиль текущего пользователя
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "Operation successful"
// @Failure 401 {object} response.ErrorResponse "Нет или недействителен токен"
// @Failure 404 {object} response.ErrorResponse "Учётная запись не найдена"
// @Router /auth/profile [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile.Get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	account, ok := middlewarectx.AccountFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrUnauthorized)
		return
	}

	view, err := h.service.GetProfile(r.Context(), account.ID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgOK, view)
}

// Update godoc
// @Summary Изменение профиля текущего пользователя
// @Description Меняет name, email, а для студента также course и enrollmentDate. Пароль и роль не меняются.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body auth.UpdateProfileInput true "Изменяемые поля"
// @Success 200 {object} response.Response "User updated successfully"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Router /auth/profile [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile.Update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	account, ok := middlewarectx.AccountFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrUnauthorized)
		return
	}

	var req auth.UpdateProfileInput
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), account.ID, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("profile updated", slog.String("account_id", account.ID))
	response.OK(w, r, http.StatusOK, response.MsgUserUpdated, updated)
}
