// Package self реализует просмотр и изменение студентом собственного профиля.
// Профиль определяется по учётной записи из токена, id в пути не передаётся.
package self

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/students"
)

// Service описывает операции студента над своим профилем.
type Service interface {
	GetByAccount(ctx context.Context, accountID string) (*models.Profile, error)
	UpdateSelf(ctx context.Context, accountID string, in students.SelfUpdateInput) (*models.Profile, error)
}

// Handler обслуживает GET и PUT /students/profile.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Get godoc
// @Summary Мой профиль студента
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "Operation successful"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Router /students/profile [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.students.self.Get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	account, ok := middlewarectx.AccountFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrUnauthorized)
		return
	}

	profile, err := h.service.GetByAccount(r.Context(), account.ID)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgOK, profile)
}

// Update godoc
// @Summary Изменение моего профиля студента
// @Description Допустимы name, email, course, enrollmentDate. Флаг активности студент менять не может.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body students.SelfUpdateInput true "Изменяемые поля"
// @Success 200 {object} response.Response "Student updated successfully"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Router /students/profile [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.students.self.Update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	account, ok := middlewarectx.AccountFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrUnauthorized)
		return
	}

	var req students.SelfUpdateInput
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	profile, err := h.service.UpdateSelf(r.Context(), account.ID, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgStudentUpdated, profile)
}
