// Package update реализует изменение записи студента администратором.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/students"
)

// Service описывает изменение записи студента.
type Service interface {
	Update(ctx context.Context, id string, in students.AdminUpdateInput) (*models.Profile, error)
}

// Handler обрабатывает PUT /students/admin/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменение записи студента
// @Description Допустимы name, email, course, enrollmentDate, isActive. name и email переносятся в учётную запись.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID профиля"
// @Param request body students.AdminUpdateInput true "Изменяемые поля"
// @Success 200 {object} response.Response "Student updated successfully"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Студент не найден"
// @Router /students/admin/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.students.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req students.AdminUpdateInput
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	profile, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgStudentUpdated, profile)
}
