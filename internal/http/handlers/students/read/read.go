// Package read реализует HTTP-обработчик для получения записи студента по id.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/models"
)

// Service описывает интерфейс чтения записи студента.
type Service interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// Handler обрабатывает GET /students/admin/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запись студента
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID профиля"
// @Success 200 {object} response.Response "Operation successful"
// @Failure 404 {object} response.ErrorResponse "Студент не найден"
// @Router /students/admin/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.students.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgOK, profile)
}
