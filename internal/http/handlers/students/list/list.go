// Package list реализует постраничный список студентов с поиском.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/students"
)

// Service описывает выборку списка студентов.
type Service interface {
	List(ctx context.Context, p students.ListParams) (*models.ProfilePage, error)
}

// Handler обрабатывает GET /students/admin/all.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список студентов
// @Description Новые записи первыми. search ищет по имени, email и курсу без учёта регистра.
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param page query int false "Номер страницы, с 1"
// @Param limit query int false "Размер страницы, до 100"
// @Param search query string false "Строка поиска"
// @Success 200 {object} response.Response "Operation successful"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /students/admin/all [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.students.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	var msgs []string
	page, ok := positiveInt(q.Get("page"))
	if !ok {
		msgs = append(msgs, "page must be a positive integer")
	}
	limit, ok := positiveInt(q.Get("limit"))
	if !ok {
		msgs = append(msgs, "limit must be a positive integer")
	}
	if len(msgs) > 0 {
		response.Fail(w, r, log, apperr.NewValidation(msgs...))
		return
	}

	res, err := h.service.List(r.Context(), students.ListParams{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
	})
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgOK, res)
}

// positiveInt разбирает необязательный параметр. Пустая строка даёт 0.
func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
