// Package create реализует создание записи студента администратором.
//
// Для нового студента заводится учётная запись со случайным временным паролем,
// который не возвращается в ответе.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/students"
)

// Service описывает создание записи студента.
type Service interface {
	Create(ctx context.Context, in students.CreateInput) (*models.Profile, error)
}

// Handler обрабатывает POST /students/admin/create.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Создание студента
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body students.CreateInput true "Данные студента"
// @Success 201 {object} response.Response "Student created successfully"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Router /students/admin/create [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.students.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req students.CreateInput
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, r, log, err)
		return
	}

	profile, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	if admin, ok := middlewarectx.AccountFrom(r.Context()); ok {
		log = log.With(slog.String("admin_id", admin.ID))
	}
	log.Info("student created", slog.String("profile_id", profile.ID))
	response.OK(w, r, http.StatusCreated, response.MsgStudentCreated, profile)
}
