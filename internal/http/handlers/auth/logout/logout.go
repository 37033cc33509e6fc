// Package logout реализует выход из системы.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
)

type Service interface {
	Logout(ctx context.Context, claims *jwt.CustomClaims) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Если включён отзыв токенов, предъявленный токен перестаёт приниматься.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "Logout successful"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, _ := middlewarectx.ClaimsFrom(r.Context())
	if err := h.service.Logout(r.Context(), claims); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.OK(w, r, http.StatusOK, response.MsgLoggedOut, nil)
}
