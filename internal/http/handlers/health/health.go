package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/student-records/internal/http/response"
)

type Handler struct {
	log *slog.Logger
	now func() time.Time
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log, now: time.Now}
}

// ServeHTTP godoc
// @Summary Проверка доступности
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response "Server is running"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, http.StatusOK, response.MsgServerRunning, map[string]any{
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
