package studentrecords

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/student-records/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/health"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/create"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/list"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/read"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/remove"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/self"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/stats"
	"github.com/magabrotheeeer/student-records/internal/http/handlers/students/update"
	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/models"
	authservice "github.com/magabrotheeeer/student-records/internal/services/auth"
	studentservice "github.com/magabrotheeeer/student-records/internal/services/students"
)

// Routes: всё, что нужно для сборки HTTP-маршрутов.
type Routes struct {
	Log           *slog.Logger
	Auth          *authservice.Service
	Students      *studentservice.Service
	Authenticator *middlewarectx.Authenticator
	Metrics       *middlewarectx.Metrics
	// Gatherer отдаётся на /metrics; nil означает реестр по умолчанию.
	Gatherer      prometheus.Gatherer
	AuthRateLimit int
}

// NewRouter регистрирует все маршруты приложения.
func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware)
	}

	authOnly := middlewarectx.Authorize(models.RoleAdmin, models.RoleStudent)
	adminOnly := middlewarectx.Authorize(models.RoleAdmin)
	studentOnly := middlewarectx.Authorize(models.RoleStudent)
	limiter := middlewarectx.RateLimitMiddleware(rt.Log, middlewarectx.NewIPRateLimiter(rt.AuthRateLimit))

	profileHandler := profile.New(rt.Log, rt.Auth)
	selfHandler := self.New(rt.Log, rt.Students)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Открытые конечные точки
			r.With(limiter).Post("/register", register.New(rt.Log, rt.Auth).ServeHTTP)
			r.With(limiter).Post("/login", login.New(rt.Log, rt.Auth).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(rt.Authenticator.Authenticate, authOnly)
				r.Get("/profile", profileHandler.Get)
				r.Put("/profile", profileHandler.Update)
				r.Post("/logout", logout.New(rt.Log, rt.Auth).ServeHTTP)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.Use(rt.Authenticator.Authenticate)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/all", list.New(rt.Log, rt.Students).ServeHTTP)
				r.Get("/stats", stats.New(rt.Log, rt.Students).ServeHTTP)
				r.Post("/create", create.New(rt.Log, rt.Students).ServeHTTP)
				r.Get("/{id}", read.New(rt.Log, rt.Students).ServeHTTP)
				r.Put("/{id}", update.New(rt.Log, rt.Students).ServeHTTP)
				r.Delete("/{id}", remove.New(rt.Log, rt.Students).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(studentOnly)
				r.Get("/profile", selfHandler.Get)
				r.Put("/profile", selfHandler.Update)
			})
		})
	})

	r.Get("/health", health.New(rt.Log).ServeHTTP)

	gatherer := rt.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, response.MsgRouteNotFound)
	})

	return r
}
