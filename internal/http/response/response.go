// Package response формирует единые JSON-ответы HTTP-обработчиков
// вида {success, message, data, errors} и отображает ошибки бизнес-логики
// в HTTP-статусы. Внутренние подробности ошибок клиенту не отдаются.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
)

// Response описывает стандартную структуру JSON-ответа сервера.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorResponse: структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool     `json:"success" example:"false"`
	Message string   `json:"message" example:"Validation failed"`
	Errors  []string `json:"errors,omitempty" example:"email must be a valid email"`
}

// Сообщения об успехе.
const (
	MsgOK             = "Operation successful"
	MsgRegistered     = "Registration successful"
	MsgLoggedIn       = "Login successful"
	MsgLoggedOut      = "Logout successful"
	MsgUserUpdated    = "User updated successfully"
	MsgStudentCreated = "Student created successfully"
	MsgStudentUpdated = "Student updated successfully"
	MsgStudentDeleted = "Student deleted successfully"
	MsgServerRunning  = "Server is running"
)

// Сообщения об ошибках, которых нет в apperr.
const (
	MsgValidationFailed = "Validation failed"
	MsgInvalidBody      = "Invalid request body"
	MsgInternal         = "Internal server error"
	MsgRouteNotFound    = "Route not found"
	MsgTooManyRequests  = "Too many requests"
	MsgInvalidDate      = "enrollmentDate must be a valid date"
)

// ErrInvalidBody: тело запроса не удалось разобрать как JSON.
var ErrInvalidBody = errors.New("invalid request body")

// OK отправляет успешный ответ с заданным статусом.
func OK(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: true, Message: msg, Data: data})
}

// Error отправляет неуспешный ответ с заданным статусом и сообщением.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string, errs ...string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Success: false, Message: msg, Errors: errs})
}

// Fail отображает ошибку в HTTP-статус и сообщение. Неизвестные ошибки
// логируются и превращаются в 500 без подробностей.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		Error(w, r, http.StatusBadRequest, MsgValidationFailed, verr.Errors...)
	case errors.Is(err, models.ErrInvalidDate):
		Error(w, r, http.StatusBadRequest, MsgValidationFailed, MsgInvalidDate)
	case errors.Is(err, ErrInvalidBody):
		Error(w, r, http.StatusBadRequest, MsgInvalidBody)
	case errors.Is(err, apperr.ErrDuplicateEmail):
		Error(w, r, http.StatusConflict, apperr.ErrDuplicateEmail.Error())
	case errors.Is(err, apperr.ErrForbidden):
		Error(w, r, http.StatusForbidden, apperr.ErrForbidden.Error())
	case apperr.IsUnauthorized(err):
		Error(w, r, http.StatusUnauthorized, unauthorizedMessage(err))
	case apperr.IsNotFound(err):
		Error(w, r, http.StatusNotFound, notFoundMessage(err))
	default:
		log.Error("internal error", sl.Err(err))
		Error(w, r, http.StatusInternalServerError, MsgInternal)
	}
}

func unauthorizedMessage(err error) string {
	for _, known := range []error{
		apperr.ErrInvalidCredentials, apperr.ErrTokenExpired, apperr.ErrTokenInvalid,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return apperr.ErrUnauthorized.Error()
}

func notFoundMessage(err error) string {
	if errors.Is(err, apperr.ErrStudentNotFound) {
		return apperr.ErrStudentNotFound.Error()
	}
	return apperr.ErrAccountNotFound.Error()
}

// Decode разбирает JSON-тело запроса в v. Ошибка даты возвращается как есть,
// любая другая ошибка разбора превращается в ErrInvalidBody.
func Decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, models.ErrInvalidDate) {
			return err
		}
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}
