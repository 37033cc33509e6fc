// Package apperr описывает таксономию ошибок прикладного уровня.
// Сервисы возвращают эти ошибки (в том числе обёрнутые), а HTTP‑слой
// преобразует их в код ответа и сообщение в одном месте.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateEmail: email уже занят.
	ErrDuplicateEmail = errors.New("Email already exists")
	// ErrInvalidCredentials: неверный email или пароль. Одинакова для обоих случаев.
	ErrInvalidCredentials = errors.New("Invalid email or password")
	// ErrUnauthorized: нет токена либо учётная запись отсутствует или неактивна.
	ErrUnauthorized = errors.New("Unauthorized access")
	// ErrTokenExpired: срок действия токена истёк.
	ErrTokenExpired = errors.New("Token expired")
	// ErrTokenInvalid: токен повреждён, подписан другим ключом или отозван.
	ErrTokenInvalid = errors.New("Invalid token")
	// ErrForbidden: роль не допускает операцию.
	ErrForbidden = errors.New("Access forbidden")
	// ErrAccountNotFound: учётная запись не найдена.
	ErrAccountNotFound = errors.New("User not found")
	// ErrStudentNotFound: профиль студента не найден.
	ErrStudentNotFound = errors.New("Student not found")
)

// ValidationError содержит перечень нарушенных правил валидации.
type ValidationError struct {
	Errors []string
}

// NewValidation создаёт ValidationError из набора сообщений.
func NewValidation(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, ", ")
}

// IsUnauthorized сообщает, относится ли ошибка к отказу в аутентификации.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsNotFound сообщает, относится ли ошибка к отсутствующей сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrStudentNotFound)
}
