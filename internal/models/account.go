// Package models содержит доменные модели сервиса: учётную запись (Account),
// профиль студента (Profile) и вспомогательные типы для патчей, пагинации и статистики.
// Структуры используются в бизнес‑логике, хранилищах и при формировании JSON‑ответов.
package models

import (
	"strings"
	"time"
)

// Role: роль учётной записи.
type Role string

const (
	// RoleAdmin: администратор, полный доступ к записям студентов.
	RoleAdmin Role = "admin"
	// RoleStudent: студент, доступ только к собственному профилю.
	RoleStudent Role = "student"
)

// Valid сообщает, является ли роль одной из допустимых.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Account представляет учётную запись пользователя.
// Хэш пароля никогда не сериализуется в JSON.
type Account struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash,omitempty"`
	Role         Role       `json:"role" bson:"role"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

// Public возвращает копию учётной записи без хэша пароля.
func (a *Account) Public() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.PasswordHash = ""
	return &cp
}

// Summary возвращает публичные поля учётной записи, которые подмешиваются к профилю.
func (a *Account) Summary() *AccountSummary {
	if a == nil {
		return nil
	}
	return &AccountSummary{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		IsActive:  a.IsActive,
		LastLogin: a.LastLogin,
	}
}

// AccountSummary: публичная часть учётной записи в составе профиля.
type AccountSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// AccountUpdate: разрешённые к изменению поля учётной записи.
// nil означает «не менять».
type AccountUpdate struct {
	Name  *string
	Email *string
}

// Empty сообщает, что обновлять нечего.
func (u AccountUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil
}

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям и в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
