package models

import "time"

// Profile представляет учебную запись студента.
// Каждый профиль ссылается ровно на одну учётную запись с ролью student.
type Profile struct {
	ID             string          `json:"id" bson:"_id"`
	Name           string          `json:"name" bson:"name"`
	Email          string          `json:"email" bson:"email"`
	Course         string          `json:"course" bson:"course"`
	EnrollmentDate time.Time       `json:"enrollmentDate" bson:"enrollment_date"`
	IsActive       bool            `json:"isActive" bson:"is_active"`
	AccountID      string          `json:"accountId" bson:"account_id"`
	CreatedAt      time.Time       `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updated_at"`
	Account        *AccountSummary `json:"account,omitempty" bson:"-"`
}

// ProfileUpdate: разрешённые к изменению поля профиля.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Course         *string
	EnrollmentDate *time.Time
	IsActive       *bool
}

// Empty сообщает, что обновлять нечего.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Course == nil &&
		u.EnrollmentDate == nil && u.IsActive == nil
}

// ProfileFilter: параметры выборки списка профилей.
type ProfileFilter struct {
	Search string // Подстрока для поиска по name, email и course без учёта регистра
	Limit  int
	Offset int
}

// ProfilePage: страница списка профилей.
type ProfilePage struct {
	Students    []*Profile `json:"students"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	Total       int64      `json:"total"`
}

// CourseStat: количество студентов на курсе.
type CourseStat struct {
	Course string `json:"course"`
	Count  int64  `json:"count"`
}

// Stats: сводная статистика по студентам.
type Stats struct {
	TotalStudents    int64        `json:"totalStudents"`
	ActiveStudents   int64        `json:"activeStudents"`
	InactiveStudents int64        `json:"inactiveStudents"`
	TotalCourses     int          `json:"totalCourses"`
	CourseStats      []CourseStat `json:"courseStats"`
}
