// Package models содержит доменные модели платформы курсов:
// пользователей, курсы, лекции, покупки и прогресс прохождения.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID                string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	Avatar              string     `json:"avatar"`
	Bio                 string     `json:"bio,omitempty"`
	IsActive            bool       `json:"-"`
	LastActive          time.Time  `json:"lastActive"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`

	// Производные списки, заполняются запросами при выдаче профиля.
	EnrolledCourses []string `json:"enrolledCourses,omitempty"`
	CreatedCourses  []string `json:"createdCourses,omitempty"`
}

// IsInstructor сообщает, является ли пользователь преподавателем.
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}
