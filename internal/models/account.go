// Package models содержит доменные структуры платформы: учётные записи,
// подписки, платёжные намерения и окна выручки авторов, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли учётных записей. Роль — одиночный тег, не множество:
// "subscriber" не хранится, а выводится из активной подписки,
// "guest" — отсутствие учётной записи.
const (
	RoleGuest      = "guest"
	RoleUser       = "user"
	RoleSubscriber = "subscriber"
	RoleCreator    = "creator"
	RoleAdmin      = "admin"
)

// Account представляет зарегистрированного пользователя платформы.
type Account struct {
	UID          string    // Уникальный идентификатор учётной записи
	Email        string    // Электронная почта (уникальная, без учёта регистра)
	PasswordHash string    // Хэш пароля
	Role         string    // Роль: user, creator или admin
	CreatedAt    time.Time // Дата создания
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// DummyLogin используется для приёма данных авторизации из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
