package login

import (
	"context"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Service описывает интерфейс бизнес-логики авторизации.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
}
