package service

import (
	"github.com/cortexai/cortex-backend/internal/config"
	"github.com/cortexai/cortex-backend/internal/notify"
	"github.com/cortexai/cortex-backend/internal/repository"
)

type Services struct {
	Auth *AuthService
}

func NewServices(repos *repository.Repositories, notifier notify.Notifier, google GoogleVerifier, cfg *config.Config) *Services {
	return &Services{
		Auth: NewAuthService(repos.User, repos.Session, notifier, google, cfg),
	}
}
