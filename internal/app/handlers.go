package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/rolodex-backend/internal/http/handlers"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	User    *httpH.UserHandler
	Contact *httpH.ContactHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(log, db),
		Auth:    httpH.NewAuthHandler(log, services.Auth),
		User:    httpH.NewUserHandler(log, services.User),
		Contact: httpH.NewContactHandler(log, services.Contact),
	}
}
