package app

import (
	"gorm.io/gorm"

	tokenrepo "github.com/yungbote/rolodex-backend/internal/data/repos/auth"
	contactrepo "github.com/yungbote/rolodex-backend/internal/data/repos/contact"
	userrepo "github.com/yungbote/rolodex-backend/internal/data/repos/user"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type Repos struct {
	User      userrepo.UserRepo
	UserToken tokenrepo.UserTokenRepo
	Contact   contactrepo.ContactRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      userrepo.NewUserRepo(db, log),
		UserToken: tokenrepo.NewUserTokenRepo(db, log),
		Contact:   contactrepo.NewContactRepo(db, log),
	}
}
