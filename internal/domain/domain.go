// Package domain re-exports the persisted model types so callers can
// import a single package as "types".
package domain

import (
	"github.com/yungbote/rolodex-backend/internal/domain/auth"
	"github.com/yungbote/rolodex-backend/internal/domain/contact"
	"github.com/yungbote/rolodex-backend/internal/domain/user"
)

type (
	User           = user.User
	UserToken      = auth.UserToken
	Contact        = contact.Contact
	ContactAddress = contact.Address
)
