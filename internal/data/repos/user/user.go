package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, user *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
	SetEmailVerified(dbc dbctx.Context, email string) error
	UpdatePassword(dbc dbctx.Context, userID uuid.UUID, passwordHash string) error
	UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, url, color string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, user *types.User) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	if err := transaction.WithContext(dbc.Ctx).Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("email = ?", email).
		First(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (ur *userRepo) SetEmailVerified(dbc dbctx.Context, email string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Update("email_verified", true).Error
}

func (ur *userRepo) UpdatePassword(dbc dbctx.Context, userID uuid.UUID, passwordHash string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash).Error
}

func (ur *userRepo) UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, url, color string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"avatar_bucket_key": bucketKey,
			"avatar_url":        url,
			"avatar_color":      color,
		}).Error
}
