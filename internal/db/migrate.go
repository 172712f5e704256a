package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/rolodex-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Contact{},
	)
}

// EnsureContactIndexes adds the lookup indexes AutoMigrate does not cover.
// Partial and expression indexes work on both Postgres and SQLite.
func EnsureContactIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_contact_owner_recent
		ON contact (owner_id, created_at DESC)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_contact_owner_recent: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_contact_owner_email
		ON contact (owner_id, lower(email))
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_contact_owner_email: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_contact_owner_name
		ON contact (owner_id, lower(first_name), lower(last_name))
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_contact_owner_name: %w", err)
	}
	return nil
}

// EnsureTokenIndexes speeds up expired-session sweeps.
func EnsureTokenIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_user_token_expires_at
		ON user_token (expires_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_user_token_expires_at: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureContactIndexes(s.db); err != nil {
		s.log.Error("Contact index migration failed", "error", err)
		return err
	}
	if err := EnsureTokenIndexes(s.db); err != nil {
		s.log.Error("Token index migration failed", "error", err)
		return err
	}
	return nil
}
