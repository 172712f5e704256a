package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/rolodex-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:        id,
		Email:     email,
		Username:  fmt.Sprintf("user-%s", id.String()[:8]),
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedVerifiedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	if err := tx.WithContext(ctx).Model(u).Update("email_verified", true).Error; err != nil {
		tb.Fatalf("verify seed user: %v", err)
	}
	u.EmailVerified = true
	return u
}

func SeedUserToken(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, access, refresh string, expiresAt time.Time) *types.UserToken {
	tb.Helper()
	ut := &types.UserToken{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}
	if err := tx.WithContext(ctx).Create(ut).Error; err != nil {
		tb.Fatalf("seed user token: %v", err)
	}
	return ut
}

func SeedContact(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, first, last, email string) *types.Contact {
	tb.Helper()
	c := &types.Contact{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		FirstName:   first,
		LastName:    last,
		Email:       email,
		PhoneNumber: "+1000000000",
		Birthday:    datatypes.Date(time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contact: %v", err)
	}
	return c
}

// SeedContactWithBirthday seeds a contact whose birthday falls on the given date.
func SeedContactWithBirthday(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, email string, birthday time.Time) *types.Contact {
	tb.Helper()
	c := &types.Contact{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		FirstName:   "Bday",
		LastName:    "Contact",
		Email:       email,
		PhoneNumber: "+1000000000",
		Birthday:    datatypes.Date(birthday),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contact with birthday: %v", err)
	}
	return c
}
