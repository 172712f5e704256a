package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/cache"
	"github.com/yungbote/rolodex-backend/internal/data/dberr"
	tokenrepo "github.com/yungbote/rolodex-backend/internal/data/repos/auth"
	userrepo "github.com/yungbote/rolodex-backend/internal/data/repos/user"
	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/ctxutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

const backgroundEmailTimeout = 30 * time.Second

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService owns registration, login, session rotation, and the
// email-token flows (verification and password reset). Errors come back
// as apierr values so handlers map them without inspecting causes.
type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (*TokenPair, error)
	RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error)
	LogoutUser(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerificationEmail(ctx context.Context, email string) (alreadyVerified bool, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      userrepo.UserRepo
	userTokenRepo tokenrepo.UserTokenRepo
	avatarService AvatarService
	mailService   MailService
	tokenService  TokenService
	userCache     cache.UserCache
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo userrepo.UserRepo,
	userTokenRepo tokenrepo.UserTokenRepo,
	avatarService AvatarService,
	mailService MailService,
	tokenService TokenService,
	userCache cache.UserCache,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		mailService:   mailService,
		tokenService:  tokenService,
		userCache:     userCache,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error) {
	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	if email == "" || username == "" || input.Password == "" || firstName == "" || lastName == "" {
		return nil, apierr.Invalid(errors.New("all registration fields are required"))
	}

	dbc := dbctx.New(ctx)
	if taken, err := as.userRepo.EmailExists(dbc, email); err != nil {
		return nil, apierr.Internal(fmt.Errorf("check email: %w", err))
	} else if taken {
		return nil, apierr.Conflict(errors.New("email already registered"))
	}
	if taken, err := as.userRepo.UsernameExists(dbc, username); err != nil {
		return nil, apierr.Internal(fmt.Errorf("check username: %w", err))
	} else if taken {
		return nil, apierr.Conflict(errors.New("username already taken"))
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  username,
		Password:  hash,
		FirstName: firstName,
		LastName:  lastName,
	}

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		// The initials avatar is best-effort; registration succeeds
		// without one.
		if err := as.avatarService.CreateAndUploadUserAvatar(inner, u); err != nil {
			as.log.Warn("Failed to create initials avatar (ignored)", "user_id", u.ID.String(), "error", err)
		}

		if _, err := as.userRepo.Create(inner, u); err != nil {
			return err
		}
		return nil
	}); err != nil {
		// Concurrent registration can slip past the pre-checks.
		if dberr.IsUniqueViolation(err) {
			return nil, apierr.Conflict(errors.New("email or username already taken"))
		}
		return nil, apierr.Internal(fmt.Errorf("create user: %w", err))
	}

	as.sendInBackground("verification", func(mailCtx context.Context) error {
		token, err := as.tokenService.SignEmailToken(u.Email, TokenScopeVerify)
		if err != nil {
			return err
		}
		return as.mailService.SendVerificationEmail(mailCtx, u.Email, u.FirstName, token)
	})

	return u, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apierr.Invalid(errors.New("email and password are required"))
	}

	u, err := as.userRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		if dberr.IsNotFound(err) {
			// Same message as a wrong password so the response does not
			// reveal which emails are registered.
			return nil, apierr.Unauthorized(apierr.CodeInvalidCredentials, errors.New("invalid email or password"))
		}
		return nil, apierr.Internal(fmt.Errorf("fetch user: %w", err))
	}
	if err := checkPassword(u.Password, password); err != nil {
		return nil, apierr.Unauthorized(apierr.CodeInvalidCredentials, errors.New("invalid email or password"))
	}
	if !u.EmailVerified {
		return nil, apierr.Unauthorized(apierr.CodeEmailNotVerified, errors.New("email not verified"))
	}

	pair, err := as.issueTokenPair(ctx, u)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// issueTokenPair creates and persists a fresh session. Expired rows for
// the user are swept in the same transaction.
func (as *authService) issueTokenPair(ctx context.Context, u *types.User) (*TokenPair, error) {
	accessToken, err := as.tokenService.SignAccessToken(u.ID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("sign access token: %w", err))
	}
	refreshToken := uuid.New().String()

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userTokenRepo.FullDeleteExpired(inner, u.ID, time.Now()); err != nil {
			return fmt.Errorf("sweep expired tokens: %w", err)
		}
		userToken := &types.UserToken{
			UserID:       u.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.tokenService.RefreshTTL()),
		}
		if _, err := as.userTokenRepo.Create(inner, userToken); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		return nil
	}); err != nil {
		return nil, apierr.Internal(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apierr.Invalid(errors.New("refresh token required"))
	}

	var pair TokenPair
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := as.userTokenRepo.GetByRefreshToken(inner, refreshToken)
		if err != nil {
			if dberr.IsNotFound(err) {
				return apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("invalid refresh token"))
			}
			return fmt.Errorf("fetch refresh token: %w", err)
		}
		if existing.Expired(time.Now()) {
			if err := as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{existing.ID}); err != nil {
				return fmt.Errorf("delete expired token: %w", err)
			}
			return apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("refresh token expired"))
		}

		u, err := as.userRepo.GetByID(inner, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}

		accessToken, err := as.tokenService.SignAccessToken(u.ID)
		if err != nil {
			return fmt.Errorf("sign access token: %w", err)
		}
		next := &types.UserToken{
			UserID:       u.ID,
			AccessToken:  accessToken,
			RefreshToken: uuid.New().String(),
			ExpiresAt:    time.Now().Add(as.tokenService.RefreshTTL()),
		}
		if _, err := as.userTokenRepo.Create(inner, next); err != nil {
			return fmt.Errorf("create rotated token: %w", err)
		}
		if err := as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("delete rotated-out token: %w", err)
		}

		pair = TokenPair{AccessToken: next.AccessToken, RefreshToken: next.RefreshToken}
		return nil
	}); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Internal(err)
	}
	return &pair, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("no session in request context"))
	}

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.GetByAccessToken(inner, rd.TokenString)
		if err != nil {
			// Already gone: logout is idempotent.
			if dberr.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("fetch session token: %w", err)
		}
		return as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{existing.ID})
	}); err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (as *authService) VerifyEmail(ctx context.Context, token string) error {
	email, err := as.tokenService.ParseEmailToken(token, TokenScopeVerify)
	if err != nil {
		return apierr.InvalidToken(errors.New("verification error"))
	}

	var userID uuid.UUID
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := as.userRepo.GetByEmail(inner, email)
		if err != nil {
			if dberr.IsNotFound(err) {
				return apierr.InvalidToken(errors.New("verification error"))
			}
			return fmt.Errorf("fetch user: %w", err)
		}
		// A verification link is single-use: redeeming it again fails.
		if u.EmailVerified {
			return apierr.InvalidToken(errors.New("verification error"))
		}
		userID = u.ID
		return as.userRepo.SetEmailVerified(inner, email)
	}); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apierr.Internal(err)
	}

	as.invalidateUserCache(ctx, userID)
	return nil
}

func (as *authService) ResendVerificationEmail(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	u, err := as.userRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, apierr.NotFound(errors.New("user not found"))
		}
		return false, apierr.Internal(fmt.Errorf("fetch user: %w", err))
	}
	if u.EmailVerified {
		return true, nil
	}

	as.sendInBackground("verification", func(mailCtx context.Context) error {
		token, err := as.tokenService.SignEmailToken(u.Email, TokenScopeVerify)
		if err != nil {
			return err
		}
		return as.mailService.SendVerificationEmail(mailCtx, u.Email, u.FirstName, token)
	})
	return false, nil
}

func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := as.userRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		if dberr.IsNotFound(err) {
			return apierr.NotFound(errors.New("user not found"))
		}
		return apierr.Internal(fmt.Errorf("fetch user: %w", err))
	}

	as.sendInBackground("password_reset", func(mailCtx context.Context) error {
		token, err := as.tokenService.SignEmailToken(u.Email, TokenScopePasswordReset)
		if err != nil {
			return err
		}
		return as.mailService.SendPasswordResetEmail(mailCtx, u.Email, u.FirstName, token)
	})
	return nil
}

func (as *authService) ResetPassword(ctx context.Context, token string) error {
	email, err := as.tokenService.ParseEmailToken(token, TokenScopePasswordReset)
	if err != nil {
		return apierr.InvalidToken(errors.New("password reset error"))
	}

	u, err := as.userRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		if dberr.IsNotFound(err) {
			return apierr.InvalidToken(errors.New("password reset error"))
		}
		return apierr.Internal(fmt.Errorf("fetch user: %w", err))
	}

	newPassword, err := generateRandomPassword(randomPasswordLength)
	if err != nil {
		return apierr.Internal(err)
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return apierr.Internal(err)
	}

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userRepo.UpdatePassword(inner, u.ID, hash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		// Every open session dies with the old password.
		if err := as.userTokenRepo.FullDeleteByUserIDs(inner, []uuid.UUID{u.ID}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	}); err != nil {
		return apierr.Internal(err)
	}

	as.invalidateUserCache(ctx, u.ID)

	// The generated password only exists in this email; a failed send
	// must surface so the user knows to request another reset.
	if err := as.mailService.SendNewPasswordEmail(ctx, u.Email, u.FirstName, newPassword); err != nil {
		as.log.Warn("Failed to send new password email", "error", err)
		return apierr.Upstream(apierr.CodeEmailFailed, errors.New("failed to send email"))
	}
	return nil
}

// SetContextFromToken authenticates a bearer token: the JWT must parse
// and its session row must still exist (logout and resets delete rows).
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, err := as.tokenService.ParseAccessToken(tokenString)
	if err != nil {
		return ctx, apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("invalid or expired token"))
	}

	existing, err := as.userTokenRepo.GetByAccessToken(dbctx.New(ctx), tokenString)
	if err != nil {
		if dberr.IsNotFound(err) {
			return ctx, apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("invalid or expired token"))
		}
		return ctx, apierr.Internal(fmt.Errorf("fetch session token: %w", err))
	}

	rd := &ctxutil.RequestData{
		UserID:       userID,
		TokenString:  tokenString,
		RefreshToken: existing.RefreshToken,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.tokenService.AccessTTL()
}

func (as *authService) invalidateUserCache(ctx context.Context, userID uuid.UUID) {
	if as.userCache == nil || userID == uuid.Nil {
		return
	}
	if err := as.userCache.Invalidate(ctx, userID); err != nil {
		as.log.Warn("Failed to invalidate user cache (ignored)", "user_id", userID.String(), "error", err)
	}
}

// sendInBackground runs an email send on a detached context so slow
// SendGrid calls never hold up the request.
func (as *authService) sendInBackground(kind string, send func(ctx context.Context) error) {
	go func() {
		mailCtx, cancel := context.WithTimeout(context.Background(), backgroundEmailTimeout)
		defer cancel()
		if err := send(mailCtx); err != nil {
			as.log.Warn("Background email failed", "kind", kind, "error", err)
		}
	}()
}
