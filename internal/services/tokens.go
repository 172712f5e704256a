package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

// Email token scopes. A token minted for one purpose is rejected
// everywhere else, including the Authorization header.
const (
	TokenScopeVerify        = "verify"
	TokenScopePasswordReset = "password_reset"
)

type TokenClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// TokenService signs and validates the HS256 tokens the API issues:
// session access tokens (subject = user id, no scope) and single-purpose
// email-link tokens (subject = email, scope set).
type TokenService interface {
	SignAccessToken(userID uuid.UUID) (string, error)
	SignEmailToken(email, scope string) (string, error)
	ParseAccessToken(tokenString string) (uuid.UUID, error)
	ParseEmailToken(tokenString, scope string) (string, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
	EmailTTL() time.Duration
}

type tokenService struct {
	log        *logger.Logger
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

func NewTokenService(log *logger.Logger, secretKey string, accessTTL, refreshTTL, emailTTL time.Duration) TokenService {
	serviceLog := log.With("service", "TokenService")
	return &tokenService{
		log:        serviceLog,
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emailTTL:   emailTTL,
	}
}

func (ts *tokenService) SignAccessToken(userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id required")
	}
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secretKey)
}

func (ts *tokenService) SignEmailToken(email, scope string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email required")
	}
	if scope != TokenScopeVerify && scope != TokenScopePasswordReset {
		return "", fmt.Errorf("unknown email token scope %q", scope)
	}
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.emailTTL)),
		},
		Scope: scope,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secretKey)
}

func (ts *tokenService) parse(tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ts.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func (ts *tokenService) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	// Email-link tokens carry a scope and never grant API access.
	if claims.Scope != "" {
		return uuid.Nil, fmt.Errorf("token scope %q is not an access token", claims.Scope)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, nil
}

func (ts *tokenService) ParseEmailToken(tokenString, scope string) (string, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Scope != scope {
		return "", fmt.Errorf("token scope %q does not match %q", claims.Scope, scope)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return claims.Subject, nil
}

func (ts *tokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *tokenService) RefreshTTL() time.Duration { return ts.refreshTTL }
func (ts *tokenService) EmailTTL() time.Duration   { return ts.emailTTL }
