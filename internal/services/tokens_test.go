package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

func testTokenService(t *testing.T, accessTTL, emailTTL time.Duration) TokenService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return NewTokenService(log, "test-secret", accessTTL, 24*time.Hour, emailTTL)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, time.Hour, time.Hour)

	userID := uuid.New()
	tok, err := ts.SignAccessToken(userID)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	got, err := ts.ParseAccessToken(tok)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if got != userID {
		t.Fatalf("user id mismatch: got %s want %s", got, userID)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, -time.Second, time.Hour)

	tok, err := ts.SignAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	if _, err := ts.ParseAccessToken(tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestAccessTokenTampered(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, time.Hour, time.Hour)

	tok, err := ts.SignAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)

	if _, err := ts.ParseAccessToken(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	t.Parallel()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	a := NewTokenService(log, "secret-a", time.Hour, time.Hour, time.Hour)
	b := NewTokenService(log, "secret-b", time.Hour, time.Hour, time.Hour)

	tok, err := a.SignAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	if _, err := b.ParseAccessToken(tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestEmailTokenScopes(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, time.Hour, time.Hour)

	tok, err := ts.SignEmailToken("ann@example.com", TokenScopeVerify)
	if err != nil {
		t.Fatalf("sign email token: %v", err)
	}

	email, err := ts.ParseEmailToken(tok, TokenScopeVerify)
	if err != nil {
		t.Fatalf("parse email token: %v", err)
	}
	if email != "ann@example.com" {
		t.Fatalf("email mismatch: got %q", email)
	}

	// Scope is purpose-bound.
	if _, err := ts.ParseEmailToken(tok, TokenScopePasswordReset); err == nil {
		t.Fatal("verify token must not pass as password reset token")
	}

	// Scoped tokens never authenticate requests.
	if _, err := ts.ParseAccessToken(tok); err == nil {
		t.Fatal("email token must not pass as access token")
	}
}

func TestEmailTokenExpired(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, time.Hour, -time.Second)

	tok, err := ts.SignEmailToken("ann@example.com", TokenScopePasswordReset)
	if err != nil {
		t.Fatalf("sign email token: %v", err)
	}
	if _, err := ts.ParseEmailToken(tok, TokenScopePasswordReset); err == nil {
		t.Fatal("expected error for expired email token")
	}
}

func TestEmailTokenUnknownScopeRejected(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, time.Hour, time.Hour)
	if _, err := ts.SignEmailToken("ann@example.com", "admin"); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}

func TestParseAccessTokenMalformed(t *testing.T) {
	t.Parallel()
	ts := testTokenService(t, time.Hour, time.Hour)
	if _, err := ts.ParseAccessToken("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
