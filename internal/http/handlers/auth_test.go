package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/services"
)

type stubAuthService struct {
	services.AuthService
	register    func(ctx context.Context, input services.RegisterInput) (*types.User, error)
	login       func(ctx context.Context, email, password string) (*services.TokenPair, error)
	refresh     func(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	verify      func(ctx context.Context, token string) error
	resend      func(ctx context.Context, email string) (bool, error)
	requestPass func(ctx context.Context, email string) error
	resetPass   func(ctx context.Context, token string) error
	logout      func(ctx context.Context) error
}

func (s *stubAuthService) RegisterUser(ctx context.Context, input services.RegisterInput) (*types.User, error) {
	return s.register(ctx, input)
}

func (s *stubAuthService) LoginUser(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return s.login(ctx, email, password)
}

func (s *stubAuthService) RefreshUser(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return s.refresh(ctx, refreshToken)
}

func (s *stubAuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.verify(ctx, token)
}

func (s *stubAuthService) ResendVerificationEmail(ctx context.Context, email string) (bool, error) {
	return s.resend(ctx, email)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestPass(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token string) error {
	return s.resetPass(ctx, token)
}

func (s *stubAuthService) LogoutUser(ctx context.Context) error { return s.logout(ctx) }

func (s *stubAuthService) AccessTTL() time.Duration { return 15 * time.Minute }

func newAuthRouter(t *testing.T, stub *stubAuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	ah := NewAuthHandler(log, stub)

	r := gin.New()
	r.POST("/api/auth/register", ah.Register)
	r.POST("/api/auth/login", ah.Login)
	r.POST("/api/auth/refresh-token", ah.Refresh)
	r.GET("/api/auth/verify/:token", ah.VerifyEmail)
	r.POST("/api/auth/request-email", ah.ResendVerification)
	r.POST("/api/auth/request-password-reset", ah.RequestPasswordReset)
	r.GET("/api/auth/reset-password", ah.ResetPassword)
	r.POST("/api/auth/logout", ah.Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestRegisterCreatesUser(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	r := newAuthRouter(t, &stubAuthService{
		register: func(_ context.Context, input services.RegisterInput) (*types.User, error) {
			if input.Email != "ann@example.com" || input.Username != "ann" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &types.User{ID: userID, Email: input.Email, Username: input.Username}, nil
		},
	})

	rec := postJSON(t, r, "/api/auth/register",
		`{"email":"ann@example.com","username":"ann","password":"s3cret!","first_name":"Ann","last_name":"Morris"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var body struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.User.ID != userID.String() {
		t.Fatalf("unexpected user id: got=%q want=%q", body.User.ID, userID.String())
	}
	if body.User.Email != "ann@example.com" {
		t.Fatalf("unexpected email: got=%q", body.User.Email)
	}
}

func TestRegisterMapsConflict(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		register: func(_ context.Context, _ services.RegisterInput) (*types.User, error) {
			return nil, apierr.Conflict(errors.New("email already registered"))
		},
	})

	rec := postJSON(t, r, "/api/auth/register",
		`{"email":"ann@example.com","username":"ann","password":"s3cret!","first_name":"Ann","last_name":"Morris"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusConflict)
	}
	if code := errCode(t, rec); code != "conflict" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "conflict")
	}
}

func TestLoginReturnsTokenPair(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		login: func(_ context.Context, email, password string) (*services.TokenPair, error) {
			if email != "ann@example.com" || password != "s3cret!" {
				t.Fatalf("unexpected credentials: %q / %q", email, password)
			}
			return &services.TokenPair{AccessToken: "access-jwt", RefreshToken: "refresh-jwt"}, nil
		},
	})

	rec := postJSON(t, r, "/api/auth/login", `{"email":"ann@example.com","password":"s3cret!"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.AccessToken != "access-jwt" || body.RefreshToken != "refresh-jwt" {
		t.Fatalf("unexpected tokens: %+v", body)
	}
	if body.TokenType != "bearer" {
		t.Fatalf("unexpected token type: got=%q want=%q", body.TokenType, "bearer")
	}
	if body.ExpiresIn != 900 {
		t.Fatalf("unexpected expires_in: got=%d want=%d", body.ExpiresIn, 900)
	}
}

func TestLoginMapsInvalidCredentials(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		login: func(_ context.Context, _, _ string) (*services.TokenPair, error) {
			return nil, apierr.Unauthorized("invalid_credentials", errors.New("invalid email or password"))
		},
	})

	rec := postJSON(t, r, "/api/auth/login", `{"email":"ann@example.com","password":"wrong"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
	if code := errCode(t, rec); code != "invalid_credentials" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "invalid_credentials")
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		refresh: func(_ context.Context, _ string) (*services.TokenPair, error) {
			t.Fatal("RefreshUser should not be called")
			return nil, nil
		},
	})

	rec := postJSON(t, r, "/api/auth/refresh-token", `{"refresh_token":"  "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if code := errCode(t, rec); code != "invalid_request" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "invalid_request")
	}
}

func TestVerifyEmailRespondsWithMessage(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		verify: func(_ context.Context, token string) error {
			if token != "verify-token" {
				t.Fatalf("unexpected token: %q", token)
			}
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify/verify-token", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Email confirmed successfully" {
		t.Fatalf("unexpected message: got=%q", body.Message)
	}
}

func TestVerifyEmailMapsInvalidToken(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		verify: func(_ context.Context, _ string) error {
			return apierr.InvalidToken(errors.New("verification token is invalid or expired"))
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify/stale-token", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if code := errCode(t, rec); code != "invalid_token" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "invalid_token")
	}
}

func TestResendVerificationSplitsOnVerifiedState(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		alreadyVerified bool
		wantMessage     string
	}{
		{name: "already_verified", alreadyVerified: true, wantMessage: "Email already confirmed"},
		{name: "pending", alreadyVerified: false, wantMessage: "Check your email for confirmation link."},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := newAuthRouter(t, &stubAuthService{
				resend: func(_ context.Context, _ string) (bool, error) {
					return tc.alreadyVerified, nil
				},
			})

			rec := postJSON(t, r, "/api/auth/request-email", `{"email":"ann@example.com"}`)

			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
			}
			var body struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Message != tc.wantMessage {
				t.Fatalf("unexpected message: got=%q want=%q", body.Message, tc.wantMessage)
			}
		})
	}
}

func TestRequestPasswordResetAlwaysConfirms(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		requestPass: func(_ context.Context, email string) error {
			if email != "ann@example.com" {
				t.Fatalf("unexpected email: %q", email)
			}
			return nil
		},
	})

	rec := postJSON(t, r, "/api/auth/request-password-reset", `{"email":"ann@example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Password reset email has been sent." {
		t.Fatalf("unexpected message: got=%q", body.Message)
	}
}

func TestResetPasswordRequiresToken(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		resetPass: func(_ context.Context, _ string) error {
			t.Fatal("ResetPassword should not be called")
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/reset-password", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogoutRespondsOK(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(t, &stubAuthService{
		logout: func(_ context.Context) error { return nil },
	})

	rec := postJSON(t, r, "/api/auth/logout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	var body struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.OK {
		t.Fatal("expected ok=true")
	}
}
