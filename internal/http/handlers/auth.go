package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rolodex-backend/internal/http/response"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	handlerLog := log.With("handler", "AuthHandler")
	return &AuthHandler{log: handlerLog, authService: authService}
}

func (ah *AuthHandler) respondTokens(c *gin.Context, pair *services.TokenPair) {
	response.RespondOK(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
		"expires_in":    int(ah.authService.AccessTTL().Seconds()),
	})
}

// POST /api/auth/register
// body: { "email": "...", "username": "...", "password": "...", "first_name": "...", "last_name": "..." }
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	u, err := ah.authService.RegisterUser(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, ah.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// POST /api/auth/login
// body: { "email": "...", "password": "..." }
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	pair, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, ah.log, err)
		return
	}
	ah.respondTokens(c, pair)
}

// POST /api/auth/refresh-token
// body: { "refresh_token": "..." }
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("refresh_token is required"))
		return
	}

	pair, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, ah.log, err)
		return
	}
	ah.respondTokens(c, pair)
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		response.Error(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/auth/verify/:token
func (ah *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := ah.authService.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		response.Error(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Email confirmed successfully"})
}

// POST /api/auth/request-email
// body: { "email": "..." }
func (ah *AuthHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	alreadyVerified, err := ah.authService.ResendVerificationEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, ah.log, err)
		return
	}
	if alreadyVerified {
		response.RespondOK(c, gin.H{"message": "Email already confirmed"})
		return
	}
	response.RespondOK(c, gin.H{"message": "Check your email for confirmation link."})
}

// POST /api/auth/request-password-reset
// body: { "email": "..." }
func (ah *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := ah.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Password reset email has been sent."})
}

// GET /api/auth/reset-password?token=...
func (ah *AuthHandler) ResetPassword(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("token is required"))
		return
	}

	if err := ah.authService.ResetPassword(c.Request.Context(), token); err != nil {
		response.Error(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "A new password has been sent to your email."})
}
