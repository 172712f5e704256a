package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rolodex-backend/internal/http/response"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	handlerLog := log.With("handler", "UserHandler")
	return &UserHandler{log: handlerLog, userService: userService}
}

// GET /api/users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.Error(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/users/avatar (multipart/form-data)
// field: "file"
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	const maxBytes = 10 << 20

	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("avatar file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(raw) > maxBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", errors.New("avatar file exceeds 10MB"))
		return
	}

	u, err := uh.userService.UploadAvatarImage(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}
