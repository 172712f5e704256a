package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Error translates a service error into the envelope. Unexpected
// errors (anything not carrying an apierr status) and plain 500s are
// logged with their cause but leave only a generic message in the
// body.
func Error(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.From(err)
	if ae.Status == http.StatusInternalServerError {
		if log != nil {
			log.Error("Request failed", "path", c.FullPath(), "error", ae.Err)
		}
		RespondError(c, ae.Status, ae.Code, errors.New("internal server error"))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
