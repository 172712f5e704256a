package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/http/response"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type HealthHandler struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewHealthHandler(log *logger.Logger, db *gorm.DB) *HealthHandler {
	handlerLog := log.With("handler", "HealthHandler")
	return &HealthHandler{log: handlerLog, db: db}
}

// GET /healthcheck
func (hh *HealthHandler) HealthCheck(c *gin.Context) {
	var one int
	err := hh.db.WithContext(c.Request.Context()).Raw("SELECT 1").Scan(&one).Error
	if err != nil || one != 1 {
		hh.log.Error("Health check failed", "error", err)
		response.RespondError(c, http.StatusServiceUnavailable, "db_unavailable", errors.New("database unavailable"))
		return
	}
	response.RespondOK(c, gin.H{"message": "Service is healthy"})
}
