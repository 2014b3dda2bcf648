package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/middleware"
	"github.com/kindlr/kindlr/internal/services"
	"github.com/kindlr/kindlr/pkg/models"
)

type SuggestionHandler struct {
	services *services.Services
	logger   *logrus.Logger
}

func NewSuggestionHandler(svc *services.Services, logger *logrus.Logger) *SuggestionHandler {
	return &SuggestionHandler{services: svc, logger: logger}
}

// GetStatus reports the user's daily suggestion budget.
func (h *SuggestionHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.UserIDParam(c, "userId")
	if !ok {
		c.JSON(http.StatusOK, models.SuggestionStatus{})
		return
	}

	status := h.services.Limiter.Status(userID, middleware.PremiumFromContext(c))
	c.JSON(http.StatusOK, status)
}
