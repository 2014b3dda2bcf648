package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/middleware"
	"github.com/kindlr/kindlr/internal/services"
	"github.com/kindlr/kindlr/pkg/models"
)

// InternalHandler serves the API-key-gated internal surface: activity
// pings and the account deletion cascade.
type InternalHandler struct {
	services *services.Services
	logger   *logrus.Logger
}

func NewInternalHandler(svc *services.Services, logger *logrus.Logger) *InternalHandler {
	return &InternalHandler{services: svc, logger: logger}
}

// ActivityPing updates one user's lastActiveAt. Unknown users are ignored.
func (h *InternalHandler) ActivityPing(c *gin.Context) {
	var req models.ActivityPingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "user_id is required",
			},
		})
		return
	}

	updated, err := h.services.Store.TouchLastActive(c.Request.Context(), req.UserID, time.Now())
	if err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": req.UserID, "error": err}).Error("Activity ping failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "ACTIVITY_UPDATE_FAILED",
				"message": "Failed to update activity",
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// ActivityPingBatch applies a batch of activity pings and reports
// (updated, total).
func (h *InternalHandler) ActivityPingBatch(c *gin.Context) {
	var req models.ActivityPingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "user_ids is required",
			},
		})
		return
	}

	updated, err := h.services.Store.TouchLastActiveBatch(c.Request.Context(), req.UserIDs, time.Now())
	if err != nil {
		h.logger.WithField("error", err).Error("Batch activity ping failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "ACTIVITY_UPDATE_FAILED",
				"message": "Failed to update activity",
			},
		})
		return
	}
	c.JSON(http.StatusOK, models.ActivityPingBatchResponse{Updated: updated, Total: len(req.UserIDs)})
}

// DeleteAccount soft-deletes the profile and hard-deletes everything
// derived from it: matches, scores, picks and swipe history.
func (h *InternalHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.UserIDParam(c, "userId")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"deleted": false})
		return
	}
	ctx := c.Request.Context()

	deleted, err := h.services.Store.DeactivateProfile(ctx, userID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Account deactivation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "ACCOUNT_DELETE_FAILED",
				"message": "Failed to delete account",
			},
		})
		return
	}

	matches, err := h.services.Store.DeleteMatchesForUser(ctx, userID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Match cascade failed")
	}
	if _, err := h.services.Store.DeleteScoresForUser(ctx, userID); err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Score cascade failed")
	}
	if _, err := h.services.Store.DeletePicksForUser(ctx, userID); err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Pick cascade failed")
	}
	if _, err := h.services.Store.DeleteInteractionsForUser(ctx, userID); err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Interaction cascade failed")
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "matches_removed": matches})
}
