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

type MatchHandler struct {
	services  *services.Services
	publisher services.MatchEventPublisher
	logger    *logrus.Logger
}

func NewMatchHandler(svc *services.Services, publisher services.MatchEventPublisher, logger *logrus.Logger) *MatchHandler {
	return &MatchHandler{services: svc, publisher: publisher, logger: logger}
}

// GetStats returns the user's match history summary.
func (h *MatchHandler) GetStats(c *gin.Context) {
	userID, ok := middleware.UserIDParam(c, "userId")
	if !ok {
		c.JSON(http.StatusOK, models.MatchStats{TopReasons: []string{}})
		return
	}

	stats, err := h.services.Store.GetMatchStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Match stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "STATS_UNAVAILABLE",
				"message": "Failed to compute match statistics",
			},
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateMutualMatch records a mutual match from the swipe service:
// canonicalize, upsert, best-effort notify.
func (h *MatchHandler) CreateMutualMatch(c *gin.Context) {
	var req models.MutualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "user1_id and user2_id are required",
			},
		})
		return
	}

	match := &models.Match{
		User1ID:     req.User1ID,
		User2ID:     req.User2ID,
		MatchSource: req.Source,
	}
	if match.MatchSource == "" {
		match.MatchSource = "swipe"
	}
	if req.CompatibilityScore != nil {
		match.CompatibilityScore = *req.CompatibilityScore
	}

	stored, created, err := h.services.Store.UpsertMatch(c.Request.Context(), match)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"user1_id": req.User1ID,
			"user2_id": req.User2ID,
			"error":    err,
		}).Error("Match upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "MATCH_PERSIST_FAILED",
				"message": "Failed to record match",
			},
		})
		return
	}

	if created {
		h.services.Metrics.MatchesCreated.Inc()
		if h.publisher != nil {
			h.publisher.PublishMatchCreated(c.Request.Context(), &models.MatchCreatedEvent{
				User1ID:            stored.User1ID,
				User2ID:            stored.User2ID,
				CompatibilityScore: stored.CompatibilityScore,
				Source:             stored.MatchSource,
				CreatedAt:          time.Now(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"match": stored, "created": created})
}

// DeleteForUser removes matches for a user and reports the count.
func (h *MatchHandler) DeleteForUser(c *gin.Context) {
	userID, ok := middleware.UserIDParam(c, "userId")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"deleted": 0})
		return
	}

	count, err := h.services.Store.DeleteMatchesForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Match deletion failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "MATCH_DELETE_FAILED",
				"message": "Failed to delete matches",
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
