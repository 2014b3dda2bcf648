package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/middleware"
	"github.com/kindlr/kindlr/internal/services"
	"github.com/kindlr/kindlr/pkg/models"
)

type CandidateHandler struct {
	services *services.Services
	config   *config.Store
	logger   *logrus.Logger
}

func NewCandidateHandler(svc *services.Services, cfg *config.Store, logger *logrus.Logger) *CandidateHandler {
	return &CandidateHandler{services: svc, config: cfg, logger: logger}
}

// GetCandidates serves the ranked candidate feed. Query parameters are
// clamped, never rejected; a non-integer userId yields an empty list.
func (h *CandidateHandler) GetCandidates(c *gin.Context) {
	userID, ok := middleware.UserIDParam(c, "userId")
	if !ok {
		c.JSON(http.StatusOK, models.CandidateResponse{
			Candidates:  []models.Candidate{},
			GeneratedAt: time.Now(),
		})
		return
	}

	req := h.clampRequest(c)

	if allowed, _ := h.services.Limiter.CheckAndIncrement(userID, middleware.PremiumFromContext(c)); !allowed {
		h.services.Metrics.SuggestionsDenied.Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "DAILY_LIMIT_REACHED",
				"message": "Daily suggestion limit reached",
			},
		})
		return
	}

	start := time.Now()
	result, err := h.services.Resolver.GetCandidates(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Error("Candidate request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "CANDIDATES_UNAVAILABLE",
				"message": "Failed to produce candidates",
			},
		})
		return
	}

	h.services.Metrics.CandidateRequests.WithLabelValues(result.StrategyName).Inc()
	h.services.Metrics.CandidateLatency.WithLabelValues(result.StrategyName).Observe(time.Since(start).Seconds())
	h.services.Metrics.CandidatesReturned.Observe(float64(len(result.Candidates)))

	c.JSON(http.StatusOK, models.CandidateResponse{
		UserID:       userID,
		Candidates:   result.Candidates,
		StrategyUsed: result.StrategyName,
		FilterTrace:  h.services.Pipeline.Trace(),
		GeneratedAt:  time.Now(),
	})
}

func (h *CandidateHandler) clampRequest(c *gin.Context) *models.CandidateRequest {
	cfg := h.config.Get().Candidates

	limit := cfg.DefaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}
	if limit < 1 {
		limit = 1
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}

	minScore := cfg.DefaultMinScore
	if v, err := strconv.ParseFloat(c.Query("minScore"), 64); err == nil {
		minScore = v
	}
	if minScore < 0 {
		minScore = 0
	}
	if minScore > 100 {
		minScore = 100
	}

	// An absent parameter takes the configured default; zero disables
	// the recency cut entirely.
	activeWithin := cfg.ActiveWithinDays
	if v, err := strconv.Atoi(c.Query("activeWithin")); err == nil {
		activeWithin = v
	}
	if activeWithin != 0 {
		if activeWithin < 1 {
			activeWithin = 1
		}
		if activeWithin > 365 {
			activeWithin = 365
		}
	}

	return &models.CandidateRequest{
		Limit:            limit,
		MinScore:         minScore,
		ActiveWithinDays: activeWithin,
		OnlyVerified:     c.Query("onlyVerified") == "true",
		Strategy:         c.Query("strategy"),
	}
}
