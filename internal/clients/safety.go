package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
)

// SafetyClient reads block lists from the safety service. Reads fail open:
// an unreachable service means an empty block list, never a failed request.
type SafetyClient struct {
	http   *http.Client
	config *config.Store
	logger *logrus.Logger
}

func NewSafetyClient(cfg *config.Store, logger *logrus.Logger) *SafetyClient {
	return &SafetyClient{
		http:   &http.Client{Timeout: cfg.Get().Clients.RequestTimeout},
		config: cfg,
		logger: logger,
	}
}

// GetBlockedIDs returns the ids blocked by or blocking the user. The
// service returns string-encoded ids; non-parseable entries are dropped.
func (c *SafetyClient) GetBlockedIDs(ctx context.Context, userID int64) []int64 {
	url := fmt.Sprintf("%s/safety/blocked", c.config.Get().Clients.SafetyServiceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Safety service unavailable, treating block list as empty")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var raw []string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil
	}

	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsBlocked reports whether target is blocked for the user. Failures read
// as not blocked.
func (c *SafetyClient) IsBlocked(ctx context.Context, userID, targetID int64) bool {
	url := fmt.Sprintf("%s/safety/is-blocked/%d", c.config.Get().Clients.SafetyServiceURL, targetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var blocked bool
	if err := json.NewDecoder(resp.Body).Decode(&blocked); err != nil {
		return false
	}
	return blocked
}
