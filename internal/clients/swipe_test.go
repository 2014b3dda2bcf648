package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlr/kindlr/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testClientsConfig(url string) *config.Store {
	cfg := &config.Config{}
	cfg.Clients.SwipeServiceURL = url
	cfg.Clients.SafetyServiceURL = url
	cfg.Clients.RequestTimeout = 2 * time.Second
	return config.NewStore(cfg)
}

// offlineRedis fails every command immediately, forcing cache misses.
func offlineRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestSwipeClient_GetSwipedIDs(t *testing.T) {
	t.Run("pages until a short page", func(t *testing.T) {
		var pagesServed []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page := r.URL.Query().Get("page")
			pagesServed = append(pagesServed, page)
			assert.Equal(t, "200", r.URL.Query().Get("pageSize"))

			ids := make([]int64, 0, swipePageSize)
			if page == "1" {
				for i := 0; i < swipePageSize; i++ {
					ids = append(ids, int64(i+1))
				}
			} else {
				ids = append(ids, 900, 901)
			}
			json.NewEncoder(w).Encode(ids)
		}))
		defer server.Close()

		c := NewSwipeClient(testClientsConfig(server.URL), offlineRedis(), testLogger())
		ids := c.GetSwipedIDs(context.Background(), 1)

		assert.Len(t, ids, swipePageSize+2)
		assert.Equal(t, []string{"1", "2"}, pagesServed)
	})

	t.Run("unreachable service yields an empty list", func(t *testing.T) {
		c := NewSwipeClient(testClientsConfig("http://127.0.0.1:1"), offlineRedis(), testLogger())
		assert.Empty(t, c.GetSwipedIDs(context.Background(), 1))
	})

	t.Run("server error yields an empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewSwipeClient(testClientsConfig(server.URL), offlineRedis(), testLogger())
		assert.Empty(t, c.GetSwipedIDs(context.Background(), 1))
	})
}

func TestSwipeClient_TrustScores(t *testing.T) {
	t.Run("cache misses are batch-fetched", func(t *testing.T) {
		var requested []int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]int64
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			requested = body["userIds"]

			fmt.Fprint(w, `[{"userId": 7, "trustScore": 42.5}]`)
		}))
		defer server.Close()

		c := NewSwipeClient(testClientsConfig(server.URL), offlineRedis(), testLogger())
		scores := c.GetTrustScores(context.Background(), []int64{7})

		assert.Equal(t, []int64{7}, requested)
		assert.Equal(t, 42.5, scores[7])
	})

	t.Run("batch fills missing users with full trust", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]int64
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []int64{1, 2, 3}, body["userIds"])

			fmt.Fprint(w, `[{"userId": 1, "trustScore": 10}, {"userId": 2, "trustScore": 80}]`)
		}))
		defer server.Close()

		c := NewSwipeClient(testClientsConfig(server.URL), offlineRedis(), testLogger())
		scores := c.GetTrustScores(context.Background(), []int64{1, 2, 3})

		assert.Equal(t, 10.0, scores[1])
		assert.Equal(t, 80.0, scores[2])
		assert.Equal(t, 100.0, scores[3])
	})

	t.Run("batch failure defaults everyone to full trust", func(t *testing.T) {
		c := NewSwipeClient(testClientsConfig("http://127.0.0.1:1"), offlineRedis(), testLogger())
		scores := c.GetTrustScores(context.Background(), []int64{1, 2})

		assert.Equal(t, map[int64]float64{1: 100, 2: 100}, scores)
	})
}
