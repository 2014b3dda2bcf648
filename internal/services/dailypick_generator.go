package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

const (
	generatorStartDelay = 15 * time.Second
	generatorPostRunNap = 1 * time.Hour
	pickMinScore        = 10.0
)

// generationBatch maps population size to batch size and inter-batch delay.
type generationBatch struct {
	maxUsers  int
	batchSize int
	delay     time.Duration
}

var generationBatches = []generationBatch{
	{maxUsers: 1000, batchSize: 0, delay: 0}, // batchSize 0: all at once
	{maxUsers: 10000, batchSize: 100, delay: 100 * time.Millisecond},
	{maxUsers: 100000, batchSize: 200, delay: 500 * time.Millisecond},
	{maxUsers: 1 << 62, batchSize: 500, delay: time.Second},
}

func batchParamsFor(userCount int) generationBatch {
	for _, b := range generationBatches {
		if userCount < b.maxUsers {
			return b
		}
	}
	return generationBatches[len(generationBatches)-1]
}

// DailyPickGenerator materializes each active user's curated batch once per
// day at the configured UTC time.
type DailyPickGenerator struct {
	store   *store.Store
	live    *LiveStrategy
	config  *config.Store
	logger  *logrus.Logger
	metrics *EngineMetrics

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDailyPickGenerator(st *store.Store, live *LiveStrategy, cfg *config.Store,
	logger *logrus.Logger, metrics *EngineMetrics) *DailyPickGenerator {
	return &DailyPickGenerator{
		store:    st,
		live:     live,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		stopChan: make(chan struct{}),
	}
}

func (g *DailyPickGenerator) Start() {
	g.wg.Add(1)
	go g.run()
	g.logger.Info("Daily pick generator started")
}

func (g *DailyPickGenerator) Stop() {
	close(g.stopChan)
	g.wg.Wait()
	g.logger.Info("Daily pick generator stopped")
}

func (g *DailyPickGenerator) run() {
	defer g.wg.Done()

	select {
	case <-time.After(generatorStartDelay):
	case <-g.stopChan:
		return
	}

	for {
		wait := time.Until(nextGenerationTime(g.config.Get().DailyPicks.GenerationTimeUTC, time.Now().UTC()))
		select {
		case <-time.After(wait):
		case <-g.stopChan:
			return
		}

		if g.config.Get().DailyPicks.Enabled {
			g.generate()
		}

		// Coarse anti-double-run guard: never reconsider the schedule
		// within an hour of finishing.
		select {
		case <-time.After(generatorPostRunNap):
		case <-g.stopChan:
			return
		}
	}
}

// nextGenerationTime returns the next occurrence of the configured "HH:MM"
// UTC wall time strictly after now.
func nextGenerationTime(hhmm string, now time.Time) time.Time {
	hour, minute := 3, 0
	if parts := strings.SplitN(hhmm, ":", 2); len(parts) == 2 {
		if h, err := strconv.Atoi(parts[0]); err == nil && h >= 0 && h < 24 {
			hour = h
		}
		if m, err := strconv.Atoi(parts[1]); err == nil && m >= 0 && m < 60 {
			minute = m
		}
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (g *DailyPickGenerator) generate() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-g.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	runID := uuid.NewString()
	start := time.Now()

	// Users whose batch carries a generated_at inside the current cycle
	// were already covered; a restart mid-run must not regenerate them.
	cycleStart := nextGenerationTime(g.config.Get().DailyPicks.GenerationTimeUTC, start.UTC()).Add(-24 * time.Hour)

	deleted, err := g.store.DeleteExpiredPicks(ctx, start)
	if err != nil {
		g.logger.WithFields(logrus.Fields{"run_id": runID, "error": err}).Error("Failed to delete expired picks")
		return
	}

	userIDs, err := g.store.ListActiveUserIDs(ctx)
	if err != nil {
		g.logger.WithFields(logrus.Fields{"run_id": runID, "error": err}).Error("Failed to list active users")
		return
	}

	params := batchParamsFor(len(userIDs))
	batchSize := params.batchSize
	if batchSize == 0 {
		batchSize = len(userIDs)
	}

	generated := 0
	for i := 0; i < len(userIDs); i += batchSize {
		select {
		case <-ctx.Done():
			g.logger.WithField("run_id", runID).Info("Generation stopping gracefully")
			return
		default:
		}

		end := i + batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		for _, userID := range userIDs[i:end] {
			if err := g.generateForUser(ctx, userID, cycleStart); err != nil {
				g.logger.WithFields(logrus.Fields{
					"run_id":  runID,
					"user_id": userID,
					"error":   err,
				}).Warn("Pick generation failed for user, continuing")
				continue
			}
			generated++
		}

		if end < len(userIDs) && params.delay > 0 {
			select {
			case <-time.After(params.delay):
			case <-ctx.Done():
				return
			}
		}
	}

	g.metrics.PickGenerationRuns.Inc()
	g.logger.WithFields(logrus.Fields{
		"run_id":          runID,
		"users":           len(userIDs),
		"users_generated": generated,
		"expired_deleted": deleted,
		"elapsed":         time.Since(start),
	}).Info("Daily pick generation complete")
}

func (g *DailyPickGenerator) generateForUser(ctx context.Context, userID int64, cycleStart time.Time) error {
	cfg := g.config.Get().DailyPicks

	if fresh, err := g.store.HasFreshPicks(ctx, userID, cycleStart); err == nil && fresh {
		return nil
	}

	result, err := g.live.GetCandidates(ctx, userID, &models.CandidateRequest{
		Limit:    cfg.PicksPerUser * 2,
		MinScore: pickMinScore,
	})
	if err != nil {
		return err
	}
	if len(result.Candidates) == 0 {
		return nil
	}

	now := time.Now()
	expires := now.Add(time.Duration(cfg.ExpiryHours) * time.Hour)

	n := len(result.Candidates)
	if n > cfg.PicksPerUser {
		n = cfg.PicksPerUser
	}
	picks := make([]*models.DailyPick, 0, n)
	for i := 0; i < n; i++ {
		picks = append(picks, &models.DailyPick{
			UserID:          userID,
			CandidateUserID: result.Candidates[i].UserID,
			Score:           result.Candidates[i].Compatibility,
			Rank:            i + 1,
			GeneratedAt:     now,
			ExpiresAt:       expires,
		})
	}

	return g.store.ReplacePicks(ctx, userID, picks)
}
