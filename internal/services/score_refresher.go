package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

const refresherStartDelay = 10 * time.Second

// ScoreRefresher periodically rebuilds the precomputed-score table,
// processing the stalest users first with bounded per-user parallelism and
// a CPU guard.
type ScoreRefresher struct {
	store        *store.Store
	scorer       *CompatibilityScorer
	pipeline     *FilterPipeline
	swipes       SwipeReader
	safety       SafetyReader
	desirability *DesirabilityCalculator
	config       *config.Store
	logger       *logrus.Logger
	metrics      *EngineMetrics

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu         sync.Mutex
	lastUserID int64
}

func NewScoreRefresher(st *store.Store, scorer *CompatibilityScorer, pipeline *FilterPipeline,
	swipes SwipeReader, safety SafetyReader, desirability *DesirabilityCalculator,
	cfg *config.Store, logger *logrus.Logger, metrics *EngineMetrics) *ScoreRefresher {
	return &ScoreRefresher{
		store:        st,
		scorer:       scorer,
		pipeline:     pipeline,
		swipes:       swipes,
		safety:       safety,
		desirability: desirability,
		config:       cfg,
		logger:       logger,
		metrics:      metrics,
		stopChan:     make(chan struct{}),
	}
}

func (r *ScoreRefresher) Start() {
	r.wg.Add(1)
	go r.run()
	r.logger.Info("Score refresher started")
}

func (r *ScoreRefresher) Stop() {
	close(r.stopChan)
	r.wg.Wait()
	r.logger.Info("Score refresher stopped")
}

func (r *ScoreRefresher) run() {
	defer r.wg.Done()

	select {
	case <-time.After(refresherStartDelay):
	case <-r.stopChan:
		return
	}

	for {
		interval := time.Duration(r.config.Get().Background.RefreshIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 30 * time.Minute
		}

		r.runCycle()

		select {
		case <-time.After(interval):
		case <-r.stopChan:
			return
		}
	}
}

func (r *ScoreRefresher) runCycle() {
	cfg := r.config.Get()
	if !cfg.Background.Enabled {
		return
	}

	if pct, ok := loadPercent(); ok && pct > cfg.Background.SkipRefreshWhenCPUAbove {
		r.logger.WithFields(logrus.Fields{
			"load_percent": pct,
			"threshold":    cfg.Background.SkipRefreshWhenCPUAbove,
		}).Info("Skipping refresh cycle, CPU load too high")
		r.metrics.RefreshCyclesSkipped.Inc()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	cycleID := uuid.NewString()
	start := time.Now()

	userIDs, err := r.store.SelectRefreshBatch(ctx, cfg.Background.MaxUsersPerCycle, cfg.Background.OnlyRefreshActiveUsers)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"cycle_id": cycleID,
			"error":    err,
		}).Error("Failed to select refresh batch")
		return
	}
	if len(userIDs) == 0 {
		return
	}

	concurrency := cfg.Background.MaxConcurrentScoring
	if concurrency <= 0 {
		concurrency = 5
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			r.logger.WithField("cycle_id", cycleID).Info("Refresh cycle stopping gracefully")
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := r.refreshUser(ctx, id); err != nil {
				r.logger.WithFields(logrus.Fields{
					"cycle_id": cycleID,
					"user_id":  id,
					"error":    err,
				}).Warn("User refresh failed, continuing cycle")
			}
			r.checkpoint(id)
		}(userID)
	}
	wg.Wait()

	// Non-fatal: scores are already written.
	r.desirability.RecalculateBatch(ctx, userIDs)

	r.metrics.RefreshCyclesTotal.Inc()
	r.metrics.UsersRefreshed.Add(float64(len(userIDs)))
	r.logger.WithFields(logrus.Fields{
		"cycle_id": cycleID,
		"users":    len(userIDs),
		"elapsed":  time.Since(start),
	}).Info("Refresh cycle complete")
}

func (r *ScoreRefresher) refreshUser(ctx context.Context, userID int64) error {
	cfg := r.config.Get()

	requester, err := r.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if cfg.Background.OnlyRefreshActiveUsers && !requester.IsActive {
		return nil
	}

	fc := &FilterContext{
		Requester:  requester,
		SwipedIDs:  r.swipes.GetSwipedIDs(ctx, userID),
		BlockedIDs: r.safety.GetBlockedIDs(ctx, userID),
		Options:    &cfg.Candidates,
	}

	limit := cfg.Candidates.MaxLimit * 3
	if limit > 150 {
		limit = 150
	}

	profiles, err := r.store.FindCandidates(ctx, r.pipeline.Compose(fc, limit))
	if err != nil {
		return err
	}

	now := time.Now()
	for _, p := range profiles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		breakdown := r.scorer.Compute(requester, p)
		activity := r.scorer.ActivityScore(p.LastActiveAt, now)
		overall := blendCompatWeight*breakdown.Overall + blendActivityWeight*activity + blendDesirabilityWeight*p.DesirabilityScore

		// The lifestyle column carries the compat sub-signal so the
		// precomputed strategy can re-apply its minimum-score cut.
		if err := r.store.UpsertScore(ctx, &models.PrecomputedScore{
			UserID:         userID,
			TargetUserID:   p.UserID,
			OverallScore:   overall,
			LocationScore:  breakdown.Location,
			AgeScore:       breakdown.Age,
			InterestsScore: breakdown.Interests,
			EducationScore: breakdown.Education,
			LifestyleScore: breakdown.Overall,
			ActivityScore:  activity,
			CalculatedAt:   now,
		}); err != nil {
			r.logger.WithFields(logrus.Fields{
				"user_id":   userID,
				"target_id": p.UserID,
				"error":     err,
			}).Warn("Score upsert failed")
		}
	}
	return nil
}

// checkpoint records the last processed user so operators can observe
// progress across cycles.
func (r *ScoreRefresher) checkpoint(userID int64) {
	r.mu.Lock()
	r.lastUserID = userID
	r.mu.Unlock()
}

func (r *ScoreRefresher) LastProcessedUserID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUserID
}
