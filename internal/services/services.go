package services

import (
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/clients"
	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/database"
	"github.com/kindlr/kindlr/internal/store"
)

// Services wires the matching engine: store, scorer, strategies, workers
// and the external service clients.
type Services struct {
	Store        *store.Store
	Scorer       *CompatibilityScorer
	Pipeline     *FilterPipeline
	Resolver     *StrategyResolver
	Live         *LiveStrategy
	PreComputed  *PreComputedStrategy
	DailyPick    *DailyPickStrategy
	Desirability *DesirabilityCalculator
	Limiter      *SuggestionLimiter
	Refresher    *ScoreRefresher
	Generator    *DailyPickGenerator
	Rollup       *MetricsRollup
	Metrics      *EngineMetrics
	Feed         *FeedCache

	SwipeClient  *clients.SwipeClient
	SafetyClient *clients.SafetyClient

	logger *logrus.Logger
}

func New(db *database.Database, cfg *config.Store, logger *logrus.Logger) *Services {
	st := store.New(db.PG, logger)
	metrics := NewEngineMetrics()

	swipeClient := clients.NewSwipeClient(cfg, db.Redis.Hot, logger)
	safetyClient := clients.NewSafetyClient(cfg, logger)

	scorer := NewCompatibilityScorer(st, cfg, logger)
	pipeline := NewFilterPipeline(DefaultFilters()...)
	desirability := NewDesirabilityCalculator(st, logger)

	live := NewLiveStrategy(st, scorer, pipeline, swipeClient, safetyClient, cfg, logger)
	precomputed := NewPreComputedStrategy(st, live, pipeline, swipeClient, safetyClient, cfg, logger)
	dailyPick := NewDailyPickStrategy(st, live, logger)
	feed := NewFeedCache(db.Redis.Warm, logger)
	resolver := NewStrategyResolver(st, live, precomputed, dailyPick, db.Redis.Hot, feed, cfg, logger)

	return &Services{
		Store:        st,
		Scorer:       scorer,
		Pipeline:     pipeline,
		Resolver:     resolver,
		Live:         live,
		PreComputed:  precomputed,
		DailyPick:    dailyPick,
		Desirability: desirability,
		Limiter:      NewSuggestionLimiter(cfg),
		Refresher:    NewScoreRefresher(st, scorer, pipeline, swipeClient, safetyClient, desirability, cfg, logger, metrics),
		Generator:    NewDailyPickGenerator(st, live, cfg, logger, metrics),
		Rollup:       NewMetricsRollup(st, logger),
		Metrics:      metrics,
		Feed:         feed,
		SwipeClient:  swipeClient,
		SafetyClient: safetyClient,
		logger:       logger,
	}
}

// StartWorkers launches the background loops.
func (s *Services) StartWorkers() {
	s.Refresher.Start()
	s.Generator.Start()
	s.Rollup.Start()
}

// StopWorkers stops the background loops and waits for in-flight work.
func (s *Services) StopWorkers() {
	s.Refresher.Stop()
	s.Generator.Stop()
	s.Rollup.Stop()
}
