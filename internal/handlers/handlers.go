package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/database"
	"github.com/kindlr/kindlr/internal/services"
)

type Handlers struct {
	Health      *HealthHandler
	Candidates  *CandidateHandler
	Matches     *MatchHandler
	Suggestions *SuggestionHandler
	Internal    *InternalHandler
}

func New(logger *logrus.Logger, svc *services.Services, db *database.Database,
	cfg *config.Store, publisher services.MatchEventPublisher) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(logger, db),
		Candidates:  NewCandidateHandler(svc, cfg, logger),
		Matches:     NewMatchHandler(svc, publisher, logger),
		Suggestions: NewSuggestionHandler(svc, logger),
		Internal:    NewInternalHandler(svc, logger),
	}
}
