package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/pkg/models"
)

// HandleSwipeEvent applies one swipe to the engine's derived state: the
// interaction log, the Elo desirability adjustment, score invalidation for
// the target, and the acted flag on any daily pick it consumed.
func (s *Services) HandleSwipeEvent(ctx context.Context, event *models.SwipeEvent) error {
	if err := s.Store.InsertInteraction(ctx, &models.UserInteraction{
		UserID:       event.UserID,
		TargetUserID: event.TargetUserID,
		Type:         event.Type,
		CreatedAt:    event.Timestamp,
	}); err != nil {
		return err
	}

	if err := s.Desirability.AdjustForSwipe(ctx, event.UserID, event.TargetUserID, event.Type == models.InteractionLike); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":   event.UserID,
			"target_id": event.TargetUserID,
			"error":     err,
		}).Warn("Elo adjustment failed")
	}

	if _, err := s.Store.InvalidateScoresInvolving(ctx, event.TargetUserID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"target_id": event.TargetUserID,
			"error":     err,
		}).Warn("Score invalidation failed")
	}

	if err := s.Store.MarkPickActed(ctx, event.UserID, event.TargetUserID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":   event.UserID,
			"target_id": event.TargetUserID,
			"error":     err,
		}).Warn("Failed to mark pick acted")
	}

	if s.Feed != nil {
		s.Feed.Invalidate(ctx, event.UserID)
	}

	s.Metrics.SwipeEventsSeen.WithLabelValues(event.Type).Inc()
	return nil
}
