package services

import (
	"context"
	"errors"
	"time"

	"tripmate_server/logging"
	"tripmate_server/metrics"
	"tripmate_server/models"

	"github.com/rs/zerolog"
)

// Notifier delivers match notifications.
type Notifier interface {
	NotifyMatch(ctx context.Context, match models.Match) int
}

// NotificationDispatcher pushes match_created events to connected participants.
// Delivery is at-most-once and best-effort: offline users are skipped and failed
// pushes are not retried. MatchStore stays the source of truth.
type NotificationDispatcher struct {
	registry    *ConnectionRegistry
	profiles    ProfileProvider
	sendTimeout time.Duration
	log         zerolog.Logger
}

// NewNotificationDispatcher creates a dispatcher. profiles may be nil, in which
// case counterpart summaries carry only the user id.
func NewNotificationDispatcher(registry *ConnectionRegistry, profiles ProfileProvider, sendTimeout time.Duration) *NotificationDispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	return &NotificationDispatcher{
		registry:    registry,
		profiles:    profiles,
		sendTimeout: sendTimeout,
		log:         logging.Component("notifications"),
	}
}

// NotifyMatch pushes the match to each participant that is online and returns
// how many pushes succeeded. It never fails.
func (d *NotificationDispatcher) NotifyMatch(ctx context.Context, match models.Match) int {
	delivered := 0
	for _, userID := range match.Participants() {
		ch, ok := d.registry.Lookup(userID)
		if !ok {
			metrics.Notifications.WithLabelValues("offline").Inc()
			d.log.Debug().Str("user_id", userID).Str("pair_key", match.ID).Msg("📭 participant offline, skipping notification")
			continue
		}

		event := models.MatchCreatedEvent{
			MatchID:            match.MatchID,
			PairKey:            match.ID,
			CompatibilityScore: match.CompatibilityScore,
			MatchType:          match.MatchType,
			Counterpart:        d.counterpart(ctx, match.Counterpart(userID)),
		}

		if err := d.push(ctx, ch, event); err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			d.log.Warn().Err(err).Str("user_id", userID).Str("pair_key", match.ID).Msg("⚠️ failed to push match notification")
			continue
		}
		metrics.Notifications.WithLabelValues("delivered").Inc()
		delivered++
	}
	return delivered
}

func (d *NotificationDispatcher) push(ctx context.Context, ch Channel, event models.MatchCreatedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return ch.Push(ctx, models.EventMatchCreated, event)
}

func (d *NotificationDispatcher) counterpart(ctx context.Context, userID string) models.CounterpartSummary {
	summary := models.CounterpartSummary{UserID: userID}
	if d.profiles == nil {
		return summary
	}
	profile, err := d.profiles.GetSnapshot(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			d.log.Warn().Err(err).Str("user_id", userID).Msg("⚠️ could not load counterpart profile for notification")
		}
		return summary
	}
	summary.Name = profile.Name
	summary.PersonalityType = profile.PersonalityType
	return summary
}
