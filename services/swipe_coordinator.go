package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripmate_server/logging"
	"tripmate_server/metrics"
	"tripmate_server/models"
	"tripmate_server/utils"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SwipeState is the stage a swipe request ended in.
type SwipeState string

const (
	SwipeReceived      SwipeState = "received"
	SwipeRecorded      SwipeState = "recorded"
	SwipeNoMatch       SwipeState = "no_match"
	SwipeMatchPending  SwipeState = "match_pending"
	SwipeMatchCreated  SwipeState = "match_created"
	SwipeMatchExisting SwipeState = "match_existing"
)

// SwipeOutcome is the result returned to the caller of Swipe.
type SwipeOutcome struct {
	IsMatch bool                `json:"isMatch"`
	Match   *models.Match       `json:"match,omitempty"`
	State   SwipeState          `json:"state"`
	Swipe   *models.SwipeRecord `json:"swipe,omitempty"`
}

// CoordinatorConfig holds the collaborators of a SwipeCoordinator. Scorer may be
// nil or any Scorer; it is always wrapped with the rule-based Fallback.
type CoordinatorConfig struct {
	Store    MatchStore
	Profiles ProfileProvider
	Scorer   Scorer
	Fallback *RuleBasedScorer
	Cache    *MatchCache
	Registry *ConnectionRegistry
	Notifier Notifier

	// RetryDelay is the wait before the single retry of score-and-create.
	RetryDelay time.Duration
	Now        func() time.Time
	NewID      func() string
}

// SwipeCoordinator runs one swipe end to end. It holds no per-pair state: the
// store's insert-if-absent is the only serialisation point between the two
// directions of a pair.
type SwipeCoordinator struct {
	store      MatchStore
	profiles   ProfileProvider
	scorer     Scorer
	cache      *MatchCache
	registry   *ConnectionRegistry
	notifier   Notifier
	retryDelay time.Duration
	now        func() time.Time
	newID      func() string
	log        zerolog.Logger
}

func NewSwipeCoordinator(cfg CoordinatorConfig) *SwipeCoordinator {
	primary := cfg.Scorer
	if rule, ok := cfg.Scorer.(*RuleBasedScorer); ok {
		primary, cfg.Fallback = nil, rule
	}
	if cfg.Fallback == nil {
		cfg.Fallback = NewRuleBasedScorer(SchemeStandard)
	}
	if cfg.Registry == nil {
		cfg.Registry = NewConnectionRegistry(0)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotificationDispatcher(cfg.Registry, cfg.Profiles, 0)
	}
	if cfg.RetryDelay < 0 || cfg.RetryDelay >= 200*time.Millisecond {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &SwipeCoordinator{
		store:      cfg.Store,
		profiles:   cfg.Profiles,
		scorer:     NewFallbackScorer(primary, cfg.Fallback),
		cache:      cfg.Cache,
		registry:   cfg.Registry,
		notifier:   cfg.Notifier,
		retryDelay: cfg.RetryDelay,
		now:        cfg.Now,
		newID:      cfg.NewID,
		log:        logging.Component("swipe-coordinator"),
	}
}

// RegisterConnection is called by the transport layer when a user connects.
func (c *SwipeCoordinator) RegisterConnection(userID string, ch Channel) ConnectionHandle {
	return c.registry.Register(userID, ch)
}

// UnregisterConnection is called by the transport layer when a user disconnects.
func (c *SwipeCoordinator) UnregisterConnection(userID string) {
	c.registry.Unregister(userID)
}

// ReleaseConnection unregisters userID only while ch is still its registered
// channel. Transports call it on disconnect.
func (c *SwipeCoordinator) ReleaseConnection(userID string, ch Channel) bool {
	return c.registry.UnregisterChannel(userID, ch)
}

// Registry exposes the connection registry.
func (c *SwipeCoordinator) Registry() *ConnectionRegistry {
	return c.registry
}

// Swipe records swiperID's action on swipedID and creates the match when the like
// is mutual. Only the path that creates the match sends notifications; a path that
// finds the match already created still reports IsMatch.
func (c *SwipeCoordinator) Swipe(ctx context.Context, swiperID, swipedID string, action models.SwipeAction) (outcome SwipeOutcome, err error) {
	start := time.Now()
	outcome.State = SwipeReceived
	defer func() {
		label := string(outcome.State)
		switch {
		case errors.Is(err, ErrInvalidTarget), errors.Is(err, ErrInvalidAction):
			label = "invalid"
		case err != nil:
			label = "error"
		}
		metrics.RecordSwipe(string(action), label, start)
	}()

	swiperID, swipedID = strings.TrimSpace(swiperID), strings.TrimSpace(swipedID)
	if !utils.ValidUserID(swiperID) || !utils.ValidUserID(swipedID) || swiperID == swipedID {
		return outcome, fmt.Errorf("%w: swiper %q, swiped %q", ErrInvalidTarget, swiperID, swipedID)
	}
	if !action.Valid() {
		return outcome, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	record, err := c.store.RecordSwipe(ctx, swiperID, swipedID, action)
	if err != nil {
		return outcome, err
	}
	outcome.State = SwipeRecorded
	outcome.Swipe = record

	if action == models.SwipeActionReject {
		if err := c.store.AddRejected(ctx, swiperID, swipedID); err != nil {
			return outcome, err
		}
		outcome.State = SwipeNoMatch
		return outcome, nil
	}

	if err := c.store.ClearRejected(ctx, swiperID, swipedID); err != nil {
		c.log.Warn().Err(err).Str("user_id", swiperID).Str("target", swipedID).Msg("⚠️ failed to clear rejected entry after like")
	}

	mutual, err := c.store.HasReciprocalLike(ctx, swiperID, swipedID)
	if err != nil {
		return outcome, err
	}
	if !mutual {
		outcome.State = SwipeNoMatch
		return outcome, nil
	}
	outcome.State = SwipeMatchPending

	userA, userB := utils.CanonicalPair(swiperID, swipedID)
	pairKey := utils.PairKey(userA, userB)
	matchType := c.matchType(ctx, swiperID, swipedID, action)

	type creation struct {
		match   *models.Match
		created bool
	}
	res, err := backoff.Retry(ctx, func() (creation, error) {
		match, created, err := c.scoreAndCreate(ctx, pairKey, userA, userB, matchType)
		if err != nil && !IsRetryable(err) {
			return creation{}, backoff.Permanent(err)
		}
		return creation{match, created}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(2),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.MatchCreationRetries.Inc()
			c.log.Warn().Err(err).Str("pair_key", pairKey).Dur("retry_in", next).Msg("🔁 match creation failed, retrying once")
		}),
	)
	if err != nil {
		c.log.Error().Err(err).Str("pair_key", pairKey).Msg("❌ match creation failed, swipe remains recorded")
		return outcome, err
	}

	outcome.IsMatch = true
	outcome.Match = res.match
	if !res.created {
		outcome.State = SwipeMatchExisting
		return outcome, nil
	}

	outcome.State = SwipeMatchCreated
	delivered := c.notifier.NotifyMatch(ctx, *res.match)
	c.log.Info().Str("pair_key", pairKey).Int("score", res.match.CompatibilityScore).Int("notified", delivered).Msg("💘 match created")
	return outcome, nil
}

// scoreAndCreate expects userA, userB in canonical order.
func (c *SwipeCoordinator) scoreAndCreate(ctx context.Context, pairKey, userA, userB string, matchType models.MatchType) (*models.Match, bool, error) {
	score, sub, err := c.compatibility(ctx, pairKey, userA, userB)
	if err != nil {
		return nil, false, err
	}

	now := c.now().UTC()
	return c.store.CreateMatchIfAbsent(ctx, pairKey, models.Match{
		ID:                 pairKey,
		MatchID:            c.newID(),
		UserA:              userA,
		UserB:              userB,
		CompatibilityScore: score,
		SubScores:          sub,
		Status:             models.MatchStatusPending,
		MatchType:          matchType,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

// compatibility reads the cache and computes on miss. The pair is always scored in
// canonical order so both directions agree with each other and with the cache.
func (c *SwipeCoordinator) compatibility(ctx context.Context, pairKey, userA, userB string) (int, models.SubScores, error) {
	if entry, ok := c.cache.Get(ctx, pairKey); ok {
		return entry.Score, entry.SubScores, nil
	}

	a, err := c.snapshot(ctx, userA)
	if err != nil {
		return 0, models.SubScores{}, err
	}
	b, err := c.snapshot(ctx, userB)
	if err != nil {
		return 0, models.SubScores{}, err
	}

	result, err := c.scorer.Score(ctx, a, b)
	if err != nil {
		return 0, models.SubScores{}, fmt.Errorf("score %s: %w", pairKey, err)
	}
	metrics.CompatibilityScores.Observe(float64(result.Total))
	if len(result.Degraded) > 0 {
		c.log.Debug().Str("pair_key", pairKey).Strs("degraded", result.Degraded).Msg("ℹ️ scored with missing profile data")
	}

	// cache write failures are logged by the cache and otherwise ignored
	_ = c.cache.Put(ctx, pairKey, models.CacheEntry{
		Score:      result.Total,
		SubScores:  result.SubScores,
		ComputedAt: c.now().UTC(),
	}, 0)
	return result.Total, result.SubScores, nil
}

// snapshot loads a profile. A missing profile scores as empty (all factors degraded).
func (c *SwipeCoordinator) snapshot(ctx context.Context, userID string) (models.ProfileSnapshot, error) {
	if c.profiles == nil {
		return models.ProfileSnapshot{UserID: userID}, nil
	}
	profile, err := c.profiles.GetSnapshot(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		c.log.Warn().Str("user_id", userID).Msg("⚠️ no profile found, scoring with empty snapshot")
		return models.ProfileSnapshot{UserID: userID}, nil
	}
	if err != nil {
		return models.ProfileSnapshot{}, transient("get profile", err)
	}
	return profile, nil
}

// matchType is superlike when either side superliked.
func (c *SwipeCoordinator) matchType(ctx context.Context, swiperID, swipedID string, action models.SwipeAction) models.MatchType {
	if action == models.SwipeActionSuperlike {
		return models.MatchTypeSuperlike
	}
	other, err := c.store.GetSwipe(ctx, swipedID, swiperID)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", swipedID).Msg("⚠️ could not read counterpart swipe, assuming mutual")
		return models.MatchTypeMutual
	}
	if other != nil && other.Action == models.SwipeActionSuperlike {
		return models.MatchTypeSuperlike
	}
	return models.MatchTypeMutual
}
