package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"tripmate_server/logging"
	"tripmate_server/models"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Learned-model features on top of the rule factors.
const (
	FeatureVerification = "verification"
	FeatureRecency      = "recency"
)

const maxVerificationLevel = 3

// LearnedScorerConfig configures a LearnedScorer.
type LearnedScorerConfig struct {
	Source          ModelSource
	Base            *RuleBasedScorer
	RefreshInterval time.Duration
	// BreakerFailures consecutive fetch failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// LearnedScorer scores with a logistic model over the rule-based sub-scores plus
// verification and activity-recency features. Scoring itself is pure; the model is
// swapped in by Refresh, which runs behind a circuit breaker.
type LearnedScorer struct {
	base     *RuleBasedScorer
	source   ModelSource
	breaker  *gobreaker.CircuitBreaker[*LinearModel]
	interval time.Duration
	log      zerolog.Logger

	mu    sync.RWMutex
	model *LinearModel
}

func NewLearnedScorer(cfg LearnedScorerConfig) *LearnedScorer {
	if cfg.Base == nil {
		cfg.Base = NewRuleBasedScorer(SchemeStandard)
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 15 * time.Minute
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	log := logging.Component("learned-scorer")
	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*LinearModel](gobreaker.Settings{
		Name:    "model-source",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("⚠️ model source breaker changed state")
		},
	})

	return &LearnedScorer{
		base:     cfg.Base,
		source:   cfg.Source,
		breaker:  breaker,
		interval: cfg.RefreshInterval,
		log:      log,
	}
}

func (s *LearnedScorer) Name() string {
	return "learned"
}

// Model returns the loaded model, or nil.
func (s *LearnedScorer) Model() *LinearModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel installs a model directly.
func (s *LearnedScorer) SetModel(m *LinearModel) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Refresh fetches the model through the breaker. On failure the previous model,
// if any, stays in use.
func (s *LearnedScorer) Refresh(ctx context.Context) error {
	model, err := s.breaker.Execute(func() (*LinearModel, error) {
		return s.source.FetchModel(ctx)
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("⚠️ failed to refresh scoring model")
		return fmt.Errorf("refresh model: %w", err)
	}
	s.SetModel(model)
	s.log.Info().Str("version", model.Version).Int("weights", len(model.Weights)).Msg("✅ scoring model loaded")
	return nil
}

// Serve refreshes the model immediately and then every refresh interval until ctx
// is done. It implements suture.Service.
func (s *LearnedScorer) Serve(ctx context.Context) error {
	_ = s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

func (s *LearnedScorer) Score(ctx context.Context, a, b models.ProfileSnapshot) (ScoreResult, error) {
	model := s.Model()
	if model == nil {
		return ScoreResult{}, ErrModelUnavailable
	}

	base, err := s.base.Score(ctx, a, b)
	if err != nil {
		return ScoreResult{}, err
	}

	features := Features(base.SubScores, a, b)
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	z := model.Bias
	for _, name := range names {
		z += model.Weights[name] * features[name]
	}
	probability := 1 / (1 + math.Exp(-z))

	return ScoreResult{
		Total:     clampScore(math.Round(probability * 100)),
		SubScores: base.SubScores,
		Degraded:  base.Degraded,
		Scorer:    s.Name(),
	}, nil
}

// Features maps sub-scores and profile signals to [0,1] model inputs.
func Features(sub models.SubScores, a, b models.ProfileSnapshot) map[string]float64 {
	features := map[string]float64{
		FactorPersonality: sub.Personality / 100,
		FactorTravel:      sub.Travel / 100,
		FactorBudget:      sub.Budget / 100,
		FactorInterests:   sub.Interests / 100,
		FactorLogistics:   sub.Logistics / 100,
		FactorBehavioral:  0,
	}
	if sub.Behavioral != nil {
		features[FactorBehavioral] = *sub.Behavioral / 100
	}

	verification := math.Min(float64(a.VerificationLevel), float64(b.VerificationLevel))
	features[FeatureVerification] = math.Max(0, math.Min(1, verification/maxVerificationLevel))

	// decays with the gap between the two users' last activity, one week half-life
	if !a.LastActive.IsZero() && !b.LastActive.IsZero() {
		gap := a.LastActive.Sub(b.LastActive)
		if gap < 0 {
			gap = -gap
		}
		features[FeatureRecency] = math.Pow(0.5, gap.Hours()/(7*24))
	}
	return features
}
