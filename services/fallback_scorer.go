package services

import (
	"context"

	"tripmate_server/logging"
	"tripmate_server/metrics"
	"tripmate_server/models"
)

// FallbackScorer tries the primary scorer and falls back to the rule-based scorer
// on any error. It never returns an error from the primary.
type FallbackScorer struct {
	primary  Scorer
	fallback *RuleBasedScorer
	name     string
}

type namedScorer interface {
	Name() string
}

// NewFallbackScorer wraps primary. A nil primary scores with the fallback only.
func NewFallbackScorer(primary Scorer, fallback *RuleBasedScorer) *FallbackScorer {
	if fallback == nil {
		fallback = NewRuleBasedScorer(SchemeStandard)
	}
	name := "primary"
	if n, ok := primary.(namedScorer); ok {
		name = n.Name()
	}
	return &FallbackScorer{primary: primary, fallback: fallback, name: name}
}

func (f *FallbackScorer) Score(ctx context.Context, a, b models.ProfileSnapshot) (ScoreResult, error) {
	if f.primary != nil {
		result, err := f.primary.Score(ctx, a, b)
		if err == nil {
			return result, nil
		}
		metrics.ScorerFallbacks.WithLabelValues(f.name).Inc()
		logging.Warn().Err(err).Str("scorer", f.name).Str("user_a", a.UserID).Str("user_b", b.UserID).
			Msg("⚠️ primary scorer failed, using rule-based scorer")
	}
	return f.fallback.Score(ctx, a, b)
}
