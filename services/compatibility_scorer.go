package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"tripmate_server/models"
	"tripmate_server/utils"
)

// Scorer computes a compatibility score for two profile snapshots.
type Scorer interface {
	Score(ctx context.Context, a, b models.ProfileSnapshot) (ScoreResult, error)
}

// ScoreResult is a total in [0,100] and the sub-scores it was built from.
type ScoreResult struct {
	Total     int
	SubScores models.SubScores
	// Degraded lists the factors that were scored on fallback values because a
	// profile lacked the data.
	Degraded []string
	// Scorer names the implementation that produced the result.
	Scorer string
}

// Scheme selects one of the two weighting configurations.
type Scheme string

const (
	// SchemeStandard keeps the directional interest overlap (|A∩B| / |A|).
	SchemeStandard Scheme = "standard"
	// SchemeEnhanced weights interests and logistics higher, uses Jaccard overlap
	// and scores unrelated travel styles as 0.
	SchemeEnhanced Scheme = "enhanced"
)

// Factor names, also used as learned-model feature names.
const (
	FactorPersonality = "personality"
	FactorTravel      = "travel"
	FactorBudget      = "budget"
	FactorInterests   = "interests"
	FactorLogistics   = "logistics"
	FactorBehavioral  = "behavioral"
)

// Weights of each factor. They sum to 1.
type Weights struct {
	Personality float64
	Travel      float64
	Budget      float64
	Interests   float64
	Logistics   float64
	Behavioral  float64
}

func (w Weights) Sum() float64 {
	return w.Personality + w.Travel + w.Budget + w.Interests + w.Logistics + w.Behavioral
}

type schemeConfig struct {
	weights        Weights
	unrelatedStyle float64
	overlap        func(a, b []string) float64
}

var schemes = map[Scheme]schemeConfig{
	SchemeStandard: {
		weights: Weights{
			Personality: 0.25,
			Travel:      0.20,
			Budget:      0.15,
			Interests:   0.20,
			Logistics:   0.10,
			Behavioral:  0.10,
		},
		unrelatedStyle: 25,
		overlap:        directionalOverlap,
	},
	SchemeEnhanced: {
		weights: Weights{
			Personality: 0.20,
			Travel:      0.15,
			Budget:      0.10,
			Interests:   0.25,
			Logistics:   0.15,
			Behavioral:  0.15,
		},
		unrelatedStyle: 0,
		overlap:        jaccardOverlap,
	},
}

// ParseScheme validates a scheme name.
func ParseScheme(name string) (Scheme, error) {
	s := Scheme(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := schemes[s]; !ok {
		return "", fmt.Errorf("unknown scoring scheme %q", name)
	}
	return s, nil
}

// complementary personality types. Read through personalityCompatible, which is
// symmetric even where a list omits its counterpart.
var complementaryPersonalities = map[models.PersonalityType][]models.PersonalityType{
	models.PersonalityAdventurer: {models.PersonalityFlexible, models.PersonalityCultural},
	models.PersonalityPlanner:    {models.PersonalityCultural, models.PersonalityFlexible},
	models.PersonalityRelaxer:    {models.PersonalitySocial, models.PersonalityFlexible},
	models.PersonalityCultural:   {models.PersonalityAdventurer, models.PersonalityPlanner},
	models.PersonalitySocial:     {models.PersonalityRelaxer, models.PersonalityFlexible},
	models.PersonalityFlexible: {
		models.PersonalityAdventurer, models.PersonalityPlanner, models.PersonalityRelaxer,
		models.PersonalityCultural, models.PersonalitySocial,
	},
}

var compatibleTravelStyles = map[string][]string{
	"adventure":   {"backpacking", "cultural"},
	"backpacking": {"adventure", "party"},
	"cultural":    {"adventure", "relaxation", "luxury"},
	"relaxation":  {"cultural", "luxury"},
	"party":       {"backpacking"},
	"luxury":      {"relaxation"},
}

var (
	personalityPairs = symmetrize(complementaryPersonalities)
	travelStylePairs = symmetrize(compatibleTravelStyles)
)

func symmetrize[K ~string](table map[K][]K) map[K]map[K]bool {
	out := make(map[K]map[K]bool)
	add := func(a, b K) {
		if out[a] == nil {
			out[a] = make(map[K]bool)
		}
		out[a][b] = true
	}
	for k, vs := range table {
		for _, v := range vs {
			add(k, v)
			add(v, k)
		}
	}
	return out
}

var (
	budgetTiers   = map[string]int{models.BudgetLow: 0, models.BudgetModerate: 1, models.BudgetLuxury: 2}
	activityTiers = map[string]int{models.ActivityLow: 0, models.ActivityModerate: 1, models.ActivityHigh: 2}
)

// RuleBasedScorer is the deterministic scorer. It does no I/O and is always
// available as the fallback for any other Scorer.
type RuleBasedScorer struct {
	scheme Scheme
	cfg    schemeConfig
}

// NewRuleBasedScorer returns a scorer for scheme; unknown schemes fall back to standard.
func NewRuleBasedScorer(scheme Scheme) *RuleBasedScorer {
	cfg, ok := schemes[scheme]
	if !ok {
		scheme = SchemeStandard
		cfg = schemes[SchemeStandard]
	}
	return &RuleBasedScorer{scheme: scheme, cfg: cfg}
}

func (s *RuleBasedScorer) Scheme() Scheme {
	return s.scheme
}

func (s *RuleBasedScorer) Weights() Weights {
	return s.cfg.weights
}

func (s *RuleBasedScorer) Name() string {
	return "rule_based/" + string(s.scheme)
}

// Score is a pure function of the two snapshots. It is not symmetric under the
// standard scheme because interest overlap is measured against a's interests.
func (s *RuleBasedScorer) Score(_ context.Context, a, b models.ProfileSnapshot) (ScoreResult, error) {
	var degraded []string
	note := func(factor string, ok bool) {
		if !ok {
			degraded = append(degraded, factor)
		}
	}

	personality, ok := personalityScore(a.PersonalityType, b.PersonalityType)
	note(FactorPersonality, ok)
	travel, ok := travelStyleScore(a.Preferences.TravelStyle, b.Preferences.TravelStyle, s.cfg.unrelatedStyle)
	note(FactorTravel, ok)
	budget, ok := budgetScore(a.Preferences.Budget, b.Preferences.Budget)
	note(FactorBudget, ok)
	interests, ok := s.interestScore(a, b)
	note(FactorInterests, ok)
	logistics, ok := activityScore(a.Preferences.ActivityLevel, b.Preferences.ActivityLevel)
	note(FactorLogistics, ok)
	behavioral := locationScore(a.Location, b.Location)
	note(FactorBehavioral, behavioral != nil)

	sub := models.SubScores{
		Personality: personality,
		Travel:      travel,
		Budget:      budget,
		Interests:   interests,
		Logistics:   logistics,
		Behavioral:  behavioral,
	}

	return ScoreResult{
		Total:     WeightedTotal(sub, s.cfg.weights),
		SubScores: sub,
		Degraded:  degraded,
		Scorer:    s.Name(),
	}, nil
}

// WeightedTotal combines sub-scores. When Behavioral is nil its weight is
// redistributed across the other factors in proportion to their weights.
func WeightedTotal(sub models.SubScores, w Weights) int {
	sum := w.Personality*sub.Personality +
		w.Travel*sub.Travel +
		w.Budget*sub.Budget +
		w.Interests*sub.Interests +
		w.Logistics*sub.Logistics

	weight := w.Sum()
	if sub.Behavioral != nil {
		sum += w.Behavioral * *sub.Behavioral
	} else {
		weight -= w.Behavioral
	}
	if weight <= 0 {
		return 0
	}
	return clampScore(math.Round(sum / weight))
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v)
}

func personalityScore(a, b models.PersonalityType) (float64, bool) {
	a = models.PersonalityType(normalize(string(a)))
	b = models.PersonalityType(normalize(string(b)))
	if a == "" || b == "" {
		return 60, false
	}
	switch {
	case a == b:
		return 90, true
	case personalityPairs[a][b]:
		return 100, true
	}
	return 60, true
}

func travelStyleScore(a, b string, unrelated float64) (float64, bool) {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return unrelated, false
	}
	switch {
	case a == b:
		return 100, true
	case travelStylePairs[a][b]:
		return 75, true
	}
	return unrelated, true
}

func budgetScore(a, b string) (float64, bool) {
	ta, okA := budgetTiers[normalize(a)]
	tb, okB := budgetTiers[normalize(b)]
	if !okA || !okB {
		return 25, false
	}
	switch abs(ta - tb) {
	case 0:
		return 100, true
	case 1:
		return 75, true
	}
	return 25, true
}

func activityScore(a, b string) (float64, bool) {
	ta, okA := activityTiers[normalize(a)]
	tb, okB := activityTiers[normalize(b)]
	if !okA || !okB {
		return 50, false
	}
	score := 100 - float64(abs(ta-tb))*33.33
	return math.Max(0, math.Min(100, score)), true
}

// interestScore uses interests, or languages when a has listed no interests.
func (s *RuleBasedScorer) interestScore(a, b models.ProfileSnapshot) (float64, bool) {
	if len(a.Preferences.Interests) > 0 {
		return s.cfg.overlap(a.Preferences.Interests, b.Preferences.Interests), true
	}
	if len(a.Languages) > 0 {
		return s.cfg.overlap(a.Languages, b.Languages), false
	}
	return 0, false
}

func locationScore(a, b *models.Coordinates) *float64 {
	if a == nil || b == nil {
		return nil
	}
	km := utils.CalculateDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	score := math.Max(0, 100-km/100)
	return &score
}

// directionalOverlap is min(100, |A∩B| / |A| * 100).
func directionalOverlap(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 {
		return 0
	}
	shared := 0
	for v := range setA {
		if setB[v] {
			shared++
		}
	}
	return math.Min(100, float64(shared)/float64(len(setA))*100)
}

// jaccardOverlap is |A∩B| / |A∪B| * 100.
func jaccardOverlap(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	union := len(setA)
	shared := 0
	for v := range setB {
		if setA[v] {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union) * 100
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = normalize(v); v != "" {
			set[v] = true
		}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
