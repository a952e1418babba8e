package services

import (
	"context"
	"math"
	"reflect"
	"testing"

	"tripmate_server/models"
)

func TestRuleBasedScorerScenario(t *testing.T) {
	scorer := NewRuleBasedScorer(SchemeStandard)

	result, err := scorer.Score(context.Background(), profileA(), profileB())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	sub := result.SubScores
	if sub.Personality != 100 {
		t.Errorf("Personality = %v, want 100 (flexible complements adventurer)", sub.Personality)
	}
	if sub.Budget != 100 {
		t.Errorf("Budget = %v, want 100", sub.Budget)
	}
	if sub.Interests != 50 {
		t.Errorf("Interests = %v, want 50", sub.Interests)
	}
	if math.Abs(sub.Logistics-66.67) > 0.001 {
		t.Errorf("Logistics = %v, want 66.67", sub.Logistics)
	}
	if sub.Behavioral != nil {
		t.Errorf("Behavioral = %v, want nil without coordinates", *sub.Behavioral)
	}

	w := scorer.Weights()
	weighted := w.Personality*sub.Personality + w.Travel*sub.Travel + w.Budget*sub.Budget +
		w.Interests*sub.Interests + w.Logistics*sub.Logistics
	want := int(math.Round(weighted / (w.Sum() - w.Behavioral)))
	if result.Total != want {
		t.Errorf("Total = %d, want %d", result.Total, want)
	}
}

func TestRuleBasedScorerDeterministic(t *testing.T) {
	for _, scheme := range []Scheme{SchemeStandard, SchemeEnhanced} {
		scorer := NewRuleBasedScorer(scheme)
		first, _ := scorer.Score(context.Background(), profileA(), profileB())
		second, _ := scorer.Score(context.Background(), profileA(), profileB())
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: results differ: %+v vs %+v", scheme, first, second)
		}
	}
}

func TestRuleBasedScorerSymmetryPolicy(t *testing.T) {
	a := profileA()
	c := profileB()
	c.Preferences.Interests = []string{"food"}

	standard := NewRuleBasedScorer(SchemeStandard)
	ab, _ := standard.Score(context.Background(), a, c)
	ba, _ := standard.Score(context.Background(), c, a)
	if ab.SubScores.Interests != 50 || ba.SubScores.Interests != 100 {
		t.Fatalf("standard interests = %v / %v, want 50 / 100", ab.SubScores.Interests, ba.SubScores.Interests)
	}
	if ab.Total == ba.Total {
		t.Errorf("standard scheme is expected to be asymmetric, got %d both ways", ab.Total)
	}

	enhanced := NewRuleBasedScorer(SchemeEnhanced)
	ab, _ = enhanced.Score(context.Background(), a, c)
	ba, _ = enhanced.Score(context.Background(), c, a)
	if ab.Total != ba.Total || ab.SubScores.Interests != ba.SubScores.Interests {
		t.Errorf("enhanced scheme should be symmetric: %+v vs %+v", ab, ba)
	}
}

func TestPersonalityScore(t *testing.T) {
	tests := []struct {
		a, b     models.PersonalityType
		want     float64
		complete bool
	}{
		{models.PersonalityPlanner, models.PersonalityPlanner, 90, true},
		{models.PersonalityAdventurer, models.PersonalityCultural, 100, true},
		{models.PersonalityCultural, models.PersonalityAdventurer, 100, true},
		{models.PersonalitySocial, models.PersonalityFlexible, 100, true},
		{models.PersonalityPlanner, models.PersonalitySocial, 60, true},
		{"", models.PersonalitySocial, 60, false},
	}
	for _, tt := range tests {
		got, ok := personalityScore(tt.a, tt.b)
		if got != tt.want || ok != tt.complete {
			t.Errorf("personalityScore(%q, %q) = %v, %v; want %v, %v", tt.a, tt.b, got, ok, tt.want, tt.complete)
		}
	}
}

func TestTravelStyleScoreIsSymmetrized(t *testing.T) {
	// luxury does not list cultural, cultural lists luxury
	if got, _ := travelStyleScore("luxury", "cultural", 25); got != 75 {
		t.Errorf("travelStyleScore(luxury, cultural) = %v, want 75", got)
	}
	if got, _ := travelStyleScore("Party", " party ", 25); got != 100 {
		t.Errorf("exact match = %v, want 100", got)
	}
	if got, _ := travelStyleScore("party", "luxury", 25); got != 25 {
		t.Errorf("unrelated standard = %v, want 25", got)
	}
	if got, _ := travelStyleScore("party", "luxury", 0); got != 0 {
		t.Errorf("unrelated strict = %v, want 0", got)
	}
}

func TestBudgetAndActivityScores(t *testing.T) {
	budget := []struct {
		a, b string
		want float64
	}{
		{models.BudgetLow, models.BudgetLow, 100},
		{models.BudgetLow, models.BudgetModerate, 75},
		{models.BudgetLuxury, models.BudgetModerate, 75},
		{models.BudgetLow, models.BudgetLuxury, 25},
	}
	for _, tt := range budget {
		if got, _ := budgetScore(tt.a, tt.b); got != tt.want {
			t.Errorf("budgetScore(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	if got, _ := activityScore(models.ActivityLow, models.ActivityHigh); math.Abs(got-33.34) > 0.001 {
		t.Errorf("activityScore(low, high) = %v, want 33.34", got)
	}
	if got, _ := activityScore(models.ActivityLow, models.ActivityLow); got != 100 {
		t.Errorf("activityScore(low, low) = %v, want 100", got)
	}
}

func TestLocationRedistribution(t *testing.T) {
	a, b := profileA(), profileB()
	paris := &models.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	a.Location, b.Location = paris, paris

	scorer := NewRuleBasedScorer(SchemeStandard)
	with, _ := scorer.Score(context.Background(), a, b)
	if with.SubScores.Behavioral == nil || *with.SubScores.Behavioral != 100 {
		t.Fatalf("Behavioral = %v, want 100 for same location", with.SubScores.Behavioral)
	}

	b.Location = nil
	without, _ := scorer.Score(context.Background(), a, b)
	if without.SubScores.Behavioral != nil {
		t.Fatal("Behavioral should be nil when one side has no coordinates")
	}
	if !contains(without.Degraded, FactorBehavioral) {
		t.Errorf("Degraded = %v, want behavioral listed", without.Degraded)
	}

	// with a perfect location score the weighted average can only go up
	if with.Total < without.Total {
		t.Errorf("total with location %d < without %d", with.Total, without.Total)
	}
}

func TestLocationScoreFarAway(t *testing.T) {
	paris := &models.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	sydney := &models.Coordinates{Latitude: -33.8688, Longitude: 151.2093}
	got := locationScore(paris, sydney)
	if got == nil || *got != 0 {
		t.Errorf("locationScore(paris, sydney) = %v, want 0", got)
	}
}

func TestDegradedProfiles(t *testing.T) {
	scorer := NewRuleBasedScorer(SchemeStandard)
	result, err := scorer.Score(context.Background(), models.ProfileSnapshot{UserID: "x"}, models.ProfileSnapshot{UserID: "y"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	want := []string{FactorPersonality, FactorTravel, FactorBudget, FactorInterests, FactorLogistics, FactorBehavioral}
	if !reflect.DeepEqual(result.Degraded, want) {
		t.Errorf("Degraded = %v, want %v", result.Degraded, want)
	}
	if result.SubScores.Interests != 0 {
		t.Errorf("Interests = %v, want 0", result.SubScores.Interests)
	}
}

func TestInterestsFallBackToLanguages(t *testing.T) {
	a := models.ProfileSnapshot{Languages: []string{"en", "fr"}}
	b := models.ProfileSnapshot{Languages: []string{"FR"}}
	result, _ := NewRuleBasedScorer(SchemeStandard).Score(context.Background(), a, b)
	if result.SubScores.Interests != 50 {
		t.Errorf("Interests = %v, want 50 from language overlap", result.SubScores.Interests)
	}
	if !contains(result.Degraded, FactorInterests) {
		t.Errorf("Degraded = %v, want interests listed", result.Degraded)
	}
}

func TestScoreBounds(t *testing.T) {
	personalities := []models.PersonalityType{"", models.PersonalityAdventurer, models.PersonalityPlanner, models.PersonalityFlexible}
	budgets := []string{"", models.BudgetLow, models.BudgetLuxury}
	styles := []string{"", "adventure", "luxury", "party"}
	interests := [][]string{nil, {"food"}, {"food", "art", "hiking"}}

	for _, scheme := range []Scheme{SchemeStandard, SchemeEnhanced} {
		scorer := NewRuleBasedScorer(scheme)
		for _, p := range personalities {
			for _, bud := range budgets {
				for _, style := range styles {
					for _, in := range interests {
						a := models.ProfileSnapshot{PersonalityType: p, Preferences: models.TravelPreferences{Budget: bud, TravelStyle: style, Interests: in}}
						b := models.ProfileSnapshot{PersonalityType: models.PersonalityCultural, Preferences: models.TravelPreferences{Budget: models.BudgetModerate, TravelStyle: "cultural", Interests: []string{"art"}}}
						result, _ := scorer.Score(context.Background(), a, b)
						if result.Total < 0 || result.Total > 100 {
							t.Fatalf("%s: Total = %d out of range for %+v", scheme, result.Total, a)
						}
					}
				}
			}
		}
	}
}

func TestWeightedTotalClamps(t *testing.T) {
	over := 500.0
	sub := models.SubScores{Personality: 100, Travel: 100, Budget: 100, Interests: 100, Logistics: 100, Behavioral: &over}
	if got := WeightedTotal(sub, schemes[SchemeStandard].weights); got != 100 {
		t.Errorf("WeightedTotal() = %d, want 100", got)
	}
	if got := WeightedTotal(models.SubScores{}, Weights{}); got != 0 {
		t.Errorf("WeightedTotal(zero weights) = %d, want 0", got)
	}
}

func TestSchemesWeightsSumToOne(t *testing.T) {
	for name, cfg := range schemes {
		if math.Abs(cfg.weights.Sum()-1) > 1e-9 {
			t.Errorf("%s weights sum to %v", name, cfg.weights.Sum())
		}
	}
}

func TestParseScheme(t *testing.T) {
	if s, err := ParseScheme(" Enhanced "); err != nil || s != SchemeEnhanced {
		t.Errorf("ParseScheme(Enhanced) = %q, %v", s, err)
	}
	if _, err := ParseScheme("fancy"); err == nil {
		t.Error("ParseScheme(fancy) should fail")
	}
	if got := NewRuleBasedScorer("fancy").Scheme(); got != SchemeStandard {
		t.Errorf("unknown scheme falls back to %q, want standard", got)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestPersonalityIgnoresCaseAndSpace(t *testing.T) {
	a, b := profileA(), profileB()
	a.PersonalityType = " Adventurer"
	b.PersonalityType = "FLEXIBLE "

	result, _ := NewRuleBasedScorer(SchemeStandard).Score(context.Background(), a, b)
	if result.SubScores.Personality != 100 {
		t.Errorf("Personality = %v, want 100", result.SubScores.Personality)
	}
	if contains(result.Degraded, FactorPersonality) {
		t.Error("personality should not be degraded")
	}
}
