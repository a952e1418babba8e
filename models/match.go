package models

import "time"

// SubScores are the per-factor compatibility scores in [0,100].
// Behavioral (location proximity) is nil when either profile has no coordinates.
type SubScores struct {
	Personality float64  `dynamodbav:"personality" json:"personality"`
	Travel      float64  `dynamodbav:"travel" json:"travel"`
	Budget      float64  `dynamodbav:"budget" json:"budget"`
	Interests   float64  `dynamodbav:"interests" json:"interests"`
	Logistics   float64  `dynamodbav:"logistics" json:"logistics"`
	Behavioral  *float64 `dynamodbav:"behavioral" json:"behavioral"`
}

// Match is the single record for an unordered user pair. ID is the canonical pair
// key, which is what the store's uniqueness constraint is enforced on.
type Match struct {
	ID                 string      `dynamodbav:"id" json:"pairKey"`
	MatchID            string      `dynamodbav:"matchId" json:"matchId"`
	UserA              string      `dynamodbav:"userA" json:"userA"`
	UserB              string      `dynamodbav:"userB" json:"userB"`
	CompatibilityScore int         `dynamodbav:"compatibilityScore" json:"compatibilityScore"`
	SubScores          SubScores   `dynamodbav:"subScores" json:"subScores"`
	Status             MatchStatus `dynamodbav:"status" json:"status"`
	MatchType          MatchType   `dynamodbav:"matchType" json:"matchType"`
	CreatedAt          time.Time   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Counterpart returns the other participant of the match.
func (m *Match) Counterpart(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// Participants returns both user ids in canonical order.
func (m *Match) Participants() []string {
	return []string{m.UserA, m.UserB}
}

// CacheEntry is a previously computed score for a pair. Derived data only.
type CacheEntry struct {
	PairKey    string    `json:"pairKey"`
	Score      int       `json:"score"`
	SubScores  SubScores `json:"subScores"`
	ComputedAt time.Time `json:"computedAt"`
	TTLSeconds int       `json:"ttlSeconds"`
}
