package models

// Event names pushed over live channels
const (
	EventMatchCreated = "match_created"
)

// CounterpartSummary is the little bit of the other user shown with a match notification.
type CounterpartSummary struct {
	UserID          string          `json:"userId"`
	Name            string          `json:"name,omitempty"`
	PersonalityType PersonalityType `json:"personalityType,omitempty"`
}

// MatchCreatedEvent is pushed to each participant when a match is created.
type MatchCreatedEvent struct {
	MatchID            string             `json:"matchId"`
	PairKey            string             `json:"pairKey"`
	CompatibilityScore int                `json:"compatibilityScore"`
	MatchType          MatchType          `json:"matchType"`
	Counterpart        CounterpartSummary `json:"counterpart"`
}
