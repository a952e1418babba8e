package models

import "time"

// Personality types
type PersonalityType string

const (
	PersonalityAdventurer PersonalityType = "adventurer"
	PersonalityPlanner    PersonalityType = "planner"
	PersonalityRelaxer    PersonalityType = "relaxer"
	PersonalityCultural   PersonalityType = "cultural"
	PersonalitySocial     PersonalityType = "social"
	PersonalityFlexible   PersonalityType = "flexible"
)

// Budget tiers, ordered budget < moderate < luxury
const (
	BudgetLow      = "budget"
	BudgetModerate = "moderate"
	BudgetLuxury   = "luxury"
)

// Activity levels, ordered low < moderate < high
const (
	ActivityLow      = "low"
	ActivityModerate = "moderate"
	ActivityHigh     = "high"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `dynamodbav:"latitude" json:"latitude"`
	Longitude float64 `dynamodbav:"longitude" json:"longitude"`
}

// TravelPreferences holds the travel-related answers from a user's profile.
type TravelPreferences struct {
	Budget        string   `dynamodbav:"budget,omitempty" json:"budget,omitempty"`
	Pace          string   `dynamodbav:"pace,omitempty" json:"pace,omitempty"`
	ActivityLevel string   `dynamodbav:"activityLevel,omitempty" json:"activityLevel,omitempty"`
	TravelStyle   string   `dynamodbav:"travelStyle,omitempty" json:"travelStyle,omitempty"`
	Accommodation string   `dynamodbav:"accommodation,omitempty" json:"accommodation,omitempty"`
	Interests     []string `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
}

// ProfileSnapshot is a read-only copy of a user profile taken for one scoring call.
type ProfileSnapshot struct {
	UserID            string            `dynamodbav:"id" json:"id"`
	Name              string            `dynamodbav:"name,omitempty" json:"name,omitempty"`
	PersonalityType   PersonalityType   `dynamodbav:"personalityType,omitempty" json:"personalityType,omitempty"`
	Preferences       TravelPreferences `dynamodbav:"travelPreferences" json:"travelPreferences"`
	Languages         []string          `dynamodbav:"languages,omitempty" json:"languages,omitempty"`
	Location          *Coordinates      `dynamodbav:"location,omitempty" json:"location,omitempty"`
	VerificationLevel int               `dynamodbav:"verificationLevel,omitempty" json:"verificationLevel,omitempty"`
	LastActive        time.Time         `dynamodbav:"lastActive" json:"lastActive"`
}
