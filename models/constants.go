package models

// Swipe actions
type SwipeAction string

const (
	SwipeActionLike      SwipeAction = "like"
	SwipeActionReject    SwipeAction = "reject"
	SwipeActionSuperlike SwipeAction = "superlike"
)

// Valid reports whether a is a known swipe action.
func (a SwipeAction) Valid() bool {
	switch a {
	case SwipeActionLike, SwipeActionReject, SwipeActionSuperlike:
		return true
	}
	return false
}

// IsLike reports whether the action counts as interest for reciprocity checks.
func (a SwipeAction) IsLike() bool {
	return a == SwipeActionLike || a == SwipeActionSuperlike
}

// Match statuses
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
	MatchStatusExpired  MatchStatus = "expired"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected, MatchStatusExpired:
		return true
	}
	return false
}

// Match types
type MatchType string

const (
	MatchTypeMutual        MatchType = "mutual"
	MatchTypeSuperlike     MatchType = "superlike"
	MatchTypeBoost         MatchType = "boost"
	MatchTypeAIRecommended MatchType = "ai_recommended"
)

// Table names
const (
	SwipesTable     = "Swipes"
	MatchesTable    = "Matches"
	RejectionsTable = "Rejections"
	ProfilesTable   = "TravelProfiles"
)

// Index attributes. DynamoDB GSIs are named "<attribute>-index".
const (
	SwiperIDAttribute = "swiperId"
	UserAAttribute    = "userA"
	UserBAttribute    = "userB"
	MatchIDAttribute  = "matchId"
	RejectedAttribute = "rejected"
)
