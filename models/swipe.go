package models

import (
	"time"

	"tripmate_server/utils"
)

// SwipeRecord is the latest action one user took on another. The document id is
// "<swiperId>#<swipedId>", so there is at most one record per ordered pair.
type SwipeRecord struct {
	ID        string      `dynamodbav:"id" json:"id"`
	SwiperID  string      `dynamodbav:"swiperId" json:"swiperId"`
	SwipedID  string      `dynamodbav:"swipedId" json:"swipedId"`
	Action    SwipeAction `dynamodbav:"action" json:"action"`
	Timestamp time.Time   `dynamodbav:"timestamp" json:"timestamp"`
}

// SwipeID returns the document id of the ordered (swiper, swiped) pair.
func SwipeID(swiperID, swipedID string) string {
	return swiperID + utils.SwipeKeySeparator + swipedID
}

// RejectionSet is the set of users a swiper has rejected, used to exclude them from
// future candidate lists.
type RejectionSet struct {
	ID       string   `dynamodbav:"id" json:"id"`
	Rejected []string `dynamodbav:"rejected,stringset,omitempty" json:"rejected,omitempty"`
}
