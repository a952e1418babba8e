package controllers

import (
	"context"
	"net/http"

	"tripmate_server/helpers"
	"tripmate_server/models"
	"tripmate_server/services"

	"github.com/goccy/go-json"
)

// Swiper is the swipe entry point of the matchmaking core.
type Swiper interface {
	Swipe(ctx context.Context, swiperID, swipedID string, action models.SwipeAction) (services.SwipeOutcome, error)
}

// SwipeController handles HTTP requests for swipes
type SwipeController struct {
	Coordinator Swiper
	Limiter     *UserRateLimiter
}

// NewSwipeController creates a new SwipeController instance
func NewSwipeController(coordinator Swiper, limiter *UserRateLimiter) *SwipeController {
	return &SwipeController{Coordinator: coordinator, Limiter: limiter}
}

type swipeRequest struct {
	SwiperID string `json:"swiperId" validate:"required,excludesall=:#"`
	SwipedID string `json:"swipedId" validate:"required,excludesall=:#,nefield=SwiperID"`
	Action   string `json:"action" validate:"required,oneof=like reject superlike"`
}

// HandleSwipe records a swipe and reports whether it produced a match
func (sc *SwipeController) HandleSwipe(w http.ResponseWriter, r *http.Request) {
	var request swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if !sc.Limiter.Allow(request.SwiperID) {
		w.Header().Set("Retry-After", "1")
		helpers.WriteErrorResponse(w, http.StatusTooManyRequests, "too many swipes, slow down")
		return
	}

	outcome, err := sc.Coordinator.Swipe(r.Context(), request.SwiperID, request.SwipedID, models.SwipeAction(request.Action))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if outcome.State == services.SwipeMatchCreated {
		status = http.StatusCreated
	}
	helpers.WriteJSONResponse(w, status, outcome)
}
