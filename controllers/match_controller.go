package controllers

import (
	"net/http"
	"strings"

	"tripmate_server/helpers"
	"tripmate_server/models"
	"tripmate_server/services"
	"tripmate_server/utils"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// MatchController serves the read path over MatchStore and the status update
type MatchController struct {
	Store services.MatchStore
}

// NewMatchController creates a new MatchController instance
func NewMatchController(store services.MatchStore) *MatchController {
	return &MatchController{Store: store}
}

// GetMatches lists the matches of ?userId=, newest first
func (mc *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "userId is required")
		return
	}

	matches, err := mc.Store.FindByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"userId":  userID,
		"count":   len(matches),
		"matches": matches,
	})
}

// GetPair returns the match between ?userA= and ?userB=
func (mc *MatchController) GetPair(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userA, userB := strings.TrimSpace(query.Get("userA")), strings.TrimSpace(query.Get("userB"))
	if userA == "" || userB == "" || userA == userB {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "userA and userB must be two different users")
		return
	}

	match, err := mc.Store.FindPair(r.Context(), userA, userB)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, match)
}

// GetRejected lists who ?userId= has rejected
func (mc *MatchController) GetRejected(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "userId is required")
		return
	}

	rejected, err := mc.Store.RejectedBy(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"userId":   userID,
		"rejected": rejected,
	})
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected expired"`
}

// UpdateStatus sets the status of the match identified by {pairKey}
func (mc *MatchController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	pairKey := mux.Vars(r)["pairKey"]
	a, b, ok := utils.SplitPairKey(pairKey)
	if !ok || utils.PairKey(a, b) != pairKey {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "invalid pair key")
		return
	}

	var request statusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	match, err := mc.Store.UpdateStatus(r.Context(), pairKey, models.MatchStatus(request.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, match)
}
