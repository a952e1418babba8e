package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tripmate_server/models"
	"tripmate_server/utils"
)

// MatchStore is the durable record of swipes and matches. It is the source of
// truth for match state and the only place two swipes on one pair serialise.
type MatchStore interface {
	RecordSwipe(ctx context.Context, swiperID, swipedID string, action models.SwipeAction) (*models.SwipeRecord, error)
	GetSwipe(ctx context.Context, swiperID, swipedID string) (*models.SwipeRecord, error)
	HasReciprocalLike(ctx context.Context, swiperID, swipedID string) (bool, error)
	CreateMatchIfAbsent(ctx context.Context, pairKey string, match models.Match) (*models.Match, bool, error)
	AddRejected(ctx context.Context, swiperID, targetID string) error
	ClearRejected(ctx context.Context, swiperID, targetID string) error
	RejectedBy(ctx context.Context, userID string) ([]string, error)
	FindByUser(ctx context.Context, userID string) ([]models.Match, error)
	FindPair(ctx context.Context, userA, userB string) (*models.Match, error)
	UpdateStatus(ctx context.Context, pairKey string, status models.MatchStatus) (*models.Match, error)
}

// Tables names the collections a DocumentMatchStore writes to.
type Tables struct {
	Swipes     string
	Matches    string
	Rejections string
}

func DefaultTables() Tables {
	return Tables{
		Swipes:     models.SwipesTable,
		Matches:    models.MatchesTable,
		Rejections: models.RejectionsTable,
	}
}

// DocumentMatchStore implements MatchStore on a DocumentStore. Backend failures are
// returned as *TransientStoreError.
type DocumentMatchStore struct {
	docs   DocumentStore
	tables Tables
	now    func() time.Time
}

func NewDocumentMatchStore(docs DocumentStore, tables Tables) *DocumentMatchStore {
	return &DocumentMatchStore{docs: docs, tables: tables, now: time.Now}
}

// RecordSwipe upserts the swipe for the ordered pair; the most recent action wins.
func (s *DocumentMatchStore) RecordSwipe(ctx context.Context, swiperID, swipedID string, action models.SwipeAction) (*models.SwipeRecord, error) {
	record := models.SwipeRecord{
		ID:        models.SwipeID(swiperID, swipedID),
		SwiperID:  swiperID,
		SwipedID:  swipedID,
		Action:    action,
		Timestamp: s.now().UTC(),
	}
	if err := s.docs.PutDocument(ctx, s.tables.Swipes, record.ID, record); err != nil {
		return nil, transient("record swipe", err)
	}
	return &record, nil
}

// GetSwipe returns the current swipe for the ordered pair, or nil.
func (s *DocumentMatchStore) GetSwipe(ctx context.Context, swiperID, swipedID string) (*models.SwipeRecord, error) {
	var record models.SwipeRecord
	found, err := s.docs.GetDocument(ctx, s.tables.Swipes, models.SwipeID(swiperID, swipedID), &record)
	if err != nil {
		return nil, transient("get swipe", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// HasReciprocalLike reports whether swipedID currently likes swiperID.
func (s *DocumentMatchStore) HasReciprocalLike(ctx context.Context, swiperID, swipedID string) (bool, error) {
	record, err := s.GetSwipe(ctx, swipedID, swiperID)
	if err != nil {
		return false, err
	}
	return record != nil && record.Action.IsLike(), nil
}

// CreateMatchIfAbsent inserts match under pairKey unless one exists. A caller that
// loses the race gets the winner's record and created=false.
func (s *DocumentMatchStore) CreateMatchIfAbsent(ctx context.Context, pairKey string, match models.Match) (*models.Match, bool, error) {
	match.ID = pairKey
	created, err := s.docs.PutDocumentIfAbsent(ctx, s.tables.Matches, pairKey, match)
	if err != nil {
		return nil, false, transient("create match", err)
	}
	if created {
		return &match, true, nil
	}

	var existing models.Match
	found, err := s.docs.GetDocument(ctx, s.tables.Matches, pairKey, &existing)
	if err != nil {
		return nil, false, transient("read existing match", err)
	}
	if !found {
		return nil, false, transient("read existing match", fmt.Errorf("match %s vanished after conflicting insert", pairKey))
	}
	return &existing, false, nil
}

func (s *DocumentMatchStore) AddRejected(ctx context.Context, swiperID, targetID string) error {
	err := s.docs.AddToSet(ctx, s.tables.Rejections, swiperID, models.RejectedAttribute, targetID)
	return transient("add rejected", err)
}

func (s *DocumentMatchStore) ClearRejected(ctx context.Context, swiperID, targetID string) error {
	err := s.docs.RemoveFromSet(ctx, s.tables.Rejections, swiperID, models.RejectedAttribute, targetID)
	return transient("clear rejected", err)
}

// RejectedBy lists the users userID has rejected, sorted.
func (s *DocumentMatchStore) RejectedBy(ctx context.Context, userID string) ([]string, error) {
	var set models.RejectionSet
	found, err := s.docs.GetDocument(ctx, s.tables.Rejections, userID, &set)
	if err != nil {
		return nil, transient("get rejected", err)
	}
	if !found {
		return []string{}, nil
	}
	rejected := append([]string(nil), set.Rejected...)
	sort.Strings(rejected)
	return rejected, nil
}

// FindByUser returns every match the user takes part in, newest first.
func (s *DocumentMatchStore) FindByUser(ctx context.Context, userID string) ([]models.Match, error) {
	var asA, asB []models.Match
	if err := s.docs.QueryByAttribute(ctx, s.tables.Matches, models.UserAAttribute, userID, &asA); err != nil {
		return nil, transient("find matches", err)
	}
	if err := s.docs.QueryByAttribute(ctx, s.tables.Matches, models.UserBAttribute, userID, &asB); err != nil {
		return nil, transient("find matches", err)
	}

	seen := make(map[string]bool, len(asA)+len(asB))
	matches := make([]models.Match, 0, len(asA)+len(asB))
	for _, m := range append(asA, asB...) {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// FindPair returns the match for the unordered pair or ErrNotFound.
func (s *DocumentMatchStore) FindPair(ctx context.Context, userA, userB string) (*models.Match, error) {
	var match models.Match
	found, err := s.docs.GetDocument(ctx, s.tables.Matches, utils.PairKey(userA, userB), &match)
	if err != nil {
		return nil, transient("find pair", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &match, nil
}

// UpdateStatus sets the externally managed status field.
func (s *DocumentMatchStore) UpdateStatus(ctx context.Context, pairKey string, status models.MatchStatus) (*models.Match, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := s.docs.UpdateFields(ctx, s.tables.Matches, pairKey, map[string]interface{}{
		"status":    string(status),
		"updatedAt": s.now().UTC(),
	})
	if err != nil {
		return nil, transient("update match status", err)
	}

	var match models.Match
	found, err := s.docs.GetDocument(ctx, s.tables.Matches, pairKey, &match)
	if err != nil {
		return nil, transient("read match", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &match, nil
}
