package services

import (
	"context"
	"errors"
	"fmt"

	"tripmate_server/models"
)

// ErrProfileNotFound is returned when a user has no profile document.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileProvider returns a consistent snapshot of a user's profile.
type ProfileProvider interface {
	GetSnapshot(ctx context.Context, userID string) (models.ProfileSnapshot, error)
}

// DocumentProfileProvider reads profile documents owned by the profile service.
type DocumentProfileProvider struct {
	docs  DocumentStore
	table string
}

func NewDocumentProfileProvider(docs DocumentStore, table string) *DocumentProfileProvider {
	if table == "" {
		table = models.ProfilesTable
	}
	return &DocumentProfileProvider{docs: docs, table: table}
}

func (p *DocumentProfileProvider) GetSnapshot(ctx context.Context, userID string) (models.ProfileSnapshot, error) {
	var snapshot models.ProfileSnapshot
	found, err := p.docs.GetDocument(ctx, p.table, userID, &snapshot)
	if err != nil {
		return models.ProfileSnapshot{}, transient("get profile", err)
	}
	if !found {
		return models.ProfileSnapshot{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	snapshot.UserID = userID
	return snapshot, nil
}
