package services

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"tripmate_server/logging"
	"tripmate_server/models"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

var errBackendDown = errors.New("backend down")

func profileA() models.ProfileSnapshot {
	return models.ProfileSnapshot{
		UserID:          "alice",
		Name:            "Alice",
		PersonalityType: models.PersonalityAdventurer,
		Preferences: models.TravelPreferences{
			Budget:        models.BudgetModerate,
			ActivityLevel: models.ActivityHigh,
			Interests:     []string{"hiking", "food"},
		},
	}
}

func profileB() models.ProfileSnapshot {
	return models.ProfileSnapshot{
		UserID:          "bob",
		Name:            "Bob",
		PersonalityType: models.PersonalityFlexible,
		Preferences: models.TravelPreferences{
			Budget:        models.BudgetModerate,
			ActivityLevel: models.ActivityModerate,
			Interests:     []string{"food", "art"},
		},
	}
}

// staticProfiles is a ProfileProvider over a fixed map.
type staticProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.ProfileSnapshot
	err      error
	calls    int
}

func newStaticProfiles(profiles ...models.ProfileSnapshot) *staticProfiles {
	p := &staticProfiles{profiles: make(map[string]models.ProfileSnapshot)}
	for _, profile := range profiles {
		p.profiles[profile.UserID] = profile
	}
	return p
}

func (p *staticProfiles) GetSnapshot(_ context.Context, userID string) (models.ProfileSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return models.ProfileSnapshot{}, p.err
	}
	profile, ok := p.profiles[userID]
	if !ok {
		return models.ProfileSnapshot{}, ErrProfileNotFound
	}
	return profile, nil
}

// recordingNotifier counts NotifyMatch calls per pair.
type recordingNotifier struct {
	mu      sync.Mutex
	matches []models.Match
}

func (n *recordingNotifier) NotifyMatch(_ context.Context, match models.Match) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = append(n.matches, match)
	return 2
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.matches)
}

// recordingChannel captures pushed events.
type recordingChannel struct {
	mu     sync.Mutex
	events []pushedEvent
	err    error
}

type pushedEvent struct {
	name    string
	payload interface{}
}

func (c *recordingChannel) Push(_ context.Context, event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, pushedEvent{event, payload})
	return nil
}

func (c *recordingChannel) pushed() []pushedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pushedEvent(nil), c.events...)
}

// failingDocs is a DocumentStore whose every call fails.
type failingDocs struct{}

func (failingDocs) GetDocument(context.Context, string, string, interface{}) (bool, error) {
	return false, errBackendDown
}
func (failingDocs) PutDocument(context.Context, string, string, interface{}) error {
	return errBackendDown
}
func (failingDocs) PutDocumentIfAbsent(context.Context, string, string, interface{}) (bool, error) {
	return false, errBackendDown
}
func (failingDocs) UpdateFields(context.Context, string, string, map[string]interface{}) error {
	return errBackendDown
}
func (failingDocs) QueryByAttribute(context.Context, string, string, string, interface{}) error {
	return errBackendDown
}
func (failingDocs) AddToSet(context.Context, string, string, string, string) error {
	return errBackendDown
}
func (failingDocs) RemoveFromSet(context.Context, string, string, string, string) error {
	return errBackendDown
}
