package services

import (
	"context"
	"testing"
	"time"

	"tripmate_server/models"
)

func testMatch() models.Match {
	return models.Match{
		ID:                 "alice:bob",
		MatchID:            "m-1",
		UserA:              "alice",
		UserB:              "bob",
		CompatibilityScore: 81,
		MatchType:          models.MatchTypeMutual,
	}
}

func TestNotifyMatchBothOffline(t *testing.T) {
	d := NewNotificationDispatcher(NewConnectionRegistry(time.Minute), nil, time.Second)
	if got := d.NotifyMatch(context.Background(), testMatch()); got != 0 {
		t.Errorf("NotifyMatch() = %d, want 0", got)
	}
}

func TestNotifyMatchBothOnline(t *testing.T) {
	registry := NewConnectionRegistry(time.Minute)
	alice, bob := &recordingChannel{}, &recordingChannel{}
	registry.Register("alice", alice)
	registry.Register("bob", bob)

	d := NewNotificationDispatcher(registry, newStaticProfiles(profileA(), profileB()), time.Second)
	if got := d.NotifyMatch(context.Background(), testMatch()); got != 2 {
		t.Fatalf("NotifyMatch() = %d, want 2", got)
	}

	for user, tc := range map[string]struct {
		ch          *recordingChannel
		counterpart string
		name        string
	}{
		"alice": {alice, "bob", "Bob"},
		"bob":   {bob, "alice", "Alice"},
	} {
		events := tc.ch.pushed()
		if len(events) != 1 || events[0].name != models.EventMatchCreated {
			t.Fatalf("%s events = %+v", user, events)
		}
		event := events[0].payload.(models.MatchCreatedEvent)
		if event.PairKey != "alice:bob" || event.CompatibilityScore != 81 {
			t.Errorf("%s event = %+v", user, event)
		}
		if event.Counterpart.UserID != tc.counterpart || event.Counterpart.Name != tc.name {
			t.Errorf("%s counterpart = %+v", user, event.Counterpart)
		}
	}
}

func TestNotifyMatchOneOnline(t *testing.T) {
	registry := NewConnectionRegistry(time.Minute)
	bob := &recordingChannel{}
	registry.Register("bob", bob)

	// counterpart lookup failures still deliver with the user id only
	profiles := newStaticProfiles()
	profiles.err = errBackendDown

	d := NewNotificationDispatcher(registry, profiles, time.Second)
	if got := d.NotifyMatch(context.Background(), testMatch()); got != 1 {
		t.Fatalf("NotifyMatch() = %d, want 1", got)
	}
	event := bob.pushed()[0].payload.(models.MatchCreatedEvent)
	if event.Counterpart.UserID != "alice" || event.Counterpart.Name != "" {
		t.Errorf("counterpart = %+v", event.Counterpart)
	}
}

func TestNotifyMatchFailedPushIsSwallowed(t *testing.T) {
	registry := NewConnectionRegistry(time.Minute)
	registry.Register("alice", &recordingChannel{err: errBackendDown})
	registry.Register("bob", &recordingChannel{})

	d := NewNotificationDispatcher(registry, nil, time.Second)
	if got := d.NotifyMatch(context.Background(), testMatch()); got != 1 {
		t.Errorf("NotifyMatch() = %d, want 1", got)
	}
}
