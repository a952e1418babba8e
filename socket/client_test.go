package socket

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestConnStateString(t *testing.T) {
	for state, want := range map[ConnState]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		ConnState(9):      "ConnState(9)",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}

func TestClientScheduleDoublesToCap(t *testing.T) {
	c := NewClient(ClientConfig{URL: "ws://localhost/ws", UserID: "alice"})
	b := c.Schedule()

	want := []time.Duration{1, 2, 4, 8, 16, 30, 30}
	for i, w := range want {
		if got := b.NextBackOff(); got != w*time.Second {
			t.Errorf("interval %d = %v, want %v", i, got, w*time.Second)
		}
	}
}

func TestClientExhaustsAttempts(t *testing.T) {
	server := httptest.NewServer(NewWebSocketHandler(newRegistrar(), nil))
	url := wsURL(server)
	server.Close()

	var mu sync.Mutex
	var attempts []int
	c := NewClient(ClientConfig{
		URL:             url,
		UserID:          "alice",
		InitialInterval: time.Millisecond,
		MaxInterval:     4 * time.Millisecond,
		MaxAttempts:     3,
		OnStateChange: func(state ConnState, attempt int) {
			if state == StateConnecting {
				mu.Lock()
				attempts = append(attempts, attempt)
				mu.Unlock()
			}
		},
	})

	err := c.Run(context.Background())
	if !errors.Is(err, ErrReconnectExhausted) {
		t.Fatalf("Run() error = %v, want ErrReconnectExhausted", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 || attempts[2] != 3 {
		t.Errorf("connecting attempts = %v, want [1 2 3]", attempts)
	}
	if state, _ := c.State(); state != StateDisconnected {
		t.Errorf("final state = %v, want disconnected", state)
	}
}

func TestClientReceivesEventsAndReconnects(t *testing.T) {
	registrar := newRegistrar()
	server := httptest.NewServer(NewWebSocketHandler(registrar, nil))
	defer server.Close()

	events := make(chan Envelope, 4)
	c := NewClient(ClientConfig{
		URL:             wsURL(server),
		UserID:          "alice",
		InitialInterval: time.Millisecond,
		MaxAttempts:     5,
		OnEvent:         func(env Envelope) { events <- env },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, "first connection", func() bool {
		_, ok := registrar.Lookup("alice")
		return ok
	})
	ch, _ := registrar.Lookup("alice")
	if err := ch.Push(ctx, "match_created", map[string]string{"pairKey": "alice:bob"}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	select {
	case env := <-events:
		if env.Event != "match_created" {
			t.Errorf("event = %q", env.Event)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
	}

	// drop the connection from the server side; the client comes back as a reconnect
	_ = ch.(*WebSocketChannel).Close()
	waitFor(t, "reconnect", func() bool {
		next, ok := registrar.Lookup("alice")
		return ok && next != ch
	})
	waitFor(t, "connected state", func() bool {
		s, _ := c.State()
		return s == StateConnected
	})

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
