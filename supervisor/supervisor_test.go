package supervisor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"tripmate_server/logging"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

// fakeHTTPServer blocks in ListenAndServe until Shutdown is called.
type fakeHTTPServer struct {
	listenErr error
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFakeHTTPServer(listenErr error) *fakeHTTPServer {
	return &fakeHTTPServer{listenErr: listenErr, stopped: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestHTTPServerServiceShutsDownOnCancel(t *testing.T) {
	server := newFakeHTTPServer(nil)
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("Shutdown calls = %d, want 1", server.shutdowns.Load())
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	boom := errors.New("address already in use")
	svc := NewHTTPServerService(newFakeHTTPServer(boom), time.Second)
	if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
}

// countingService runs until ctx is canceled, failing on its first start.
type countingService struct {
	starts atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	if s.starts.Add(1) == 1 {
		return errors.New("first start fails")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestTreeRestartsFailedWorker(t *testing.T) {
	tree := NewTree(TreeConfig{FailureBackoff: time.Millisecond, ShutdownTimeout: time.Second})
	worker := &countingService{}
	tree.AddWorker(worker)
	api := newFakeHTTPServer(nil)
	tree.AddAPIService(NewHTTPServerService(api, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for worker.starts.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("worker was not restarted")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	if api.shutdowns.Load() != 1 {
		t.Errorf("api shutdowns = %d, want 1", api.shutdowns.Load())
	}
	report, err := tree.UnstoppedServiceReport()
	if err != nil || len(report) != 0 {
		t.Errorf("unstopped services = %v, %v", report, err)
	}
}
