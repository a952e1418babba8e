package socket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"tripmate_server/logging"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrReconnectExhausted is returned by Client.Run when every connect attempt failed.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// ConnState is the client connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return fmt.Sprintf("ConnState(%d)", int(s))
}

// ClientConfig configures a Client. Zero durations and attempts take the
// defaults: 1s initial interval doubling up to 30s, 5 attempts.
type ClientConfig struct {
	// URL of the websocket endpoint, e.g. ws://host/ws. userId is appended.
	URL             string
	UserID          string
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int

	OnEvent       func(Envelope)
	OnStateChange func(state ConnState, attempt int)
}

// Client keeps a websocket push channel open, reconnecting with exponential
// backoff. The attempt counter resets after each successful connect.
type Client struct {
	cfg    ClientConfig
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu      sync.RWMutex
	state   ConnState
	attempt int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = 30 * time.Second
		if cfg.MaxInterval < cfg.InitialInterval {
			cfg.MaxInterval = cfg.InitialInterval
		}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		log:    logging.Component("ws-client").With().Str("user_id", cfg.UserID).Logger(),
	}
}

// State returns the current state and, while connecting, the attempt number.
func (c *Client) State() (ConnState, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.attempt
}

func (c *Client) setState(state ConnState, attempt int) {
	c.mu.Lock()
	c.state, c.attempt = state, attempt
	c.mu.Unlock()
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(state, attempt)
	}
}

// Schedule returns the backoff used between connect attempts.
func (c *Client) Schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.MaxInterval
	return b
}

// Run connects and reads events until ctx is done or a reconnect cycle exhausts
// its attempts.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			c.setState(StateDisconnected, 0)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		c.setState(StateConnected, 0)
		c.log.Info().Msg("✅ connected")
		err = c.read(ctx, conn)
		_ = conn.Close()
		c.setState(StateDisconnected, 0)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("⚠️ connection lost, reconnecting")
	}
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	target, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	attempt := 0
	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		attempt++
		c.setState(StateConnecting, attempt)
		conn, _, err := c.dialer.DialContext(ctx, target, nil)
		return conn, err
	},
		backoff.WithBackOff(c.Schedule()),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Debug().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("🔁 connect failed")
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, attempt, err)
	}
	return conn, nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url: %w", err)
	}
	q := u.Query()
	q.Set("userId", c.cfg.UserID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn().Err(err).Msg("⚠️ dropping malformed frame")
			continue
		}
		if c.cfg.OnEvent != nil {
			c.cfg.OnEvent(env)
		}
	}
}
