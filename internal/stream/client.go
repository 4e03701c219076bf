// Package stream is the consuming side of the live-update channel: it keeps
// an SSE connection open and turns events into cache invalidations.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
)

type State int

const (
	Connecting State = iota
	Open
	BackoffWait
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case BackoffWait:
		return "backoff-wait"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
	maxEventSize     = 1 << 20
)

// Backoff is the wait before reconnect attempt n (0-based): base doubled n
// times, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Invalidations lists the cached query keys each event type makes stale.
var Invalidations = map[event.Type][]string{
	event.TimeUpdate:    {"timeStats", "timeEntries", "status"},
	event.IdeaAdded:     {"ideas"},
	event.TodoChanged:   {"todos"},
	event.MemoryUpdate:  {"memory"},
	event.StatusChange:  {"status"},
	event.WorkoutLogged: {"workouts"},
	event.Connected:     {},
}

type Invalidator interface {
	Invalidate(t event.Type, keys []string)
}

type InvalidatorFunc func(t event.Type, keys []string)

func (f InvalidatorFunc) Invalidate(t event.Type, keys []string) { f(t, keys) }

type Client struct {
	URL         string
	Token       string
	HTTP        *http.Client
	Invalidator Invalidator
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OnState, when set, sees every state transition.
	OnState func(State)
}

func NewClient(url string, inv Invalidator) *Client {
	return &Client{
		URL:         url,
		HTTP:        &http.Client{},
		Invalidator: inv,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (c *Client) setState(s State) {
	if c.OnState != nil {
		c.OnState(s)
	}
}

// Run connects and reconnects until ctx is done. It never gives up on its
// own; the returned error is always ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		c.setState(Connecting)
		err := c.consume(ctx, &attempt)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := Backoff(attempt, c.BaseDelay, c.MaxDelay)
		attempt++
		c.setState(BackoffWait)
		logger.Warn("stream.reconnect", "err", err, "delay", delay, "attempt", attempt)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) request(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}
	if c.Token != "" {
		q := u.Query()
		q.Set("token", c.Token)
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	return req, nil
}

// consume holds one connection. attempt is reset after every event that
// decodes cleanly.
func (c *Client) consume(ctx context.Context, attempt *int) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect: unexpected status %s", resp.Status)
	}
	c.setState(Open)

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if c.dispatch(strings.Join(data, "\n")) {
					*attempt = 0
				}
				data = data[:0]
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return errors.New("stream closed by server")
}

func (c *Client) dispatch(payload string) bool {
	var ev event.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		logger.Debug("stream.bad_event", "err", err)
		return false
	}
	keys, ok := Invalidations[ev.Type]
	if ok && len(keys) > 0 && c.Invalidator != nil {
		c.Invalidator.Invalidate(ev.Type, keys)
	}
	return true
}
