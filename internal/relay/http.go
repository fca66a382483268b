package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"github.com/rahul01879/chat-app/internal/domain"
)

// maxAttempts bounds the retry loop for the read-only endpoints. Writes
// all travel over the websocket, so everything here is safe to repeat.
const maxAttempts = 3

// HTTP talks to the relay's REST surface.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the relay at base.
func NewHTTP(base string) *HTTP {
	return &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: 15 * time.Second},
	}
}

var _ domain.RelayClient = (*HTTP)(nil)

// RoomInfo fetches metadata for a room. A missing or expired room is not
// an error; the relay reports it through Exists.
func (c *HTTP) RoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error) {
	var out domain.RoomInfo
	if err := c.getJSON(ctx, "/room/"+url.PathEscape(roomID)+"/info", &out); err != nil {
		return domain.RoomInfo{}, err
	}
	return out, nil
}

// History fetches the stored ciphertexts for a room, oldest first. The
// relay caps the page at its own limit.
func (c *HTTP) History(ctx context.Context, roomID string) ([]domain.HistoryMessage, error) {
	var out domain.History
	if err := c.getJSON(ctx, "/room/"+url.PathEscape(roomID)+"/history", &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Health probes the relay's liveness endpoint.
func (c *HTTP) Health(ctx context.Context) (domain.Health, error) {
	var out domain.Health
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return domain.Health{}, err
	}
	return out, nil
}

// statusError reports a non-2xx response.
type statusError struct {
	url    string
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("relay get %s: %s", e.url, e.status)
}

// getJSON performs a GET with a short backoff loop around transient
// failures. Client errors and cancellations return immediately.
func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = c.getOnce(ctx, path, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *HTTP) getOnce(ctx context.Context, path string, out any) error {
	u := c.Base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &statusError{url: u, code: resp.StatusCode, status: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// retryable treats server-side failures and network hiccups as transient.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
