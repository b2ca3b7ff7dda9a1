package gathersdk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Server-sent event names.
const (
	StreamEventSnapshot      = "event"
	StreamNotificationsFrame = "notifications"
	StreamError              = "error"
)

// WatchEvent calls fn with every snapshot of an event until ctx ends, fn
// returns false, or the server reports an error.
func (s *Session) WatchEvent(ctx context.Context, eventID string, fn func(Event) bool) error {
	return s.watch(ctx, eventPath(eventID, "/stream"), StreamEventSnapshot, func(data []byte) (bool, error) {
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return false, fmt.Errorf("failed to decode event: %w", err)
		}
		return fn(ev), nil
	})
}

// WatchNotifications calls fn with every snapshot of the pending queue.
func (s *Session) WatchNotifications(ctx context.Context, fn func([]Notification) bool) error {
	return s.watch(ctx, "/v1/notifications/stream", StreamNotificationsFrame, func(data []byte) (bool, error) {
		var out NotificationsResponse
		if err := json.Unmarshal(data, &out); err != nil {
			return false, fmt.Errorf("failed to decode notifications: %w", err)
		}
		return fn(out.Notifications), nil
	})
}

func (s *Session) watch(ctx context.Context, path, name string, handle func([]byte) (bool, error)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.StreamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, body)
	}

	var handleErr error
	err = readFrames(resp.Body, func(event string, data []byte) bool {
		switch event {
		case name:
			var more bool
			more, handleErr = handle(data)
			return more && handleErr == nil
		case StreamError:
			apiErr := &APIError{StatusCode: http.StatusOK}
			if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Code == "" {
				apiErr.Code = ErrorCodeServerError
			}
			handleErr = apiErr
			return false
		default:
			return true
		}
	})
	if handleErr != nil {
		return handleErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// readFrames splits a text/event-stream body into (event, data) frames.
// Comment lines are skipped.
func readFrames(body io.Reader, fn func(event string, data []byte) bool) error {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	var (
		event string
		data  []byte
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if event != "" || len(data) > 0 {
				if !fn(event, data) {
					return nil
				}
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")...)
		}
	}
	return sc.Err()
}
