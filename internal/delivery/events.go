package delivery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// ErrorCode holds a provider error code sent as either a number or a string.
type ErrorCode string

func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ErrorCode(s)
		return nil
	}
	*c = ErrorCode(raw)
	return nil
}

type EventError struct {
	Code  ErrorCode `json:"code"`
	Title string    `json:"title"`
}

// StatusEvent is one delivery status update pushed by the provider.
type StatusEvent struct {
	MessageID string
	Status    string
	Timestamp time.Time
	Errors    []EventError
}

// unixTimestamp accepts the provider's timestamp as either a JSON string or a
// JSON number of unix seconds. Unparseable values are left zero and the
// reconciler stamps the receive time instead.
type unixTimestamp struct {
	time.Time
}

func (t *unixTimestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		return nil
	}
	raw = strings.Trim(raw, `"`)

	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

type wireStatus struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Timestamp unixTimestamp `json:"timestamp"`
	Errors    []EventError  `json:"errors"`
}

type webhookBody struct {
	Statuses []wireStatus `json:"statuses"`
	Entry    []struct {
		Changes []struct {
			Value struct {
				Statuses []wireStatus `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// DecodeEvents reads a webhook body in either the flat {"statuses": [...]}
// form or the nested entry/changes/value form. A body with no statuses is
// valid and yields no events.
func DecodeEvents(body []byte) ([]StatusEvent, error) {
	var wb webhookBody
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&wb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	statuses := wb.Statuses
	for _, entry := range wb.Entry {
		for _, change := range entry.Changes {
			statuses = append(statuses, change.Value.Statuses...)
		}
	}

	events := make([]StatusEvent, 0, len(statuses))
	for _, s := range statuses {
		events = append(events, StatusEvent{
			MessageID: s.ID,
			Status:    strings.ToLower(strings.TrimSpace(s.Status)),
			Timestamp: s.Timestamp.Time,
			Errors:    s.Errors,
		})
	}

	return events, nil
}

// FailureReason flattens the event's error list into "code: title; ..." form.
func (e StatusEvent) FailureReason() string {
	if len(e.Errors) == 0 {
		return "failed"
	}

	parts := make([]string, 0, len(e.Errors))
	for _, ee := range e.Errors {
		switch {
		case ee.Code != "" && ee.Title != "":
			parts = append(parts, fmt.Sprintf("%s: %s", ee.Code, ee.Title))
		case ee.Title != "":
			parts = append(parts, ee.Title)
		default:
			parts = append(parts, string(ee.Code))
		}
	}
	return strings.Join(parts, "; ")
}
