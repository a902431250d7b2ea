package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/metrics"
)

// maxUpdateAttempts bounds how often one event is re-applied after losing a
// compare-and-set race to a concurrent webhook.
const maxUpdateAttempts = 3

const (
	ignoredUnknownMessage = "unknown_message"
	ignoredUnknownStatus  = "unknown_status"
	ignoredOutOfOrder     = "out_of_order"
)

var errUpdateConflict = errors.New("status update lost to concurrent writers")

type messageStore interface {
	GetByTransportID(ctx context.Context, transportMessageID string) (*domain.MessageRecord, error)
	UpdateStatus(ctx context.Context, record *domain.MessageRecord, expected domain.MessageStatus) (bool, error)
}

type statusCache interface {
	CacheMessageStatus(
		ctx context.Context,
		transportMessageID string,
		recordID int64,
		status domain.MessageStatus,
		at time.Time,
	) error
}

// Summary counts what happened to the events of one webhook delivery.
type Summary struct {
	Received int      `json:"received"`
	Applied  int      `json:"applied"`
	Ignored  int      `json:"ignored"`
	Unknown  int      `json:"unknown"`
	Errors   []string `json:"errors,omitempty"`
}

// Reconciler advances stored message records from provider status events.
// It is safe for concurrent use; every event is applied against a freshly
// loaded record and persisted with compare-and-set on the previous status.
type Reconciler struct {
	store messageStore
	cache statusCache
	now   func() time.Time
}

func NewReconciler(store messageStore, cache statusCache) *Reconciler {
	return &Reconciler{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// HandlePayload decodes a raw webhook body and applies its events. Only a
// malformed body is reported as an error.
func (r *Reconciler) HandlePayload(ctx context.Context, body []byte) (*Summary, error) {
	events, err := DecodeEvents(body)
	if err != nil {
		return nil, err
	}

	summary := r.Apply(ctx, events)
	return &summary, nil
}

func (r *Reconciler) Apply(ctx context.Context, events []StatusEvent) Summary {
	summary := Summary{Received: len(events)}

	for _, ev := range events {
		applied, reason, err := r.applyOne(ctx, ev)
		switch {
		case err != nil:
			logger.Errorf("Failed to apply %s for message %s: %v", ev.Status, ev.MessageID, err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", ev.MessageID, err))
		case applied:
			summary.Applied++
		case reason == ignoredUnknownMessage:
			summary.Unknown++
			metrics.RecordIgnoredEvent(reason)
		default:
			summary.Ignored++
			metrics.RecordIgnoredEvent(reason)
		}
	}

	if summary.Received > 0 {
		logger.Infof("Webhook processed: %d received, %d applied, %d ignored, %d unknown",
			summary.Received, summary.Applied, summary.Ignored, summary.Unknown)
	}

	return summary
}

func (r *Reconciler) applyOne(ctx context.Context, ev StatusEvent) (bool, string, error) {
	next, ok := domain.ParseMessageStatus(ev.Status)
	if !ok || next == domain.StatusQueued || ev.MessageID == "" {
		logger.Warnf("Ignoring status event %q for message %q", ev.Status, ev.MessageID)
		return false, ignoredUnknownStatus, nil
	}

	at := ev.Timestamp
	if at.IsZero() {
		at = r.now().UTC()
	}

	reason := ""
	if next == domain.StatusFailed {
		reason = ev.FailureReason()
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		record, err := r.store.GetByTransportID(ctx, ev.MessageID)
		if err != nil {
			return false, "", domain.NewRepositoryError("get message by transport id", err)
		}
		if record == nil {
			logger.Warnf("No message record for transport id %s, ignoring %s", ev.MessageID, ev.Status)
			return false, ignoredUnknownMessage, nil
		}

		prev := record.Status
		if !record.Advance(next, at, reason) {
			logger.Debugf("Dropping %s for message %s in status %s", next, ev.MessageID, prev)
			return false, ignoredOutOfOrder, nil
		}

		updated, err := r.store.UpdateStatus(ctx, record, prev)
		if err != nil {
			return false, "", domain.NewRepositoryError("update message status", err)
		}
		if !updated {
			logger.Debugf("Status of message %s changed concurrently, retrying (attempt %d)", ev.MessageID, attempt)
			continue
		}

		metrics.RecordStatusTransition(string(next))
		if err := r.cache.CacheMessageStatus(ctx, ev.MessageID, record.ID, record.Status, at); err != nil {
			logger.Warnf("Failed to cache status of message %d: %v", record.ID, err)
		}
		logger.Infof("Message %d moved %s -> %s", record.ID, prev, next)

		return true, "", nil
	}

	return false, "", errUpdateConflict
}
