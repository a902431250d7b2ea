package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]domain.MessageRecord
	getErr  error
	// beforeUpdate runs once, just before the next compare-and-set, to
	// simulate a concurrent writer.
	beforeUpdate func(rec *domain.MessageRecord)
	updates      int
}

func newMemStore(records ...domain.MessageRecord) *memStore {
	s := &memStore{records: map[string]domain.MessageRecord{}}
	for _, r := range records {
		s.records[*r.TransportMessageID] = r
	}
	return s
}

func (s *memStore) GetByTransportID(ctx context.Context, id string) (*domain.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, record *domain.MessageRecord, expected domain.MessageStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := *record.TransportMessageID
	if s.beforeUpdate != nil {
		stored := s.records[key]
		s.beforeUpdate(&stored)
		s.records[key] = stored
		s.beforeUpdate = nil
	}

	if s.records[key].Status != expected {
		return false, nil
	}
	s.records[key] = *record
	s.updates++
	return true, nil
}

func (s *memStore) get(id string) domain.MessageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type fakeCache struct {
	mu      sync.Mutex
	entries int
}

func (c *fakeCache) CacheMessageStatus(
	ctx context.Context,
	transportMessageID string,
	recordID int64,
	status domain.MessageStatus,
	at time.Time,
) error {
	c.mu.Lock()
	c.entries++
	c.mu.Unlock()
	return nil
}

func queuedRecord(transportID string) domain.MessageRecord {
	id := transportID
	return domain.MessageRecord{
		ID:                 1,
		Phone:              "+919876543210",
		TemplateName:       "ivr_followup",
		Status:             domain.StatusQueued,
		TransportMessageID: &id,
		CreatedAt:          time.Unix(1700000000, 0).UTC(),
	}
}

func event(id, status string, ts int64) StatusEvent {
	return StatusEvent{MessageID: id, Status: status, Timestamp: time.Unix(ts, 0).UTC()}
}

func TestApply_AnyOrderEndsInRead(t *testing.T) {
	orders := [][]string{
		{"sent", "delivered", "read"},
		{"read", "delivered", "sent"},
		{"delivered", "sent", "read"},
		{"delivered", "read", "sent", "delivered"},
		{"sent", "sent", "read", "read"},
	}

	for _, order := range orders {
		store := newMemStore(queuedRecord("wamid.1"))
		r := NewReconciler(store, &fakeCache{})

		var events []StatusEvent
		for i, st := range order {
			events = append(events, event("wamid.1", st, int64(1700000100+i)))
		}
		r.Apply(context.Background(), events)

		rec := store.get("wamid.1")
		if rec.Status != domain.StatusRead {
			t.Fatalf("order %v: expected read, got %s", order, rec.Status)
		}
		if rec.SentAt == nil || rec.DeliveredAt == nil || rec.ReadAt == nil {
			t.Fatalf("order %v: expected all timestamps set, got %+v", order, rec)
		}
	}
}

func TestApply_DeliveredAfterReadIsNoop(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	r := NewReconciler(store, &fakeCache{})

	r.Apply(context.Background(), []StatusEvent{event("wamid.1", "read", 1700000200)})
	before := store.get("wamid.1")

	summary := r.Apply(context.Background(), []StatusEvent{event("wamid.1", "delivered", 1700000300)})

	if summary.Ignored != 1 || summary.Applied != 0 {
		t.Fatalf("expected event to be ignored, got %+v", summary)
	}
	after := store.get("wamid.1")
	if after.Status != domain.StatusRead || !after.DeliveredAt.Equal(*before.DeliveredAt) {
		t.Fatalf("record changed after late delivered event: %+v", after)
	}
}

func TestApply_ReplayIsIdempotent(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	cache := &fakeCache{}
	r := NewReconciler(store, cache)

	events := []StatusEvent{
		event("wamid.1", "sent", 1700000100),
		event("wamid.1", "delivered", 1700000200),
	}

	first := r.Apply(context.Background(), events)
	snapshot := store.get("wamid.1")

	second := r.Apply(context.Background(), events)

	if first.Applied != 2 || second.Applied != 0 || second.Ignored != 2 {
		t.Fatalf("unexpected summaries: first=%+v second=%+v", first, second)
	}
	if store.updates != 2 || cache.entries != 2 {
		t.Fatalf("expected 2 writes, got updates=%d cached=%d", store.updates, cache.entries)
	}

	replayed := store.get("wamid.1")
	if !replayed.SentAt.Equal(*snapshot.SentAt) || !replayed.DeliveredAt.Equal(*snapshot.DeliveredAt) {
		t.Fatalf("replay changed timestamps")
	}
}

func TestApply_FailedCapturesReason(t *testing.T) {
	rec := queuedRecord("wamid.1")
	rec.Status = domain.StatusSent
	store := newMemStore(rec)
	r := NewReconciler(store, &fakeCache{})

	ev := event("wamid.1", "failed", 1700000100)
	ev.Errors = []EventError{
		{Code: "131026", Title: "Message undeliverable"},
		{Code: "131047", Title: "Re-engagement message"},
	}

	summary := r.Apply(context.Background(), []StatusEvent{ev})
	if summary.Applied != 1 {
		t.Fatalf("expected failed to apply, got %+v", summary)
	}

	got := store.get("wamid.1")
	if got.Status != domain.StatusFailed || got.FailedAt == nil {
		t.Fatalf("expected failed record, got %+v", got)
	}
	want := "131026: Message undeliverable; 131047: Re-engagement message"
	if got.FailureReason == nil || *got.FailureReason != want {
		t.Fatalf("expected reason %q, got %v", want, got.FailureReason)
	}

	// failed is terminal
	r.Apply(context.Background(), []StatusEvent{event("wamid.1", "delivered", 1700000200)})
	if store.get("wamid.1").Status != domain.StatusFailed {
		t.Fatalf("failed record must not advance")
	}
}

func TestApply_FailedAfterDeliveredIsIgnored(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	r := NewReconciler(store, &fakeCache{})

	r.Apply(context.Background(), []StatusEvent{event("wamid.1", "delivered", 1700000100)})
	summary := r.Apply(context.Background(), []StatusEvent{event("wamid.1", "failed", 1700000200)})

	if summary.Ignored != 1 {
		t.Fatalf("expected failed after delivered to be ignored, got %+v", summary)
	}
	if store.get("wamid.1").Status != domain.StatusDelivered {
		t.Fatalf("expected delivered to stick")
	}
}

func TestApply_UnknownMessageAndStatus(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	r := NewReconciler(store, &fakeCache{})

	summary := r.Apply(context.Background(), []StatusEvent{
		event("wamid.missing", "delivered", 1700000100),
		event("wamid.1", "deleted", 1700000100),
	})

	if summary.Unknown != 1 || summary.Ignored != 1 || summary.Applied != 0 || len(summary.Errors) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestApply_RetriesAfterConcurrentUpdate(t *testing.T) {
	rec := queuedRecord("wamid.1")
	rec.Status = domain.StatusSent
	store := newMemStore(rec)
	store.beforeUpdate = func(stored *domain.MessageRecord) {
		at := time.Unix(1700000150, 0).UTC()
		stored.Advance(domain.StatusDelivered, at, "")
	}
	r := NewReconciler(store, &fakeCache{})

	summary := r.Apply(context.Background(), []StatusEvent{event("wamid.1", "read", 1700000200)})
	if summary.Applied != 1 {
		t.Fatalf("expected read to apply after retry, got %+v", summary)
	}

	got := store.get("wamid.1")
	if got.Status != domain.StatusRead {
		t.Fatalf("expected read, got %s", got.Status)
	}
	if got.DeliveredAt.Unix() != 1700000150 {
		t.Fatalf("concurrent delivered timestamp must be kept, got %v", got.DeliveredAt)
	}
}

func TestApply_RepositoryErrorIsReported(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	store.getErr = errors.New("connection reset")
	r := NewReconciler(store, &fakeCache{})

	summary := r.Apply(context.Background(), []StatusEvent{event("wamid.1", "sent", 1700000100)})
	if len(summary.Errors) != 1 || summary.Applied != 0 {
		t.Fatalf("expected one error, got %+v", summary)
	}
}

func TestApply_ConcurrentWebhooks(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	r := NewReconciler(store, &fakeCache{})

	var wg sync.WaitGroup
	for _, st := range []string{"sent", "delivered", "read", "delivered", "sent", "read"} {
		wg.Add(1)
		go func(st string) {
			defer wg.Done()
			r.Apply(context.Background(), []StatusEvent{event("wamid.1", st, 1700000100)})
		}(st)
	}
	wg.Wait()

	if got := store.get("wamid.1").Status; got != domain.StatusRead {
		t.Fatalf("expected read after concurrent webhooks, got %s", got)
	}
}

func TestHandlePayload_MalformedJSON(t *testing.T) {
	r := NewReconciler(newMemStore(), &fakeCache{})

	_, err := r.HandlePayload(context.Background(), []byte(`{"statuses": [`))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestDecodeEvents_FlatAndNestedForms(t *testing.T) {
	flat := []byte(`{"statuses":[{"id":"wamid.1","status":"DELIVERED","timestamp":1700000100}]}`)
	nested := []byte(`{"entry":[{"changes":[{"value":{"statuses":[
		{"id":"wamid.2","status":"failed","timestamp":"1700000200","errors":[{"code":131026,"title":"Undeliverable"}]}
	]}}]}]}`)

	events, err := DecodeEvents(flat)
	if err != nil {
		t.Fatalf("flat decode failed: %v", err)
	}
	if len(events) != 1 || events[0].Status != "delivered" || events[0].Timestamp.Unix() != 1700000100 {
		t.Fatalf("unexpected flat events: %+v", events)
	}

	events, err = DecodeEvents(nested)
	if err != nil {
		t.Fatalf("nested decode failed: %v", err)
	}
	if len(events) != 1 || events[0].MessageID != "wamid.2" || events[0].Timestamp.Unix() != 1700000200 {
		t.Fatalf("unexpected nested events: %+v", events)
	}
	if got := events[0].FailureReason(); got != "131026: Undeliverable" {
		t.Fatalf("unexpected failure reason %q", got)
	}
}

func TestDecodeEvents_MissingTimestampUsesReceiveTime(t *testing.T) {
	store := newMemStore(queuedRecord("wamid.1"))
	r := NewReconciler(store, &fakeCache{})
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return received }

	if _, err := r.HandlePayload(context.Background(), []byte(`{"statuses":[{"id":"wamid.1","status":"sent"}]}`)); err != nil {
		t.Fatalf("HandlePayload failed: %v", err)
	}

	if got := store.get("wamid.1"); got.SentAt == nil || !got.SentAt.Equal(received) {
		t.Fatalf("expected sentAt %v, got %v", received, got.SentAt)
	}
}
