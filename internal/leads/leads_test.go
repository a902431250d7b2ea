package leads

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/calls"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
)

//
// In-memory store standing in for leads, projects and calls.
//

type memStore struct {
	leads    map[int64]*domain.Lead
	projects map[int64]*domain.Project
	calls    []domain.CallRecord
	marked   map[int64]*int64
	nextID   int64

	writes []string

	failCreateLead bool
	failMark       bool
}

func newMemStore() *memStore {
	return &memStore{
		leads:    map[int64]*domain.Lead{},
		projects: map[int64]*domain.Project{},
		marked:   map[int64]*int64{},
		nextID:   100,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) FindByPhone(ctx context.Context, p string) (*domain.Lead, error) {
	for _, l := range m.leads {
		if l.Phone == p {
			cp := *l
			cp.InterestedProjectIDs = append([]int64(nil), l.InterestedProjectIDs...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(ctx context.Context, lead *domain.Lead) error {
	m.writes = append(m.writes, "create_lead")
	if m.failCreateLead {
		return errors.New("insert failed")
	}
	lead.ID = m.id()
	cp := *lead
	m.leads[lead.ID] = &cp
	return nil
}

func (m *memStore) Update(ctx context.Context, lead *domain.Lead) error {
	m.writes = append(m.writes, "update_lead")
	cp := *lead
	cp.InterestedProjectIDs = m.leads[lead.ID].InterestedProjectIDs
	m.leads[lead.ID] = &cp
	return nil
}

func (m *memStore) AddInterestedProject(ctx context.Context, leadID, projectID int64) error {
	m.writes = append(m.writes, "add_project")
	l := m.leads[leadID]
	l.InterestedProjectIDs = append(l.InterestedProjectIDs, projectID)
	return nil
}

func (m *memStore) MarkProcessed(ctx context.Context, callID int64, leadID *int64) error {
	m.writes = append(m.writes, "mark_call")
	if m.failMark {
		return errors.New("update failed")
	}
	m.marked[callID] = leadID
	return nil
}

func (m *memStore) ListPending(ctx context.Context, limit int) ([]domain.CallRecord, error) {
	var out []domain.CallRecord
	for _, c := range m.calls {
		if _, done := m.marked[c.ID]; done {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memProjects struct {
	store *memStore
}

func (p memProjects) FindByIVRNumber(ctx context.Context, number string) (*domain.Project, error) {
	for _, pr := range p.store.projects {
		if pr.IVRNumber == number {
			return pr, nil
		}
	}
	return nil, nil
}

func (p memProjects) Create(ctx context.Context, project *domain.Project) error {
	p.store.writes = append(p.store.writes, "create_project")
	project.ID = p.store.id()
	cp := *project
	p.store.projects[project.ID] = &cp
	return nil
}

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestIngestor(store *memStore) *Ingestor {
	ing := NewIngestor(store, memProjects{store: store}, store)
	ing.now = func() time.Time { return fixedNow }
	return ing
}

func deduped(id int64, p string, to string, duration int) calls.DedupedCall {
	quality, reason := calls.Classify(duration)
	return calls.DedupedCall{
		Call: domain.CallRecord{
			ID:              id,
			FromPhone:       p,
			ToNumber:        to,
			DurationSeconds: duration,
		},
		Phone:   p,
		Quality: quality,
		Reason:  reason,
	}
}

func TestIngest_JunkCallCreatesJunkLead(t *testing.T) {
	store := newMemStore()
	ing := newTestIngestor(store)

	outcome, err := ing.Ingest(context.Background(), deduped(1, "+919876543210", "08047112233", 0))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if !outcome.Created {
		t.Fatalf("expected a new lead")
	}

	lead := store.leads[outcome.LeadID]
	if lead.QualityScore != JunkLeadScore {
		t.Fatalf("expected score %d, got %d", JunkLeadScore, lead.QualityScore)
	}
	if lead.CurrentStageID != domain.StageJunk {
		t.Fatalf("expected junk stage, got %q", lead.CurrentStageID)
	}
	if lead.Source != domain.SourceIVRCall {
		t.Fatalf("expected source %q, got %q", domain.SourceIVRCall, lead.Source)
	}
	if lead.Name != "IVR Caller 3210" {
		t.Fatalf("unexpected lead name %q", lead.Name)
	}
	if !strings.Contains(lead.Notes, "no answer") || !strings.HasPrefix(lead.Notes, "[2026-03-01 09:30]") {
		t.Fatalf("unexpected note %q", lead.Notes)
	}
	if len(lead.InterestedProjectIDs) != 1 {
		t.Fatalf("expected lead linked to the placeholder project, got %v", lead.InterestedProjectIDs)
	}

	project := store.projects[lead.InterestedProjectIDs[0]]
	if project.IVRNumber != "08047112233" {
		t.Fatalf("expected placeholder project for the IVR number, got %+v", project)
	}
	if got := store.marked[1]; got == nil || *got != lead.ID {
		t.Fatalf("expected call 1 marked with lead %d, got %v", lead.ID, got)
	}
}

func TestIngest_QualityCallCreatesQualityLeadWithFixedWriteOrder(t *testing.T) {
	store := newMemStore()
	store.projects[5] = &domain.Project{ID: 5, Name: "Skyline Towers", IVRNumber: "08047112233"}
	ing := newTestIngestor(store)

	outcome, err := ing.Ingest(context.Background(), deduped(2, "+919123456780", "08047112233", 180))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	lead := store.leads[outcome.LeadID]
	if lead.QualityScore != QualityLeadScore || lead.CurrentStageID != domain.StageIVRLead {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if !lead.HasProject(5) {
		t.Fatalf("expected existing project 5 to be linked")
	}

	want := []string{"create_lead", "add_project", "mark_call"}
	if strings.Join(store.writes, ",") != strings.Join(want, ",") {
		t.Fatalf("expected writes %v, got %v", want, store.writes)
	}
}

func TestIngest_ExistingJunkLeadPromotedOnQualityCall(t *testing.T) {
	store := newMemStore()
	store.leads[10] = &domain.Lead{
		ID:             10,
		Phone:          "+919876543210",
		CurrentStageID: domain.StageJunk,
		QualityScore:   2,
		Notes:          "first call",
	}
	ing := newTestIngestor(store)

	outcome, err := ing.Ingest(context.Background(), deduped(3, "+919876543210", "", 95))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if outcome.Created || !outcome.Promoted {
		t.Fatalf("expected promoted update, got %+v", outcome)
	}

	lead := store.leads[10]
	if lead.CurrentStageID != domain.StageIVRLead {
		t.Fatalf("expected stage %q, got %q", domain.StageIVRLead, lead.CurrentStageID)
	}
	if lead.QualityScore != PromotedScoreFloor {
		t.Fatalf("expected score raised to %d, got %d", PromotedScoreFloor, lead.QualityScore)
	}
	if !strings.HasPrefix(lead.Notes, "first call\n\n[2026-03-01 09:30] New IVR Call") {
		t.Fatalf("expected note appended, got %q", lead.Notes)
	}
	if got := store.marked[3]; got == nil || *got != 10 {
		t.Fatalf("expected call 3 marked with lead 10")
	}
}

func TestIngest_ExistingLeadKeepsHigherScoreAndStage(t *testing.T) {
	store := newMemStore()
	store.leads[11] = &domain.Lead{ID: 11, Phone: "+919000000001", CurrentStageID: "site_visit", QualityScore: 9}
	ing := newTestIngestor(store)

	outcome, err := ing.Ingest(context.Background(), deduped(4, "+919000000001", "", 20))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if outcome.Promoted {
		t.Fatalf("short call must not promote")
	}

	lead := store.leads[11]
	if lead.CurrentStageID != "site_visit" || lead.QualityScore != 9 {
		t.Fatalf("expected stage and score untouched, got %+v", lead)
	}
	if !strings.Contains(lead.Notes, "short call") {
		t.Fatalf("expected note about the short call, got %q", lead.Notes)
	}
}

func TestIngest_ExistingLeadGetsMissingProjectOnce(t *testing.T) {
	store := newMemStore()
	store.projects[5] = &domain.Project{ID: 5, Name: "Skyline Towers", IVRNumber: "08047112233"}
	store.leads[12] = &domain.Lead{ID: 12, Phone: "+919000000002", InterestedProjectIDs: []int64{5}}
	ing := newTestIngestor(store)

	if _, err := ing.Ingest(context.Background(), deduped(5, "+919000000002", "08047112233", 70)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	for _, w := range store.writes {
		if w == "add_project" {
			t.Fatalf("project already linked, expected no add_project write")
		}
	}
}

func TestIngest_RetryAfterPartialFailureTakesUpdateBranch(t *testing.T) {
	store := newMemStore()
	store.failMark = true
	ing := newTestIngestor(store)

	_, err := ing.Ingest(context.Background(), deduped(6, "+919000000003", "", 120))
	if !domain.IsRepositoryError(err) {
		t.Fatalf("expected RepositoryError, got %v", err)
	}
	if _, done := store.marked[6]; done {
		t.Fatalf("call must stay pending after failed mark")
	}

	store.failMark = false
	outcome, err := ing.Ingest(context.Background(), deduped(6, "+919000000003", "", 120))
	if err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if outcome.Created {
		t.Fatalf("retry should find the lead created by the first attempt")
	}
	if len(store.leads) != 1 {
		t.Fatalf("expected exactly one lead, got %d", len(store.leads))
	}
}

func TestProcessPendingCalls_Summary(t *testing.T) {
	store := newMemStore()
	store.leads[20] = &domain.Lead{ID: 20, Phone: "+919000000009", OptedOutOfMessaging: true}
	store.calls = []domain.CallRecord{
		{ID: 1, FromPhone: "9876543210", ToNumber: "0801", DurationSeconds: 120},
		{ID: 2, FromPhone: "+919876543210", ToNumber: "0801", DurationSeconds: 5},
		{ID: 3, FromPhone: "9123456780", ToNumber: "0801", DurationSeconds: 0},
		{ID: 4, FromPhone: "12", ToNumber: "0801", DurationSeconds: 90},
		{ID: 5, FromPhone: "9000000009", ToNumber: "0801", DurationSeconds: 90},
	}

	normalizer := phone.NewNormalizer("91")
	processor := NewCallProcessor(
		store,
		calls.NewDeduplicator(normalizer, store),
		newTestIngestor(store),
		50,
	)

	summary, err := processor.ProcessPendingCalls(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingCalls returned error: %v", err)
	}

	if summary.TotalCalls != 5 {
		t.Fatalf("expected 5 calls, got %d", summary.TotalCalls)
	}
	if summary.NewLeads != 2 || summary.UpdatedLeads != 0 {
		t.Fatalf("expected 2 new leads, got %+v", summary)
	}
	if summary.QualityLeads != 1 || summary.JunkLeads != 1 {
		t.Fatalf("expected 1 quality and 1 junk lead, got %+v", summary)
	}
	if summary.Skipped != 3 {
		t.Fatalf("expected 3 skipped calls, got %d", summary.Skipped)
	}
	if len(summary.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", summary.Errors)
	}

	for id := int64(1); id <= 5; id++ {
		if _, done := store.marked[id]; !done {
			t.Fatalf("expected call %d marked processed", id)
		}
	}

	kept := store.marked[1]
	dup := store.marked[2]
	if dup == nil || kept == nil || *dup != *kept {
		t.Fatalf("expected duplicate call 2 linked to the lead of call 1")
	}
	if store.marked[4] != nil || store.marked[5] != nil {
		t.Fatalf("expected invalid and DND calls marked without a lead")
	}

	again, err := processor.ProcessPendingCalls(context.Background())
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if again.TotalCalls != 0 {
		t.Fatalf("expected nothing pending on second run, got %d", again.TotalCalls)
	}
}

func TestProcessPendingCalls_IngestFailureLeavesCallsPending(t *testing.T) {
	store := newMemStore()
	store.failCreateLead = true
	store.calls = []domain.CallRecord{
		{ID: 1, FromPhone: "9876543210", DurationSeconds: 120},
		{ID: 2, FromPhone: "9876543210", DurationSeconds: 30},
	}

	processor := NewCallProcessor(
		store,
		calls.NewDeduplicator(phone.NewNormalizer("91"), store),
		newTestIngestor(store),
		50,
	)

	summary, err := processor.ProcessPendingCalls(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingCalls returned error: %v", err)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", summary.Errors)
	}
	if summary.Attempted() != 1 {
		t.Fatalf("expected 1 attempted call, got %d", summary.Attempted())
	}
	if len(store.marked) != 0 {
		t.Fatalf("expected no calls marked, got %v", store.marked)
	}
}
