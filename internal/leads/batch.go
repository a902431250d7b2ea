package leads

import (
	"context"
	"fmt"

	"github.com/onurcolak/lead-notification-service/internal/calls"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/metrics"
)

type pendingCallStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.CallRecord, error)
	MarkProcessed(ctx context.Context, callID int64, leadID *int64) error
}

type deduplicator interface {
	Deduplicate(ctx context.Context, records []domain.CallRecord) (*calls.Batch, error)
}

type ingestor interface {
	Ingest(ctx context.Context, dc calls.DedupedCall) (*Outcome, error)
}

type BatchSummary struct {
	TotalCalls   int      `json:"totalCalls"`
	NewLeads     int      `json:"newLeads"`
	UpdatedLeads int      `json:"updatedLeads"`
	QualityLeads int      `json:"qualityLeads"`
	JunkLeads    int      `json:"junkLeads"`
	Skipped      int      `json:"skipped"`
	Errors       []string `json:"errors"`
}

// Attempted is the number of calls that reached the ingest step.
func (s *BatchSummary) Attempted() int {
	return s.NewLeads + s.UpdatedLeads + len(s.Errors)
}

// CallProcessor drains pending call records: newest first, one lead per phone.
type CallProcessor struct {
	store        pendingCallStore
	deduplicator deduplicator
	ingestor     ingestor
	batchSize    int
}

func NewCallProcessor(store pendingCallStore, d deduplicator, ing ingestor, batchSize int) *CallProcessor {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &CallProcessor{
		store:        store,
		deduplicator: d,
		ingestor:     ing,
		batchSize:    batchSize,
	}
}

func (p *CallProcessor) ProcessPendingCalls(ctx context.Context) (*BatchSummary, error) {
	pending, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return nil, domain.NewRepositoryError("list pending calls", err)
	}

	summary := &BatchSummary{
		TotalCalls: len(pending),
		Errors:     []string{},
	}

	if len(pending) == 0 {
		logger.Debugf("No pending calls to process")
		return summary, nil
	}

	batch, err := p.deduplicator.Deduplicate(ctx, pending)
	if err != nil {
		return nil, err
	}

	leadByPhone := make(map[string]int64, len(batch.Unique))

	for _, dc := range batch.Unique {
		outcome, err := p.ingestor.Ingest(ctx, dc)
		if err != nil {
			logger.Errorf("Failed to ingest call %d: %v", dc.Call.ID, err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("call %d: %v", dc.Call.ID, err))
			continue
		}

		leadByPhone[dc.Phone] = outcome.LeadID
		metrics.RecordCallIngested(string(outcome.Quality))

		if outcome.Created {
			summary.NewLeads++
		} else {
			summary.UpdatedLeads++
		}
		if outcome.Quality == domain.CallQualityGood {
			summary.QualityLeads++
		} else {
			summary.JunkLeads++
		}
	}

	for _, s := range batch.Skipped {
		var leadID *int64
		if s.Reason == calls.SkipDuplicate {
			id, ok := leadByPhone[s.Phone]
			if !ok {
				// The kept call failed; leave this one for the next run.
				continue
			}
			leadID = &id
		}

		if err := p.store.MarkProcessed(ctx, s.Call.ID, leadID); err != nil {
			logger.Errorf("Failed to mark skipped call %d processed: %v", s.Call.ID, err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("call %d: %v", s.Call.ID, err))
			continue
		}
		summary.Skipped++
	}

	logger.Infof("Processed %d calls: %d new leads, %d updated, %d skipped, %d errors",
		summary.TotalCalls, summary.NewLeads, summary.UpdatedLeads, summary.Skipped, len(summary.Errors))

	return summary, nil
}
