package calls

import (
	"context"

	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

const (
	SkipInvalidPhone = "invalid phone"
	SkipDuplicate    = "duplicate phone in batch"
	SkipDoNotDisturb = "do not disturb"
)

// leadLookup is the part of the lead store needed for the DND check.
type leadLookup interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Lead, error)
}

type DedupedCall struct {
	Call    domain.CallRecord
	Phone   string
	Quality domain.CallQuality
	Reason  string
}

type SkippedCall struct {
	Call   domain.CallRecord
	Phone  string
	Reason string
}

type Batch struct {
	Unique  []DedupedCall
	Skipped []SkippedCall
}

type Deduplicator struct {
	normalizer *phone.Normalizer
	leads      leadLookup
}

func NewDeduplicator(normalizer *phone.Normalizer, leads leadLookup) *Deduplicator {
	return &Deduplicator{
		normalizer: normalizer,
		leads:      leads,
	}
}

// Deduplicate walks calls once in the given order and keeps the first call per
// canonical phone. With newest-first input that is each caller's latest call.
// Calls from opted-out leads are skipped. Order of Unique follows the input.
func (d *Deduplicator) Deduplicate(ctx context.Context, calls []domain.CallRecord) (*Batch, error) {
	batch := &Batch{
		Unique:  make([]DedupedCall, 0, len(calls)),
		Skipped: []SkippedCall{},
	}
	seen := make(map[string]struct{}, len(calls))

	for _, call := range calls {
		canonical, err := d.normalizer.Normalize(call.FromPhone)
		if err != nil {
			logger.Debugf("Skipping call %d: %v", call.ID, err)
			batch.Skipped = append(batch.Skipped, SkippedCall{Call: call, Reason: SkipInvalidPhone})
			continue
		}

		if _, dup := seen[canonical]; dup {
			batch.Skipped = append(batch.Skipped, SkippedCall{Call: call, Phone: canonical, Reason: SkipDuplicate})
			continue
		}
		seen[canonical] = struct{}{}

		lead, err := d.leads.FindByPhone(ctx, canonical)
		if err != nil {
			return nil, domain.NewRepositoryError("find lead by phone", err)
		}
		if lead != nil && lead.OptedOutOfMessaging {
			logger.Debugf("Skipping call %d from %s: lead %d opted out", call.ID, phone.Mask(canonical), lead.ID)
			batch.Skipped = append(batch.Skipped, SkippedCall{Call: call, Phone: canonical, Reason: SkipDoNotDisturb})
			continue
		}

		quality, reason := Classify(call.DurationSeconds)
		batch.Unique = append(batch.Unique, DedupedCall{
			Call:    call,
			Phone:   canonical,
			Quality: quality,
			Reason:  reason,
		})
	}

	return batch, nil
}
