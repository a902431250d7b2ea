package service

import (
	"context"
	"fmt"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/composer"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/metrics"
)

// Small internal interfaces so we can test without touching real DB/Redis/transport.
type messageRepository interface {
	Create(ctx context.Context, record *domain.MessageRecord) error
	GetAll(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.MessageRecord, int64, error)
	GetStats(ctx context.Context) (*domain.MessageStats, error)
}

type payloadComposer interface {
	Compose(ctx context.Context, req composer.Request) (*domain.MessagePayload, error)
}

type transport interface {
	Send(ctx context.Context, payload *domain.MessagePayload) domain.SendResult
}

type statusCache interface {
	CacheMessageStatus(
		ctx context.Context,
		transportMessageID string,
		recordID int64,
		status domain.MessageStatus,
		at time.Time,
	) error
	GetAllCachedStatuses(ctx context.Context) (map[string]*domain.StatusCache, error)
}

type SendRequest struct {
	LeadID *int64
	composer.Request
}

type SendOutcome struct {
	Record *domain.MessageRecord `json:"record"`
	Result domain.SendResult     `json:"result"`
}

// MessageService is the single send path: compose, transport, persist one
// record per attempt.
type MessageService struct {
	repo      messageRepository
	composer  payloadComposer
	transport transport
	cache     statusCache
	now       func() time.Time
}

func NewMessageService(
	repo messageRepository,
	comp payloadComposer,
	sender transport,
	cache statusCache,
) *MessageService {
	return &MessageService{
		repo:      repo,
		composer:  comp,
		transport: sender,
		cache:     cache,
		now:       time.Now,
	}
}

// Preview composes the payload exactly as SendTemplate would, without sending
// or persisting anything.
func (s *MessageService) Preview(ctx context.Context, req composer.Request) (*domain.MessagePayload, error) {
	return s.composer.Compose(ctx, req)
}

// SendTemplate composes and sends one template message and records the
// attempt. Validation and transport failures are reported in the outcome; the
// returned error is reserved for failures to persist the record.
func (s *MessageService) SendTemplate(ctx context.Context, req SendRequest) (*SendOutcome, error) {
	record := &domain.MessageRecord{
		LeadID:       req.LeadID,
		Phone:        req.Phone,
		TemplateName: req.TemplateName,
		Status:       domain.StatusQueued,
		CreatedAt:    s.now().UTC(),
	}

	payload, err := s.composer.Compose(ctx, req.Request)
	if err != nil {
		code := domain.ErrorCode(err)
		logger.Warnf("Rejected %s for %s before send: %v", req.TemplateName, phone.Mask(req.Phone), err)

		result := domain.SendResult{
			Success:      false,
			ErrorCode:    code,
			ErrorMessage: err.Error(),
		}
		metrics.RecordSendFailure(code)
		return s.persist(ctx, record, result)
	}

	record.Phone = payload.ToPhone

	result := s.transport.Send(ctx, payload)
	return s.persist(ctx, record, result)
}

func (s *MessageService) persist(ctx context.Context, record *domain.MessageRecord, result domain.SendResult) (*SendOutcome, error) {
	at := s.now().UTC()
	record.Via = result.Via

	if result.Success {
		if id := result.TransportMessageID; id != "" {
			record.TransportMessageID = &id
		}
		record.Advance(domain.StatusSent, at, "")
	} else {
		record.Advance(domain.StatusFailed, at, failureReason(result))
	}

	if err := s.repo.Create(ctx, record); err != nil {
		logger.Errorf("Failed to store message record for %s: %v", phone.Mask(record.Phone), err)
		return &SendOutcome{Record: record, Result: result}, domain.NewRepositoryError("create message record", err)
	}

	if result.Success && result.TransportMessageID != "" {
		if err := s.cache.CacheMessageStatus(ctx, result.TransportMessageID, record.ID, record.Status, at); err != nil {
			logger.Warnf("Failed to cache status of message %d: %v", record.ID, err)
		}
	}

	if result.Success {
		logger.Infof("Sent %s to %s via %s (record %d, transportId %s)",
			record.TemplateName, phone.Mask(record.Phone), result.Via, record.ID, result.TransportMessageID)
	} else {
		logger.Errorf("Send of %s to %s failed with %s (record %d)",
			record.TemplateName, phone.Mask(record.Phone), result.ErrorCode, record.ID)
	}

	return &SendOutcome{Record: record, Result: result}, nil
}

func failureReason(result domain.SendResult) string {
	if result.ErrorMessage == "" {
		return result.ErrorCode
	}
	return fmt.Sprintf("%s: %s", result.ErrorCode, result.ErrorMessage)
}

func (s *MessageService) GetAllMessages(
	ctx context.Context,
	status *domain.MessageStatus,
	page,
	pageSize int,
) ([]domain.MessageRecord, int64, error) {
	return s.repo.GetAll(ctx, status, page, pageSize)
}

func (s *MessageService) GetStats(ctx context.Context) (*domain.MessageStats, error) {
	return s.repo.GetStats(ctx)
}

func (s *MessageService) GetCachedStatuses(ctx context.Context) (map[string]*domain.StatusCache, error) {
	return s.cache.GetAllCachedStatuses(ctx)
}
