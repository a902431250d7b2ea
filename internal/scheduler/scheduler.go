package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/lead-notification-service/internal/leads"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

// ErrRunInProgress is returned by RunOnce while another ingestion run is active.
var ErrRunInProgress = errors.New("call ingestion run already in progress")

const (
	DefaultInterval = 5 * time.Minute
	alertTimeout    = 10 * time.Second
)

// callProcessor matches leads.CallProcessor and lets the scheduler be tested
// with a small fake.
type callProcessor interface {
	ProcessPendingCalls(ctx context.Context) (*leads.BatchSummary, error)
}

// Scheduler drains pending IVR call records on a fixed interval and raises an
// alert when ingestion keeps failing.
type Scheduler struct {
	processor       callProcessor
	alerts          *resty.Client
	interval        time.Duration
	alertWebhook    string
	alertThreshold  int // consecutive failed runs before an alert is posted
	lastAlertSentAt time.Time

	// runMu serializes ingestion runs so two runs never see the same pending calls.
	runMu sync.Mutex

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt     time.Time
	callsIngested int64
	runsCount     int64
	lastSummary   *leads.BatchSummary

	consecutiveFailCount int
}

func NewScheduler(processor callProcessor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		processor: processor,
		alerts:    resty.New().SetTimeout(alertTimeout),
		interval:  interval,
	}
}

// SetAlerting configures the webhook notified after threshold consecutive
// failed runs. An empty URL or a threshold below 1 disables alerting.
func (s *Scheduler) SetAlerting(webhookURL string, threshold int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertWebhook = webhookURL
	s.alertThreshold = threshold
}

func (s *Scheduler) StartWithParams(
	ctx context.Context,
	intervalMinutes int,
	alertWebhook string,
	alertThreshold int,
) error {
	s.mu.Lock()
	if intervalMinutes > 0 {
		s.interval = time.Duration(intervalMinutes) * time.Minute
	}
	if alertWebhook != "" {
		s.alertWebhook = alertWebhook
	}
	if alertThreshold > 0 {
		s.alertThreshold = alertThreshold
	}
	s.consecutiveFailCount = 0
	s.mu.Unlock()

	return s.Start(ctx)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	interval := s.interval
	s.mu.Unlock()

	logger.Infof("Starting call ingestion scheduler with interval: %v", interval)

	go s.run(ctx, interval)

	return nil
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer close(s.doneChan)

	s.processCalls(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processCalls(ctx)
			logger.Debugf("Next ingestion in %v", interval)

		case <-s.stopChan:
			logger.Warnf("Scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Scheduler context cancelled")
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}
	}
}

// RunOnce processes one batch immediately, outside the ticker. It does not
// wait for an active run and returns ErrRunInProgress instead.
func (s *Scheduler) RunOnce(ctx context.Context) (*leads.BatchSummary, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()
	return s.ingest(ctx)
}

// processCalls is the ticker's run; it waits for a manual run to finish.
func (s *Scheduler) processCalls(ctx context.Context) (*leads.BatchSummary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.ingest(ctx)
}

func (s *Scheduler) ingest(ctx context.Context) (*leads.BatchSummary, error) {
	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runsCount++
	runNumber := s.runsCount
	s.mu.Unlock()

	logger.Infof("[Run #%d] Processing pending calls", runNumber)

	summary, err := s.processor.ProcessPendingCalls(ctx)
	if err != nil {
		logger.Errorf("[Run #%d] Call ingestion failed: %v", runNumber, err)
		s.recordFailure(runNumber, 0, err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.lastSummary = summary
	s.callsIngested += int64(summary.NewLeads + summary.UpdatedLeads)
	s.mu.Unlock()

	attempted := summary.Attempted()
	if attempted == 0 {
		logger.Debugf("[Run #%d] No calls to ingest", runNumber)
		return summary, nil
	}

	if len(summary.Errors) == attempted {
		s.recordFailure(runNumber, attempted, summary.Errors[0])
	} else {
		s.mu.Lock()
		if s.consecutiveFailCount > 0 {
			logger.Debugf("[Run #%d] Resetting consecutive failure count (was: %d)", runNumber, s.consecutiveFailCount)
		}
		s.consecutiveFailCount = 0
		s.mu.Unlock()
	}

	logger.Infof("[Run #%d] %d calls: %d new leads, %d updated, %d skipped, %d errors",
		runNumber, summary.TotalCalls, summary.NewLeads, summary.UpdatedLeads, summary.Skipped, len(summary.Errors))

	return summary, nil
}

func (s *Scheduler) recordFailure(runNumber int64, callsInBatch int, lastError string) {
	s.mu.Lock()
	s.consecutiveFailCount++
	count := s.consecutiveFailCount
	threshold := s.alertThreshold
	webhook := s.alertWebhook
	s.mu.Unlock()

	logger.Warnf("[Run #%d] Ingestion failed (consecutive count: %d/%d)", runNumber, count, threshold)

	if threshold > 0 && webhook != "" && count >= threshold {
		go s.sendAlert(webhook, runNumber, count, callsInBatch, lastError)
	}
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:              s.running,
		LastRunAt:            s.lastRunAt,
		CallsIngested:        s.callsIngested,
		RunsCount:            s.runsCount,
		Interval:             s.interval.String(),
		ConsecutiveFailCount: s.consecutiveFailCount,
		LastAlertSentAt:      s.lastAlertSentAt,
		LastSummary:          s.lastSummary,
	}

	if s.running && !s.lastRunAt.IsZero() {
		status.NextRunAt = s.lastRunAt.Add(s.interval)
	}

	return status
}

func (s *Scheduler) sendAlert(webhookURL string, runNumber int64, consecutiveFailures, callsInBatch int, lastError string) {
	payload := map[string]any{
		"alert":               "call_ingestion_failing",
		"runNumber":           runNumber,
		"consecutiveFailures": consecutiveFailures,
		"callsInBatch":        callsInBatch,
		"lastError":           lastError,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"message": fmt.Sprintf(
			"Call ingestion failed for %d consecutive runs",
			consecutiveFailures,
		),
	}

	resp, err := s.alerts.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(webhookURL)
	if err != nil {
		logger.Errorf("Failed to send alert to webhook: %v", err)
		return
	}

	if resp.IsSuccess() {
		s.mu.Lock()
		s.lastAlertSentAt = time.Now()
		s.mu.Unlock()
		logger.Infof("Alert sent to %s (consecutive failures: %d)", webhookURL, consecutiveFailures)
	} else {
		logger.Warnf("Alert webhook returned status %d", resp.StatusCode())
	}
}

type SchedulerStatus struct {
	Running              bool                `json:"running"`
	LastRunAt            time.Time           `json:"lastRunAt,omitempty"`
	NextRunAt            time.Time           `json:"nextRunAt,omitempty"`
	CallsIngested        int64               `json:"callsIngested"`
	RunsCount            int64               `json:"runsCount"`
	Interval             string              `json:"interval"`
	ConsecutiveFailCount int                 `json:"consecutiveFailCount"`
	LastAlertSentAt      time.Time           `json:"lastAlertSentAt,omitempty"`
	LastSummary          *leads.BatchSummary `json:"lastSummary,omitempty"`
}
