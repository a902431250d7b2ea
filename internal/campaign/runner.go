package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/internal/composer"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/internal/service"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

type candidateSelector interface {
	Select(ctx context.Context, window Window, projectNames []string, limit int) (*Selection, error)
}

type messageSender interface {
	Preview(ctx context.Context, req composer.Request) (*domain.MessagePayload, error)
	SendTemplate(ctx context.Context, req service.SendRequest) (*service.SendOutcome, error)
}

// Runner sends one template to every selected lead, one lead at a time. The
// transport's rate limiter paces live sends.
type Runner struct {
	selector candidateSelector
	sender   messageSender
	cfg      environments.CampaignConfig
	now      func() time.Time
	newRunID func() string
}

func NewRunner(selector candidateSelector, sender messageSender, cfg environments.CampaignConfig) *Runner {
	return &Runner{
		selector: selector,
		sender:   sender,
		cfg:      cfg,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run validates p, selects candidates and messages each of them. Per-lead
// failures are collected in the result and never stop the run. A returned
// error means the run could not start or a repository failed mid-run; the
// partial result is returned alongside it when one exists.
func (r *Runner) Run(ctx context.Context, p Params) (*domain.CampaignRunResult, error) {
	window, err := p.Prepare(r.cfg.DefaultLimit, r.cfg.MaxRangeDays)
	if err != nil {
		return nil, err
	}

	result := domain.NewCampaignRunResult(r.newRunID(), p.DryRun)

	logger.Infof("Campaign %s: template=%s range=%s..%s projects=%v limit=%d dryRun=%t",
		result.RunID, p.TemplateName, p.FromDate, p.ToDate, p.Projects, p.Limit, p.DryRun)

	sel, err := r.selector.Select(ctx, window, p.Projects, p.Limit)
	if err != nil {
		return nil, err
	}

	result.TotalLeads = sel.Scanned
	result.ValidLeads = len(sel.Candidates)

	for _, rej := range sel.Rejected {
		if rej.Reason == RejectInvalidPhone {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Lead %d (%s): invalid phone %q", rej.LeadID, rej.Name, rej.Phone))
			continue
		}
		result.SkippedCount++
	}

	if len(sel.Candidates) == 0 {
		logger.Warnf("Campaign %s: %v", result.RunID, ErrNoValidLeads)
		return result, ErrNoValidLeads
	}

	for i, c := range sel.Candidates {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Campaign %s stopped after %d of %d leads: %v", result.RunID, i, len(sel.Candidates), err)
			result.Errors = append(result.Errors, fmt.Sprintf("run stopped after %d of %d leads: %v", i, len(sel.Candidates), err))
			break
		}

		outcome, err := r.process(ctx, p, c)
		if err != nil {
			return result, err
		}

		if outcome.ErrorCode == "" {
			result.SentCount++
			result.SentMessages = append(result.SentMessages, outcome)
		} else {
			result.FailedCount++
			result.FailedMessages = append(result.FailedMessages, outcome)
			result.Errors = append(result.Errors,
				fmt.Sprintf("Lead %d (%s): %s", c.Lead.ID, c.Lead.Name, outcome.Error))
		}
	}

	logger.Infof("Campaign %s finished: %d/%d sent, %d failed, %d skipped",
		result.RunID, result.SentCount, result.ValidLeads, result.FailedCount, result.SkippedCount)

	return result, nil
}

func (r *Runner) process(ctx context.Context, p Params, c Candidate) (domain.CampaignOutcome, error) {
	outcome := domain.CampaignOutcome{
		LeadID:    c.Lead.ID,
		LeadName:  c.Lead.Name,
		Phone:     c.Phone,
		Template:  p.TemplateName,
		Variables: c.Variables,
		Project:   c.ProjectName,
	}

	req := composer.Request{
		Phone:           c.Phone,
		TemplateName:    p.TemplateName,
		Language:        p.Language,
		BodyVariables:   c.Variables,
		HeaderMediaURL:  p.HeaderMediaURL,
		HeaderMediaType: p.HeaderMediaType,
		CallbackData:    fmt.Sprintf("lead_%d_%d", c.Lead.ID, r.now().Unix()),
	}

	if p.DryRun {
		if _, err := r.sender.Preview(ctx, req); err != nil {
			outcome.Status = string(domain.StatusFailed)
			outcome.ErrorCode = domain.ErrorCode(err)
			outcome.Error = err.Error()
			return outcome, nil
		}
		outcome.Status = domain.OutcomeDryRun
		logger.Debugf("Dry run: would send %s to lead %d at %s", p.TemplateName, c.Lead.ID, phone.Mask(c.Phone))
		return outcome, nil
	}

	leadID := c.Lead.ID
	sent, err := r.sender.SendTemplate(ctx, service.SendRequest{LeadID: &leadID, Request: req})
	if err != nil {
		return outcome, err
	}

	outcome.RecordID = sent.Record.ID
	outcome.Status = string(sent.Record.Status)

	if !sent.Result.Success {
		outcome.ErrorCode = sent.Result.ErrorCode
		outcome.Error = sent.Result.ErrorMessage
		return outcome, nil
	}

	outcome.TransportMessageID = sent.Result.TransportMessageID
	return outcome, nil
}
