package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

const (
	DefaultLeadName    = "Customer"
	DefaultProjectName = "our premium projects"
)

const (
	RejectInvalidPhone = "invalid phone"
	RejectDuplicate    = "duplicate phone"
	RejectDoNotDisturb = "do not disturb"
)

type leadSource interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time, projectNames []string) ([]domain.Lead, error)
}

type projectLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
}

// Candidate is a lead selected for messaging with its template variables:
// name, project and tracking URL, in that order.
type Candidate struct {
	Lead        domain.Lead
	Phone       string
	ProjectName string
	Variables   []string
}

type Rejection struct {
	LeadID int64
	Name   string
	Phone  string
	Reason string
}

type Selection struct {
	// Scanned counts repository rows looked at before the limit was reached.
	Scanned    int
	Candidates []Candidate
	Rejected   []Rejection
}

type Selector struct {
	leads       leadSource
	projects    projectLookup
	normalizer  *phone.Normalizer
	trackingURL string
}

func NewSelector(leads leadSource, projects projectLookup, normalizer *phone.Normalizer, trackingURL string) *Selector {
	return &Selector{
		leads:       leads,
		projects:    projects,
		normalizer:  normalizer,
		trackingURL: trackingURL,
	}
}

// Select walks leads created in the window in repository order and keeps
// those with a valid, unseen phone that have not opted out, until limit
// candidates are collected.
func (s *Selector) Select(ctx context.Context, window Window, projectNames []string, limit int) (*Selection, error) {
	leads, err := s.leads.ListCreatedBetween(ctx, window.From, window.To, projectNames)
	if err != nil {
		return nil, domain.NewRepositoryError("list leads for campaign", err)
	}

	sel := &Selection{}
	seen := make(map[string]struct{}, len(leads))
	projectNamesByID := make(map[int64]string)

	for _, lead := range leads {
		if limit > 0 && len(sel.Candidates) >= limit {
			break
		}
		sel.Scanned++

		p, err := s.normalizer.Normalize(lead.Phone)
		if err != nil {
			sel.Rejected = append(sel.Rejected, Rejection{lead.ID, lead.Name, lead.Phone, RejectInvalidPhone})
			continue
		}
		if _, dup := seen[p]; dup {
			sel.Rejected = append(sel.Rejected, Rejection{lead.ID, lead.Name, p, RejectDuplicate})
			continue
		}
		seen[p] = struct{}{}

		if lead.OptedOutOfMessaging {
			sel.Rejected = append(sel.Rejected, Rejection{lead.ID, lead.Name, p, RejectDoNotDisturb})
			continue
		}

		project, err := s.projectName(ctx, lead, projectNamesByID)
		if err != nil {
			return nil, err
		}

		name := lead.Name
		if name == "" {
			name = DefaultLeadName
		}

		sel.Candidates = append(sel.Candidates, Candidate{
			Lead:        lead,
			Phone:       p,
			ProjectName: project,
			Variables:   []string{name, project, fmt.Sprintf(s.trackingURL, lead.ID)},
		})
	}

	logger.Infof("Campaign selection: scanned %d leads, %d candidates, %d rejected",
		sel.Scanned, len(sel.Candidates), len(sel.Rejected))

	return sel, nil
}

func (s *Selector) projectName(ctx context.Context, lead domain.Lead, cache map[int64]string) (string, error) {
	if len(lead.InterestedProjectIDs) == 0 {
		return DefaultProjectName, nil
	}

	id := lead.InterestedProjectIDs[0]
	if name, ok := cache[id]; ok {
		return name, nil
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return "", domain.NewRepositoryError("get project", err)
	}

	name := DefaultProjectName
	if project != nil && project.Name != "" {
		name = project.Name
	}
	cache[id] = name

	return name, nil
}
