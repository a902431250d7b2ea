package campaign

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/composer"
	"github.com/onurcolak/lead-notification-service/internal/domain"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidParams = errors.New("invalid campaign parameters")
	ErrNoValidLeads  = errors.New("no valid leads found for the specified criteria")
)

// Params describes one campaign trigger, from the API or the CLI.
type Params struct {
	TemplateName    string           `json:"templateName" validate:"required,template_name"`
	FromDate        string           `json:"fromDate" validate:"required,ymd"`
	ToDate          string           `json:"toDate" validate:"required,ymd"`
	Projects        []string         `json:"projects"`
	Language        string           `json:"language"`
	HeaderMediaURL  string           `json:"headerMediaUrl" validate:"omitempty,url"`
	HeaderMediaType domain.MediaKind `json:"headerMediaType" validate:"omitempty,oneof=image video document"`
	Limit           int              `json:"limit" validate:"omitempty,min=1"`
	DryRun          bool             `json:"dryRun"`
}

// Window is the inclusive creation-time range a run selects leads from.
type Window struct {
	From time.Time
	To   time.Time
}

// Prepare validates p, fills defaults in place and returns the selection
// window. ToDate covers the whole day.
func (p *Params) Prepare(defaultLimit, maxRangeDays int) (Window, error) {
	p.TemplateName = strings.TrimSpace(p.TemplateName)
	if err := composer.ValidateTemplateName(p.TemplateName); err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	from, err := time.ParseInLocation(DateLayout, strings.TrimSpace(p.FromDate), time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: fromDate must be YYYY-MM-DD", ErrInvalidParams)
	}
	to, err := time.ParseInLocation(DateLayout, strings.TrimSpace(p.ToDate), time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: toDate must be YYYY-MM-DD", ErrInvalidParams)
	}
	if from.After(to) {
		return Window{}, fmt.Errorf("%w: fromDate must not be after toDate", ErrInvalidParams)
	}
	if maxRangeDays > 0 && to.Sub(from) > time.Duration(maxRangeDays)*24*time.Hour {
		return Window{}, fmt.Errorf("%w: date range must not exceed %d days", ErrInvalidParams, maxRangeDays)
	}

	if (p.HeaderMediaURL == "") != (p.HeaderMediaType == "") {
		return Window{}, fmt.Errorf("%w: headerMediaUrl and headerMediaType must be given together", ErrInvalidParams)
	}

	if p.Limit < 0 {
		return Window{}, fmt.Errorf("%w: limit must be positive", ErrInvalidParams)
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	if p.Language == "" {
		p.Language = composer.DefaultLanguage
	}

	projects := make([]string, 0, len(p.Projects))
	for _, name := range p.Projects {
		if name = strings.TrimSpace(name); name != "" {
			projects = append(projects, name)
		}
	}
	p.Projects = projects

	return Window{
		From: from,
		To:   to.Add(24*time.Hour - time.Nanosecond),
	}, nil
}
