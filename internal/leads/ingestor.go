package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/onurcolak/lead-notification-service/internal/calls"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

const (
	QualityLeadScore = 8
	JunkLeadScore    = 2
	// PromotedScoreFloor is the minimum score of a junk lead that calls back properly.
	PromotedScoreFloor = 6
)

const noteTimeLayout = "2006-01-02 15:04"

type leadStore interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Lead, error)
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	AddInterestedProject(ctx context.Context, leadID, projectID int64) error
}

type projectStore interface {
	FindByIVRNumber(ctx context.Context, number string) (*domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
}

type callMarker interface {
	MarkProcessed(ctx context.Context, callID int64, leadID *int64) error
}

type Outcome struct {
	CallID   int64              `json:"callId"`
	LeadID   int64              `json:"leadId"`
	Created  bool               `json:"created"`
	Promoted bool               `json:"promoted"`
	Quality  domain.CallQuality `json:"quality"`
}

// Ingestor turns deduplicated calls into new or updated leads. Writes happen
// in a fixed order (lead, project link, note, call mark) so a call that fails
// half way stays pending and the next run takes the update branch.
type Ingestor struct {
	leads    leadStore
	projects projectStore
	calls    callMarker
	now      func() time.Time
}

func NewIngestor(leads leadStore, projects projectStore, calls callMarker) *Ingestor {
	return &Ingestor{
		leads:    leads,
		projects: projects,
		calls:    calls,
		now:      time.Now,
	}
}

func (i *Ingestor) Ingest(ctx context.Context, dc calls.DedupedCall) (*Outcome, error) {
	existing, err := i.leads.FindByPhone(ctx, dc.Phone)
	if err != nil {
		return nil, domain.NewRepositoryError("find lead by phone", err)
	}

	if existing != nil {
		return i.updateLead(ctx, existing, dc)
	}
	return i.createLead(ctx, dc)
}

func (i *Ingestor) createLead(ctx context.Context, dc calls.DedupedCall) (*Outcome, error) {
	project, err := i.resolveProject(ctx, dc.Call.ToNumber)
	if err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		Name:   callerName(dc.Phone),
		Phone:  dc.Phone,
		Source: domain.SourceIVRCall,
		Notes:  i.callNote(dc, project, "IVR Call"),
	}
	if dc.Quality == domain.CallQualityGood {
		lead.CurrentStageID = domain.StageIVRLead
		lead.QualityScore = QualityLeadScore
	} else {
		lead.CurrentStageID = domain.StageJunk
		lead.QualityScore = JunkLeadScore
	}

	if err := i.leads.Create(ctx, lead); err != nil {
		return nil, domain.NewRepositoryError("create lead", err)
	}

	if project != nil {
		if err := i.leads.AddInterestedProject(ctx, lead.ID, project.ID); err != nil {
			return nil, domain.NewRepositoryError("add interested project", err)
		}
		lead.InterestedProjectIDs = append(lead.InterestedProjectIDs, project.ID)
	}

	if err := i.markProcessed(ctx, dc.Call.ID, lead.ID); err != nil {
		return nil, err
	}

	logger.Infof("Created %s lead %d from call %d (%s, %ds)",
		dc.Quality, lead.ID, dc.Call.ID, phone.Mask(dc.Phone), dc.Call.DurationSeconds)

	return &Outcome{
		CallID:  dc.Call.ID,
		LeadID:  lead.ID,
		Created: true,
		Quality: dc.Quality,
	}, nil
}

func (i *Ingestor) updateLead(ctx context.Context, lead *domain.Lead, dc calls.DedupedCall) (*Outcome, error) {
	project, err := i.resolveProject(ctx, dc.Call.ToNumber)
	if err != nil {
		return nil, err
	}

	if project != nil && !lead.HasProject(project.ID) {
		if err := i.leads.AddInterestedProject(ctx, lead.ID, project.ID); err != nil {
			return nil, domain.NewRepositoryError("add interested project", err)
		}
		lead.InterestedProjectIDs = append(lead.InterestedProjectIDs, project.ID)
	}

	note := i.callNote(dc, project, "New IVR Call")
	if lead.Notes == "" {
		lead.Notes = note
	} else {
		lead.Notes = lead.Notes + "\n\n" + note
	}

	promoted := false
	if dc.Quality == domain.CallQualityGood && lead.IsJunk() {
		lead.CurrentStageID = domain.StageIVRLead
		if lead.QualityScore < PromotedScoreFloor {
			lead.QualityScore = PromotedScoreFloor
		}
		promoted = true
	}

	if err := i.leads.Update(ctx, lead); err != nil {
		return nil, domain.NewRepositoryError("update lead", err)
	}

	if err := i.markProcessed(ctx, dc.Call.ID, lead.ID); err != nil {
		return nil, err
	}

	if promoted {
		logger.Infof("Promoted lead %d out of junk after quality call %d", lead.ID, dc.Call.ID)
	} else {
		logger.Debugf("Updated lead %d with call %d", lead.ID, dc.Call.ID)
	}

	return &Outcome{
		CallID:   dc.Call.ID,
		LeadID:   lead.ID,
		Promoted: promoted,
		Quality:  dc.Quality,
	}, nil
}

// resolveProject finds the project behind an IVR number, creating a
// placeholder when the number is unknown.
func (i *Ingestor) resolveProject(ctx context.Context, ivrNumber string) (*domain.Project, error) {
	ivrNumber = strings.TrimSpace(ivrNumber)
	if ivrNumber == "" {
		return nil, nil
	}

	project, err := i.projects.FindByIVRNumber(ctx, ivrNumber)
	if err != nil {
		return nil, domain.NewRepositoryError("find project by ivr number", err)
	}
	if project != nil {
		return project, nil
	}

	project = &domain.Project{
		Name:      "IVR Project " + ivrNumber,
		IVRNumber: ivrNumber,
	}
	if err := i.projects.Create(ctx, project); err != nil {
		return nil, domain.NewRepositoryError("create project", err)
	}

	logger.Infof("Created placeholder project %d for IVR number %s", project.ID, ivrNumber)

	return project, nil
}

func (i *Ingestor) markProcessed(ctx context.Context, callID, leadID int64) error {
	if err := i.calls.MarkProcessed(ctx, callID, &leadID); err != nil {
		return domain.NewRepositoryError("mark call processed", err)
	}
	return nil
}

func (i *Ingestor) callNote(dc calls.DedupedCall, project *domain.Project, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - Duration: %ds, Quality: %s (%s)",
		i.now().Format(noteTimeLayout), title, dc.Call.DurationSeconds, dc.Quality, dc.Reason)
	if project != nil {
		fmt.Fprintf(&b, ", Project: %s", project.Name)
	}
	return b.String()
}

func callerName(canonical string) string {
	last4 := canonical
	if len(canonical) > 4 {
		last4 = canonical[len(canonical)-4:]
	}
	return "IVR Caller " + last4
}
