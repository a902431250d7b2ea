package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/onurcolak/lead-notification-service/internal/campaign"
	"github.com/onurcolak/lead-notification-service/internal/domain"
)

const (
	maxPrintedErrors   = 10
	maxPrintedFailures = 5
)

var csvHeader = []string{
	"lead_id", "lead_name", "phone", "project", "template",
	"status", "message_id", "error_code", "error",
}

func printPreview(w io.Writer, p campaign.Params) {
	mode := "LIVE"
	if p.DryRun {
		mode = "DRY RUN"
	}
	fmt.Fprintf(w, "Campaign (%s)\n", mode)
	fmt.Fprintf(w, "  Template:   %s (%s)\n", p.TemplateName, p.Language)
	fmt.Fprintf(w, "  Date range: %s to %s\n", p.FromDate, p.ToDate)
	if len(p.Projects) > 0 {
		fmt.Fprintf(w, "  Projects:   %s\n", strings.Join(p.Projects, ", "))
	}
	if p.HeaderMediaURL != "" {
		fmt.Fprintf(w, "  Media:      %s %s\n", p.HeaderMediaType, p.HeaderMediaURL)
	}
	if p.Limit > 0 {
		fmt.Fprintf(w, "  Limit:      %d\n", p.Limit)
	}
}

func printResult(w io.Writer, r *domain.CampaignRunResult) {
	fmt.Fprintf(w, "\nRun %s\n", r.RunID)
	fmt.Fprintf(w, "  Leads scanned: %d\n", r.TotalLeads)
	fmt.Fprintf(w, "  Valid leads:   %d\n", r.ValidLeads)
	fmt.Fprintf(w, "  Skipped:       %d\n", r.SkippedCount)
	if r.DryRun {
		fmt.Fprintf(w, "  Would send:    %d\n", r.SentCount)
	} else {
		fmt.Fprintf(w, "  Sent:          %d\n", r.SentCount)
	}
	fmt.Fprintf(w, "  Failed:        %d\n", r.FailedCount)
	fmt.Fprintf(w, "  Success rate:  %.1f%%\n", r.SuccessRate())

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(r.Errors))
		for i, e := range r.Errors {
			if i == maxPrintedErrors {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.Errors)-maxPrintedErrors)
				break
			}
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}

	if len(r.FailedMessages) > 0 {
		fmt.Fprintln(w, "\nFailed messages:")
		for i, m := range r.FailedMessages {
			if i == maxPrintedFailures {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.FailedMessages)-maxPrintedFailures)
				break
			}
			fmt.Fprintf(w, "  - lead %d (%s): %s %s\n", m.LeadID, m.Phone, m.ErrorCode, m.Error)
		}
	}
}

// writeResultCSV writes one row per attempted lead, sent rows first.
func writeResultCSV(w io.Writer, r *domain.CampaignRunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	rows := make([]domain.CampaignOutcome, 0, len(r.SentMessages)+len(r.FailedMessages))
	rows = append(rows, r.SentMessages...)
	rows = append(rows, r.FailedMessages...)

	for _, m := range rows {
		record := []string{
			strconv.FormatInt(m.LeadID, 10),
			m.LeadName,
			m.Phone,
			m.Project,
			m.Template,
			m.Status,
			m.TransportMessageID,
			m.ErrorCode,
			m.Error,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
