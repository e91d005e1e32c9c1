package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
)

// SyncAlerter is told about runs that did not end in success.
type SyncAlerter interface {
	NotifyRunFinished(ctx context.Context, syncType, status string, result *SyncResult) error
}

// MailSyncAlerter mails a short HTML summary to a fixed recipient list.
type MailSyncAlerter struct {
	recipients []string
	send       func(to []string, subject, html string) error
}

func NewMailSyncAlerter(recipients []string) *MailSyncAlerter {
	return &MailSyncAlerter{recipients: recipients, send: config.SendMail}
}

func (a *MailSyncAlerter) NotifyRunFinished(_ context.Context, syncType, status string, result *SyncResult) error {
	if a == nil || len(a.recipients) == 0 || status == models.SyncStatusSuccess || result == nil {
		return nil
	}
	subject := fmt.Sprintf("[workable-sync] %s finished with status %s", syncType, status)
	return a.send(a.recipients, subject, buildSyncAlertHTML(syncType, status, result))
}

func buildSyncAlertHTML(syncType, status string, result *SyncResult) string {
	var details strings.Builder
	for _, d := range result.ErrorDetails {
		details.WriteString("<li>")
		details.WriteString(template.HTMLEscapeString(d))
		details.WriteString("</li>")
	}
	detailBlock := ""
	if details.Len() > 0 {
		detailBlock = "<p>Errors:</p><ul>" + details.String() + "</ul>"
	}

	return fmt.Sprintf(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;font-size:14px">
<p>Sync run <strong>#%d</strong> (%s) ended with status <strong>%s</strong>.</p>
<table cellpadding="4">
<tr><td>Candidates fetched</td><td>%d</td></tr>
<tr><td>Candidates written</td><td>%d</td></tr>
<tr><td>Errors</td><td>%d</td></tr>
</table>
<p>%s</p>
%s
</body></html>`,
		result.RunID,
		template.HTMLEscapeString(syncType),
		template.HTMLEscapeString(status),
		result.TotalCandidates,
		result.SyncedCandidates,
		result.Errors,
		template.HTMLEscapeString(result.Message),
		detailBlock,
	)
}
