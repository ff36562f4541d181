package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	reportsmodel "github.com/andreypavlenko/offertrack/modules/reports/model"
	reportssvc "github.com/andreypavlenko/offertrack/modules/reports/service"
)

var relevantEmailsHeader = []string{"message_id", "thread_id", "date", "from_email_raw", "from_email_address", "subject", "body"}

var classificationHeader = []string{"message_id", "thread_id", "date", "from_email_raw", "from_email_address", "subject", "is_job_related", "company", "position", "event_type", "status", "confidence"}

var applicationTableHeader = []string{"application_id", "company", "position", "application_date", "current_status", "last_event_date", "email_count", "evidence_subject"}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// writeArtifacts emits the four persistent artifacts of spec §6: the kept
// message set, the per-message classification table, the per-application
// table, and the compact JSON summary. A write failure here is fatal per
// the ArtifactWrite error kind: the run aborts after surfacing the path.
func (p *Pipeline) writeArtifacts(ctx context.Context, opts Options, result *Result, messages, kept []mmodel.NormalizedMessage, debugRows []reportsmodel.MessageDebugRow, aggregates map[string]*aggmodel.ApplicationAggregate, verdicts map[string]ports.Verdict) error {
	ruleRows := make(map[string]reportsmodel.MessageDebugRow, len(debugRows))
	for _, row := range debugRows {
		ruleRows[row.MessageID] = row
	}

	relevantCSV, err := reportssvc.WriteCSVBytes(relevantEmailsHeader, relevantEmailsRows(kept))
	if err != nil {
		return err
	}
	if err := p.put(ctx, result, opts.RunID, "relevant_emails.csv", "text/csv", relevantCSV); err != nil {
		return err
	}

	classificationCSV, err := reportssvc.WriteCSVBytes(classificationHeader, classificationRows(messages, ruleRows, verdicts))
	if err != nil {
		return err
	}
	if err := p.put(ctx, result, opts.RunID, "ai_message_classification.csv", "text/csv", classificationCSV); err != nil {
		return err
	}

	appTableCSV, err := reportssvc.WriteCSVBytes(applicationTableHeader, applicationTableRows(aggregates))
	if err != nil {
		return err
	}
	if err := p.put(ctx, result, opts.RunID, "ai_application_table.csv", "text/csv", appTableCSV); err != nil {
		return err
	}

	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return runerr.New(runerr.KindArtifactWrite, err, "encode ai_result_summary")
	}
	if err := p.put(ctx, result, opts.RunID, "ai_result_summary.json", "application/json", summaryJSON); err != nil {
		return err
	}

	return nil
}

func (p *Pipeline) put(ctx context.Context, result *Result, runID, name, contentType string, data []byte) error {
	key := name
	if runID != "" {
		key = runID + "/" + name
	}
	location, err := p.deps.Store.Put(ctx, key, contentType, data)
	if err != nil {
		return runerr.New(runerr.KindArtifactWrite, err, name)
	}
	result.ArtifactPaths[name] = location
	return nil
}

func relevantEmailsRows(kept []mmodel.NormalizedMessage) [][]string {
	rows := make([][]string, 0, len(kept))
	for _, m := range kept {
		rows = append(rows, []string{m.ID, m.ThreadID, m.Date.Format(timeLayout), m.FromRaw, m.Address(), m.Subject, m.Body})
	}
	return rows
}

// classificationRows merges the rule-path decision (when the message
// survived the pre-filter) with the LLM-path verdict (present for every
// message when the LLM path runs, since C4 runs over the full fetched set;
// absent when the LLM classifier is disabled) into one row per message. The rule
// path wins when it fired an event, since it carries the shared
// interview-signal guard and runs at higher precision; the LLM verdict
// fills in everything the rule path left unclassified.
func classificationRows(messages []mmodel.NormalizedMessage, ruleRows map[string]reportsmodel.MessageDebugRow, verdicts map[string]ports.Verdict) [][]string {
	rows := make([][]string, 0, len(messages))
	for _, m := range messages {
		ruleRow, hasRule := ruleRows[m.ID]
		verdict, hasLLM := verdicts[m.ID]

		isJobRelated := (hasRule && ruleRow.EventType != "") || (hasLLM && verdict.IsJobRelated)
		eventType := ""
		status := ""
		confidence := 0.0
		company := ""
		position := ""

		if hasRule && ruleRow.EventType != "" {
			eventType = ruleRow.EventType
			status = ruleRow.Stage
			confidence = ruleRow.Confidence
			company = ruleRow.ExtractedCompanyName
			position = ruleRow.RoleTitle
		}
		if hasLLM && verdict.IsJobRelated {
			if eventType == "" {
				eventType = verdict.EventType
				if stage, ok := llmEventTypeToStage[verdict.EventType]; ok {
					status = stage
				}
				confidence = verdict.Confidence
			}
			if company == "" {
				company = verdict.Company
			}
			if position == "" {
				position = verdict.Position
			}
		}
		if eventType == "" {
			eventType = "other"
		}

		rows = append(rows, []string{
			m.ID, m.ThreadID, m.Date.Format(timeLayout), m.FromRaw, m.Address(), m.Subject,
			strconv.FormatBool(isJobRelated), company, position, eventType, status, formatConfidenceStr(confidence),
		})
	}
	return rows
}

func applicationTableRows(aggregates map[string]*aggmodel.ApplicationAggregate) [][]string {
	keys := make([]string, 0, len(aggregates))
	for k := range aggregates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		app := aggregates[k]
		rows = append(rows, []string{
			app.Key, app.Company, app.Position, app.ApplicationDate.Format(timeLayout), app.CurrentStatus,
			app.LastEventDate.Format(timeLayout), strconv.Itoa(app.EmailCount), app.EvidenceSubject,
		})
	}
	return rows
}
