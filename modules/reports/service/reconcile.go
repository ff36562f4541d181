package service

import (
	"fmt"
	"sort"
	"strconv"

	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	"github.com/andreypavlenko/offertrack/modules/reports/model"
)

var reconcileStageRank = map[string]int{
	"Applied": 10, "OA": 20, "Interviewing": 30, "Offer": 40, "Rejected": 90, "Withdrawn": 95,
}

// ReconcileEventTypes is the fixed display order for the reconciliation
// console summary's message-type counter.
var ReconcileEventTypes = []string{
	"oa", "interview_invite", "rejection", "offer", "application_received",
	"round_update", "withdrawn", "interview_reminder",
}

var reconcileHeader = []string{
	"application_key", "company_domain", "role_title", "max_stage_reached", "counted_oa",
	"oa_event_count", "why_counted_oa",
	"evidence_event_type_1", "evidence_stage_1", "evidence_confidence_1", "evidence_date_1", "evidence_domain_1", "evidence_subject_1",
	"evidence_event_type_2", "evidence_stage_2", "evidence_confidence_2", "evidence_date_2", "evidence_domain_2", "evidence_subject_2",
	"evidence_event_type_3", "evidence_stage_3", "evidence_confidence_3", "evidence_date_3", "evidence_domain_3", "evidence_subject_3",
}

// ReconcileRow is one application flagged as counted_oa in the audit, with
// up to three pieces of supporting evidence.
type ReconcileRow struct {
	ApplicationKey  string
	CompanyDomain   string
	RoleTitle       string
	MaxStageReached string
	OAEventCount    int
	WhyCountedOA    []string
	Evidence        []aggmodel.ClassifiedEvent
}

// ReconcileResult bundles the reconciliation rows and the counters behind
// the console summary.
type ReconcileResult struct {
	Rows             []ReconcileRow
	FalsePositives   []ReconcileRow
	ComputedOAApps   int
	OAMessages       int
	MsgTypeCounts    map[string]int
	AppMaxStageCount map[string]int
}

func maxStage(events []aggmodel.ClassifiedEvent) string {
	if len(events) == 0 {
		return "Applied"
	}
	best := events[0]
	for _, e := range events[1:] {
		if reconcileStageRank[e.Stage] > reconcileStageRank[best.Stage] {
			best = e
		}
	}
	return best.Stage
}

func pickEvidence(events []aggmodel.ClassifiedEvent) []aggmodel.ClassifiedEvent {
	ranked := append([]aggmodel.ClassifiedEvent(nil), events...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if reconcileStageRank[a.Stage] != reconcileStageRank[b.Stage] {
			return reconcileStageRank[a.Stage] > reconcileStageRank[b.Stage]
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Date.After(b.Date)
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}

// BuildReconcileRows cross-checks the audit's counted_oa flags against the
// application's actual event history, the original's reconciliation pass.
func BuildReconcileRows(events []aggmodel.ClassifiedEvent, auditRows []model.AuditRow) ReconcileResult {
	byApp := map[string][]aggmodel.ClassifiedEvent{}
	for _, e := range events {
		byApp[e.ApplicationKey] = append(byApp[e.ApplicationKey], e)
	}

	msgCounts := map[string]int{}
	for _, e := range events {
		msgCounts[e.EventType]++
	}

	appStageCounts := map[string]int{}
	for _, appEvents := range byApp {
		appStageCounts[maxStage(appEvents)]++
	}

	auditByKey := map[string]model.AuditRow{}
	for _, a := range auditRows {
		auditByKey[a.ApplicationKey] = a
	}
	keys := make([]string, 0, len(auditByKey))
	for k := range auditByKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := auditByKey[keys[i]], auditByKey[keys[j]]
		if a.CompanyDomain != b.CompanyDomain {
			return a.CompanyDomain < b.CompanyDomain
		}
		if a.RoleTitle != b.RoleTitle {
			return a.RoleTitle < b.RoleTitle
		}
		return keys[i] < keys[j]
	})

	var rows, falseRows []ReconcileRow
	for _, key := range keys {
		audit := auditByKey[key]
		if !audit.CountedOA {
			continue
		}
		appEvents := byApp[key]
		stage := maxStage(appEvents)
		oaCount := 0
		for _, e := range appEvents {
			if e.EventType == "oa" {
				oaCount++
			}
		}

		var reasons []string
		if oaCount > 0 {
			reasons = append(reasons, "has_oa_event")
		}
		if reconcileStageRank[stage] >= reconcileStageRank["OA"] {
			reasons = append(reasons, "max_stage>=OA")
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "legacy_flag")
		}

		row := ReconcileRow{
			ApplicationKey:  key,
			CompanyDomain:   audit.CompanyDomain,
			RoleTitle:       audit.RoleTitle,
			MaxStageReached: stage,
			OAEventCount:    oaCount,
			WhyCountedOA:    reasons,
			Evidence:        pickEvidence(appEvents),
		}
		rows = append(rows, row)
		if oaCount == 0 {
			falseRows = append(falseRows, row)
		}
	}

	return ReconcileResult{
		Rows: rows, FalsePositives: falseRows,
		ComputedOAApps: len(rows), OAMessages: msgCounts["oa"],
		MsgTypeCounts: msgCounts, AppMaxStageCount: appStageCounts,
	}
}

func reconcileRowToCSV(r ReconcileRow) []string {
	why := ""
	for i, w := range r.WhyCountedOA {
		if i > 0 {
			why += "|"
		}
		why += w
	}
	out := []string{
		r.ApplicationKey, r.CompanyDomain, r.RoleTitle, r.MaxStageReached, "1",
		strconv.Itoa(r.OAEventCount), why,
	}
	for i := 0; i < 3; i++ {
		if i < len(r.Evidence) {
			e := r.Evidence[i]
			out = append(out, e.EventType, e.Stage, formatConfidence(e.Confidence),
				e.Date.Format("2006-01-02T15:04:05Z07:00"), e.FromDomain, truncateStr(e.Subject, 160))
		} else {
			out = append(out, "", "", "", "", "", "")
		}
	}
	return out
}

// EncodeReconcileCSV renders the reconciliation rows (and, separately, the
// false-positive subset) as CSV bytes.
func EncodeReconcileCSV(rows []ReconcileRow) ([]byte, error) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, reconcileRowToCSV(r))
	}
	return writeCSVBytes(reconcileHeader, out)
}

// BuildReconcileConsoleSummary renders the reconciliation console summary:
// message counts by event type, application counts by max stage reached,
// and the computed-vs-message OA application count.
func BuildReconcileConsoleSummary(r ReconcileResult) []string {
	lines := []string{"Reconciliation summary", "msg_count_by_event_type:"}
	for _, et := range ReconcileEventTypes {
		lines = append(lines, fmt.Sprintf("- %s: %d", et, r.MsgTypeCounts[et]))
	}
	lines = append(lines, "app_count_by_max_stage:")
	for _, stage := range []string{"Applied", "OA", "Interviewing", "Offer", "Rejected", "Withdrawn"} {
		lines = append(lines, fmt.Sprintf("- %s: %d", stage, r.AppMaxStageCount[stage]))
	}
	lines = append(lines, fmt.Sprintf("computed_oa_apps=%d vs oa_messages=%d", r.ComputedOAApps, r.OAMessages))
	return lines
}
