package service

import (
	"strconv"

	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	aggsvc "github.com/andreypavlenko/offertrack/modules/aggregator/service"
	idmodel "github.com/andreypavlenko/offertrack/modules/identity/model"
	idsvc "github.com/andreypavlenko/offertrack/modules/identity/service"
	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	reportsmodel "github.com/andreypavlenko/offertrack/modules/reports/model"
	rulesmodel "github.com/andreypavlenko/offertrack/modules/rulesclassifier/model"
)

// ruleStageToCanonical normalizes the rule classifier's stage vocabulary
// onto the aggregator's canonical stage set. The rule path emits "Interview"
// for both interview_invite and round_update; the aggregator's lattice keys
// on "Interviewing".
var ruleStageToCanonical = map[string]string{
	"Applied":    "Applied",
	"OA":         "OA",
	"Interview":  "Interviewing",
	"Rejected":   "Rejected",
	"Offer":      "Offer",
	"Withdrawn":  "Withdrawn",
}

func canonicalStage(ruleStage string) string {
	if s, ok := ruleStageToCanonical[ruleStage]; ok {
		return s
	}
	return ruleStage
}

// interviewRuleEventTypes qualifies which rule-path event types assert the
// per-key interview-seen state the reminder-downgrade rule reads.
var interviewRuleEventTypes = map[string]struct{}{
	"interview_invite": {}, "round_update": {},
}

// ruleEventToClassified converts one rule-classifier event into the
// aggregator's schema-agnostic event, given the key info and message it
// came from.
func ruleEventToClassified(msg mmodel.NormalizedMessage, ev rulesmodel.Event, key idmodel.KeyInfo, company string) aggmodel.ClassifiedEvent {
	return aggmodel.ClassifiedEvent{
		ApplicationKey:     ev.ApplicationKey,
		Company:            company,
		Position:           key.RoleTitle,
		EventType:          ev.Type,
		Stage:              canonicalStage(ev.Stage),
		Confidence:         ev.Confidence,
		Date:               ev.OccurredAt,
		MessageID:          msg.ID,
		ThreadID:           msg.ThreadID,
		Subject:            mmodel.TruncateEvidence(msg.Subject),
		FromDomain:         msg.Domain(),
		SnippetHash:        mmodel.SubjectSnippetHash(msg.Subject, msg.Snippet),
		HasInterviewSignal: ev.Type == "interview_invite" || ev.Type == "round_update",
	}
}

// llmEventTypeToStage maps the AI-schema event_type enum onto the
// aggregator's canonical stage vocabulary. "other" carries no stage: such
// verdicts are recorded in the ai_message_classification artifact but never
// become an aggregator event.
var llmEventTypeToStage = map[string]string{
	"application": "Applied",
	"interview":   "Interviewing",
	"rejection":   "Rejected",
	"offer":       "Offer",
}

// llmVerdictToClassified converts one AI-schema verdict into the
// aggregator's schema-agnostic event. Returns ok=false for verdicts that
// carry no stage (event_type=other or not job-related).
func llmVerdictToClassified(msg mmodel.NormalizedMessage, verdict ports.Verdict, applicationKey string) (aggmodel.ClassifiedEvent, bool) {
	stage, ok := llmEventTypeToStage[verdict.EventType]
	if !ok || !verdict.IsJobRelated {
		return aggmodel.ClassifiedEvent{}, false
	}
	return aggmodel.ClassifiedEvent{
		ApplicationKey:     applicationKey,
		Company:            verdict.Company,
		Position:           verdict.Position,
		EventType:          verdict.EventType,
		Stage:              stage,
		Confidence:         verdict.Confidence,
		Date:               msg.Date,
		MessageID:          msg.ID,
		ThreadID:           msg.ThreadID,
		Subject:            mmodel.TruncateEvidence(msg.Subject),
		FromDomain:         msg.Domain(),
		SnippetHash:        mmodel.SubjectSnippetHash(msg.Subject, msg.Snippet),
		HasInterviewSignal: verdict.EventType == "interview",
	}, true
}

// debugRowFromRuleDecision projects one rule-classifier decision into the
// diagnostic reporters' row shape.
func debugRowFromRuleDecision(msg mmodel.NormalizedMessage, decision rulesmodel.Decision, key idmodel.KeyInfo) reportsmodel.MessageDebugRow {
	row := reportsmodel.MessageDebugRow{
		MessageID:              msg.ID,
		Date:                   msg.Date,
		FromDomain:             msg.Domain(),
		FromEmail:              msg.Address(),
		Subject:                msg.Subject,
		ThreadID:               msg.ThreadID,
		Ignored:                decision.Ignored,
		IgnoreReason:           decision.IgnoreReason,
		MatchedRuleID:          decision.RuleID,
		ExtractedCompanyName:   key.CompanyName,
		ExtractedCompanyDomain: key.CompanyDomain,
		CompanyDomainSource:    key.CompanyDomainSource,
		RoleTitle:              key.RoleTitle,
		RoleTitleConfidence:    key.RoleTitleConfidence,
		ApplicationKey:         decision.ApplicationKey,
		KeySource:              key.KeySource,
	}
	if len(decision.Events) > 0 {
		ev := decision.Events[0]
		row.EventType = ev.Type
		row.Stage = canonicalStage(ev.Stage)
		row.Confidence = ev.Confidence
	}
	return row
}

func prefilterDebugRow(msg mmodel.NormalizedMessage, reason string) reportsmodel.MessageDebugRow {
	return reportsmodel.MessageDebugRow{
		MessageID:    msg.ID,
		Date:         msg.Date,
		FromDomain:   msg.Domain(),
		FromEmail:    msg.Address(),
		Subject:      msg.Subject,
		ThreadID:     msg.ThreadID,
		Ignored:      true,
		IgnoreReason: "prefilter:" + reason,
	}
}

func formatConfidenceStr(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}

// resolveApplicationKeys runs the batch intra-domain alias merge (C5) once
// over every classified event from both paths, then rewrites each event's
// company and application key onto the merged label. This is what lets a
// rule-path event and an LLM-path event for the same underlying application
// land in the same aggregate: both paths compute their own per-message
// company guess, but only the merged label is grouping-stable.
func resolveApplicationKeys(events []aggmodel.ClassifiedEvent) []aggmodel.ClassifiedEvent {
	observations := make([]idmodel.AliasKey, 0, len(events))
	for _, ev := range events {
		root := idsvc.DomainRoot(ev.FromDomain)
		observations = append(observations, idmodel.AliasKey{DomainRoot: root, Label: ev.Company})
	}
	aliases := idsvc.MergeAliases(observations)

	out := make([]aggmodel.ClassifiedEvent, len(events))
	for i, ev := range events {
		root := idsvc.DomainRoot(ev.FromDomain)
		canonical := idsvc.ResolveCanonical(aliases, root, ev.Company)
		ev.Company = canonical
		ev.ApplicationKey = aggsvc.GroupingKey(canonical, ev.ThreadID, ev.MessageID)
		out[i] = ev
	}
	return out
}
