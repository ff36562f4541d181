// Package service implements the deterministic per-message classifier (C3):
// a single pure function from a normalized message to a Decision, with a
// fixed event-kind precedence and named rule IDs for diagnostics.
package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andreypavlenko/offertrack/modules/identity/service"
	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/rulesclassifier/model"
)

var compiledCache = map[string]*regexp.Regexp{}

func compile(pattern string) *regexp.Regexp {
	if re, ok := compiledCache[pattern]; ok {
		return re
	}
	re := regexp.MustCompile(pattern)
	compiledCache[pattern] = re
	return re
}

// matchAnyRegex returns the first pattern in patterns (each compiled as a
// regular expression) that matches text, or "" if none match.
func matchAnyRegex(patterns []string, text string) string {
	for _, p := range patterns {
		if compile(p).MatchString(text) {
			return p
		}
	}
	return ""
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func hasPrefix(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// isCalendarOrSurveyNoise implements the ignore rules evaluated before any
// event match, per spec §4.2.
func isCalendarOrSurveyNoise(msg mmodel.NormalizedMessage) (bool, string) {
	subject := strings.ToLower(strings.TrimSpace(msg.Subject))
	snippet := strings.ToLower(msg.Snippet)
	domain := msg.Domain()

	if hasPrefix(subject, model.IgnoreSubjectPrefixes) {
		return true, "calendar_response_prefix"
	}
	if strings.Contains(subject, "survey") || strings.Contains(subject, "feedback") {
		return true, "survey_feedback_subject"
	}
	if strings.Contains(domain, "survey") || strings.Contains(domain, "recruitmentsurvey.") {
		return true, "survey_domain"
	}
	if domain == "gmail.com" && (strings.Contains(subject, "accepted:") || strings.Contains(subject, "reminder:") ||
		strings.Contains(snippet, "calendar") || strings.Contains(snippet, "invitation")) {
		return true, "gmail_calendar_noise"
	}
	return false, ""
}

var reasonToRule = map[string]string{
	"calendar_response_prefix": "ignore:calendar_response_prefix",
	"survey_feedback_subject":  "ignore:survey_feedback_subject",
	"survey_domain":            "ignore:survey_domain",
	"gmail_calendar_noise":     "ignore:gmail_calendar_noise",
}

// shouldCreateInterviewEvent is the shared meeting-invite signal gate; the
// LLM post-processing path calls it through ShouldCreateInterviewEvent so
// both pipelines agree on one definition of "interview".
func shouldCreateInterviewEvent(msg mmodel.NormalizedMessage) bool {
	text := strings.ToLower(msg.Subject + " " + msg.Snippet)
	if containsAny(text, model.InterviewNegativePhrases) {
		return false
	}
	if matchAnyRegex(model.InterviewStrongPatterns, text) != "" {
		return true
	}
	if !containsAny(text, model.InterviewAnchorPhrases) {
		return false
	}
	return containsAny(text, model.InterviewSchedulingPhrases)
}

// ShouldCreateInterviewEvent is the exported form of the meeting-invite
// signal gate, reused verbatim by the LLM classifier's post-processing step
// (spec §4.3, §4.5) so both paths share one interview definition.
func ShouldCreateInterviewEvent(msg mmodel.NormalizedMessage) bool {
	return shouldCreateInterviewEvent(msg)
}

func isRejectionText(text string) (bool, string) {
	if m := matchAnyRegex(model.RejectionDecisionPatterns, text); m != "" {
		return true, fmt.Sprintf("rejection:decision_phrase:%s", m)
	}
	if m := matchAnyRegex(model.RejectionCorePatterns, text); m != "" {
		return true, fmt.Sprintf("rejection:core_phrases:%s", m)
	}
	hasContext := matchAnyRegex(model.RejectionContextPatterns, text) != ""
	hasVerb := matchAnyRegex(model.RejectionVerbPatterns, text) != ""
	if hasContext && hasVerb {
		return true, "rejection:context_plus_decision_verb"
	}
	return false, ""
}

func baseEvidence(msg mmodel.NormalizedMessage, matchedPattern, applicationKey string) model.Evidence {
	domain := msg.Domain()
	return model.Evidence{
		MessageID:          msg.ID,
		ThreadID:           msg.ThreadID,
		FromDomain:         domain,
		Subject:            truncate(msg.Subject, 160),
		SubjectSnippetHash: mmodel.SubjectSnippetHash(msg.Subject, msg.Snippet),
		Pattern:            matchedPattern,
		ATSSender:          isATSSender(domain),
		ApplicationKey:     applicationKey,
	}
}

func isATSSender(domain string) bool {
	if _, ok := model.ATSHints[domain]; ok {
		return true
	}
	for hint := range model.ATSHints {
		if strings.Contains(domain, hint) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func decision(events []model.Event, ruleID, applicationKey string) model.Decision {
	return model.Decision{Events: events, Ignored: false, ApplicationKey: applicationKey, RuleID: ruleID}
}

func ignoredDecision(reason, ruleID, applicationKey string) model.Decision {
	return model.Decision{Events: nil, Ignored: true, IgnoreReason: reason, ApplicationKey: applicationKey, RuleID: ruleID}
}

// ClassifyMessageWithMeta is the single pure function the rules classifier
// exposes: it applies the event-kind precedence of spec §4.2 and returns
// the full decision, including the application key and matched rule.
func ClassifyMessageWithMeta(msg mmodel.NormalizedMessage) model.Decision {
	applicationKey := service.MakeRuleApplicationKey(msg)

	if ignored, reason := isCalendarOrSurveyNoise(msg); ignored {
		ruleID := reasonToRule[reason]
		if ruleID == "" {
			ruleID = "ignore:unknown"
		}
		return ignoredDecision(reason, ruleID, applicationKey)
	}

	text := msg.Subject + " " + msg.Snippet + " " + msg.FromRaw
	lowered := strings.ToLower(text)

	// Priority order:
	// offer > rejection > withdrawn > oa > interview_reminder/interview_invite
	// > round_update > status_update > application_received > no_match(ignore)
	if m := matchAnyRegex(model.OfferPatterns, text); m != "" {
		ruleID := fmt.Sprintf("offer:core_phrases:%s", m)
		ev := model.Event{
			Type: "offer", Stage: "Offer", OccurredAt: msg.Date, Confidence: 0.9,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if isRejection, ruleID := isRejectionText(text); isRejection {
		ev := model.Event{
			Type: "rejection", Stage: "Rejected", OccurredAt: msg.Date, Confidence: 0.95,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if m := matchAnyRegex(model.WithdrawnPatterns, text); m != "" {
		ruleID := fmt.Sprintf("withdrawn:core_phrases:%s", m)
		ev := model.Event{
			Type: "withdrawn", Stage: "Withdrawn", OccurredAt: msg.Date, Confidence: 0.9,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if m := matchAnyRegex(model.OAPatterns, text); m != "" {
		ruleID := fmt.Sprintf("oa:core_phrases:%s", m)
		ev := model.Event{
			Type: "oa", Stage: "OA", OccurredAt: msg.Date, Confidence: 0.9,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	// Reminder downgrade candidate: the orchestrator (C9) promotes it to
	// round_update when a prior interview event exists on this key, and
	// drops it otherwise.
	if strings.Contains(lowered, "reminder:") && (strings.Contains(lowered, "is on") || strings.Contains(lowered, "tomorrow at")) {
		ruleID := "interview_reminder:timing_language"
		ev := model.Event{
			Type: "interview_reminder", Stage: "Interview", OccurredAt: msg.Date, Confidence: 0.4,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if shouldCreateInterviewEvent(msg) {
		domain := msg.Domain()
		if domain == "gmail.com" {
			return ignoredDecision("gmail_interview_noise", "ignore:gmail_interview_noise", applicationKey)
		}
		confidence := 0.35
		if domain != "" {
			if _, free := model.FreeDomains[domain]; !free {
				confidence = 0.9
			}
		}
		ruleID := "interview_invite:schedule_phrases"
		ev := model.Event{
			Type: "interview_invite", Stage: "Interview", OccurredAt: msg.Date, Confidence: confidence,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if m := matchAnyRegex(model.RoundUpdatePatterns, text); m != "" {
		ruleID := fmt.Sprintf("round_update:round_phrases:%s", m)
		ev := model.Event{
			Type: "round_update", Stage: "Interview", OccurredAt: msg.Date, Confidence: 0.85,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if m := matchAnyRegex(model.StatusUpdatePatterns, text); m != "" {
		ruleID := fmt.Sprintf("status_update:core_phrases:%s", m)
		ev := model.Event{
			Type: "status_update", Stage: "Applied", OccurredAt: msg.Date, Confidence: 0.7,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	if m := matchAnyRegex(model.ApplicationReceivedPatterns, text); m != "" {
		ruleID := fmt.Sprintf("application_received:core_phrases:%s", m)
		ev := model.Event{
			Type: "application_received", Stage: "Applied", OccurredAt: msg.Date, Confidence: 0.9,
			Evidence: baseEvidence(msg, ruleID, applicationKey), ApplicationKey: applicationKey,
		}
		return decision([]model.Event{ev}, ruleID, applicationKey)
	}

	return ignoredDecision("no_match", "ignore:no_match", applicationKey)
}

// ClassifyMessage returns just the events from ClassifyMessageWithMeta, for
// callers that don't need the ignore/rule diagnostics.
func ClassifyMessage(msg mmodel.NormalizedMessage) []model.Event {
	return ClassifyMessageWithMeta(msg).Events
}
