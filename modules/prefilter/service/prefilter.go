// Package service implements the relevance pre-filter (C2): a coarse,
// explainable keep/drop gate evaluated before the expensive classifiers run.
package service

import (
	"strings"

	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/prefilter/model"
)

// Decision is the per-message outcome of the pre-filter: kept, or dropped
// with a named reason.
type Decision struct {
	MessageID string
	Keep      bool
	Reason    string
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func hasDomain(domain string, set map[string]struct{}) bool {
	if _, ok := set[domain]; ok {
		return true
	}
	for d := range set {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// Decide evaluates the first-match-wins rule cascade of spec §4.1 against
// one message.
func Decide(msg mmodel.NormalizedMessage) Decision {
	subject := strings.ToLower(strings.TrimSpace(msg.Subject))
	domain := msg.Domain()

	for _, prefix := range []string{"accepted:", "declined:", "tentative:"} {
		if strings.HasPrefix(subject, prefix) {
			return Decision{MessageID: msg.ID, Keep: false, Reason: "calendar_response_subject_prefix"}
		}
	}

	if containsAny(subject, model.NewsletterTokens) {
		return Decision{MessageID: msg.ID, Keep: false, Reason: "newsletter_digest_subject"}
	}

	hasStrongSignal := containsAny(subject, model.StrongJobSignalPhrases)

	if hasDomain(domain, model.SocialAndJobBoardDomains) && !hasStrongSignal {
		return Decision{MessageID: msg.ID, Keep: false, Reason: "social_without_job_signal"}
	}

	if hasDomain(domain, model.ATSWhitelistDomains) {
		return Decision{MessageID: msg.ID, Keep: true, Reason: "ats_whitelist_domain"}
	}

	if hasDomain(domain, model.CalendarVendorDomains) {
		if containsAny(subject, model.InterviewSchedulingTokens) {
			return Decision{MessageID: msg.ID, Keep: true, Reason: "calendar_vendor_scheduling_token"}
		}
		return Decision{MessageID: msg.ID, Keep: false, Reason: "calendar_vendor_no_scheduling_token"}
	}

	if hasStrongSignal {
		return Decision{MessageID: msg.ID, Keep: true, Reason: "strong_subject_signal"}
	}

	return Decision{MessageID: msg.ID, Keep: false, Reason: "no_first_scan_signal"}
}

// Run applies Decide across a batch, returning the kept messages (in input
// order) and the full diagnostic decision table for every message.
func Run(messages []mmodel.NormalizedMessage) (kept []mmodel.NormalizedMessage, decisions []Decision) {
	decisions = make([]Decision, 0, len(messages))
	for _, msg := range messages {
		d := Decide(msg)
		decisions = append(decisions, d)
		if d.Keep {
			kept = append(kept, msg)
		}
	}
	return kept, decisions
}
