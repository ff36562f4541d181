package model

import "time"

// Evidence is the supporting detail recorded alongside an Event, used by
// the diagnostic reporters of C8.
type Evidence struct {
	MessageID           string
	ThreadID            string
	FromDomain          string
	Subject             string
	SubjectSnippetHash  string
	Pattern             string
	ATSSender           bool
	ApplicationKey       string
}

// Event is the rule-pipeline's per-message output, emitted at most once per
// message (first-match-wins over the event-kind precedence).
type Event struct {
	Type           string
	Stage          string
	OccurredAt     time.Time
	Confidence     float64
	Evidence       Evidence
	ApplicationKey string
}

// Decision is the full result of running the rules classifier against one
// message: the event (if any), ignore status/reason, and the rule that fired.
type Decision struct {
	Events         []Event
	Ignored        bool
	IgnoreReason   string
	ApplicationKey string
	RuleID         string
}
