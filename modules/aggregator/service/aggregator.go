// Package service implements the event aggregator (C6): grouping classified
// events into applications, deriving current status with terminal-status
// precedence, and selecting the most informative evidence per application.
package service

import (
	"sort"
	"time"

	"github.com/andreypavlenko/offertrack/modules/aggregator/model"
)

// stagePriority is the priority lattice of spec §4.5 and §9: a flat table,
// not an ordered fold, so a late-arriving rejection always outranks an
// earlier interview regardless of delivery order. Rejected and Offer share
// rank 5 — ties between them break by later event date (decided Open
// Question, see DESIGN.md).
var stagePriority = map[string]int{
	"Applied":     1,
	"In Review":   2,
	"OA":          3,
	"Interviewing": 4,
	"Rejected":    5,
	"Offer":       5,
	"Withdrawn":   6,
}

var terminalStages = map[string]struct{}{
	"Rejected": {}, "Offer": {}, "Withdrawn": {},
}

// IsTerminal reports whether a stage is one of the three terminal statuses.
func IsTerminal(stage string) bool {
	_, ok := terminalStages[stage]
	return ok
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GroupingKey implements the §4.5 precedence: canonical company (post-alias)
// if non-empty, else thread:<thread_id>, else msg:<message_id>.
func GroupingKey(canonicalCompany, threadID, messageID string) string {
	if canonicalCompany != "" {
		return canonicalCompany
	}
	if threadID != "" {
		return "thread:" + threadID
	}
	return "msg:" + messageID
}

// eligibleForStatus applies the shared interview-confirmation guard at
// aggregate time: an Interviewing-stage event only counts toward status if
// it carries a meeting-invite signal (set upstream by the rule or LLM path).
func eligibleForStatus(ev model.ClassifiedEvent) bool {
	if ev.Stage == "Interviewing" {
		return ev.HasInterviewSignal
	}
	return true
}

// Aggregate groups classified events by application key and derives each
// application's current status, dates, and evidence. Aggregate does not sort
// its input: equal-priority stages are broken by the later event date, and
// between events with the same date the one that comes first in the input
// wins, so callers pass events already sorted by date.
func Aggregate(events []model.ClassifiedEvent) map[string]*model.ApplicationAggregate {
	byKey := map[string]*model.ApplicationAggregate{}
	order := []string{}

	for _, ev := range events {
		agg, ok := byKey[ev.ApplicationKey]
		if !ok {
			agg = &model.ApplicationAggregate{
				Key:        ev.ApplicationKey,
				Company:    ev.Company,
				Position:   ev.Position,
				EventTypes: map[string]int{},
			}
			byKey[ev.ApplicationKey] = agg
			order = append(order, ev.ApplicationKey)
		}
		addEvent(agg, ev)
	}

	for _, key := range order {
		finalize(byKey[key])
	}
	return byKey
}

// addEvent mutates agg's raw member list and bookkeeping fields; status and
// evidence are computed once, in finalize, after all members are known.
func addEvent(agg *model.ApplicationAggregate, ev model.ClassifiedEvent) {
	agg.AppendEvent(ev)
	agg.EmailCount++
	agg.EventTypes[ev.EventType]++
	if ev.Position != "" && agg.Position == "" {
		agg.Position = ev.Position
	}
	if agg.ApplicationDate.IsZero() || ev.Date.Before(agg.ApplicationDate) {
		agg.ApplicationDate = ev.Date
	}
	if ev.Date.After(agg.LastEventDate) {
		agg.LastEventDate = ev.Date
	}
}

func finalize(agg *model.ApplicationAggregate) {
	agg.ApplicationDate = truncateToDay(agg.ApplicationDate)
	agg.CurrentStatus = deriveStatus(agg.Events())
	agg.EvidenceSubject = selectEvidence(agg.Events()).Subject
}

// deriveStatus implements the terminal-precedence invariant: the
// highest-ranked eligible stage wins; ties break by later event date.
func deriveStatus(events []model.ClassifiedEvent) string {
	if len(events) == 0 {
		return "Applied"
	}
	best := events[0]
	bestPriority := -1
	for _, ev := range events {
		if !eligibleForStatus(ev) {
			continue
		}
		p := stagePriority[ev.Stage]
		if p == 0 {
			continue
		}
		switch {
		case p > bestPriority:
			bestPriority, best = p, ev
		case p == bestPriority && ev.Date.After(best.Date):
			best = ev
		}
	}
	if bestPriority == -1 {
		return "Applied"
	}
	return best.Stage
}

// selectEvidence picks the single most informative message per application
// by (stage_priority, confidence, event_date) descending, per spec §4.5.
func selectEvidence(events []model.ClassifiedEvent) model.ClassifiedEvent {
	sorted := append([]model.ClassifiedEvent{}, events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := stagePriority[sorted[i].Stage], stagePriority[sorted[j].Stage]
		if pi != pj {
			return pi > pj
		}
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted[0]
}

// TopEvidence returns the top-N evidence events for diagnostic exports,
// ranked the same way as selectEvidence.
func TopEvidence(agg *model.ApplicationAggregate, n int) []model.ClassifiedEvent {
	sorted := append([]model.ClassifiedEvent{}, agg.Events()...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := stagePriority[sorted[i].Stage], stagePriority[sorted[j].Stage]
		if pi != pj {
			return pi > pj
		}
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
