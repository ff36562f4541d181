package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andreypavlenko/offertrack/modules/reports/model"
)

// RunMeta carries the run-level facts shown in the rule-hit report header.
type RunMeta struct {
	Source      string
	DateRange   string
	MaxMessages string
}

// BuildRuleHitReport renders the markdown confusion report over a run's
// classification decisions: ignore-reason breakdown, rule-hit frequency,
// event-type totals and a handful of suspicious-pattern checks.
func BuildRuleHitReport(decisions []model.MessageDebugRow, topK int, meta RunMeta) string {
	total := len(decisions)
	var ignored, classified []model.MessageDebugRow
	for _, d := range decisions {
		if d.Ignored {
			ignored = append(ignored, d)
		} else {
			classified = append(classified, d)
		}
	}

	var b strings.Builder
	b.WriteString("# Rule-Hit Confusion Report\n\n")

	b.WriteString("## A) Run summary\n")
	fmt.Fprintf(&b, "- total_messages_processed: **%d**\n", total)
	fmt.Fprintf(&b, "- total_ignored: **%d**\n", len(ignored))
	fmt.Fprintf(&b, "- total_classified: **%d**\n", len(classified))
	fmt.Fprintf(&b, "- source: **%s**\n", meta.Source)
	fmt.Fprintf(&b, "- date_range: **%s**\n", meta.DateRange)
	fmt.Fprintf(&b, "- max_messages: **%s**\n\n", meta.MaxMessages)

	byIgnoreReason := map[string][]model.MessageDebugRow{}
	for _, d := range ignored {
		reason := d.IgnoreReason
		if reason == "" {
			reason = "unknown"
		}
		byIgnoreReason[reason] = append(byIgnoreReason[reason], d)
	}
	rowsB := [][]string{}
	for _, reason := range rankGroups(byIgnoreReason) {
		group := byIgnoreReason[reason]
		pct := pctOf(len(group), total)
		rowsB = append(rowsB, []string{
			reason, fmt.Sprintf("%d", len(group)), fmt.Sprintf("%.1f%%", pct),
			topItems(mapSubject(group, func(r model.MessageDebugRow) string { return r.FromDomain }), 5, 80),
			topItems(mapSubject(group, func(r model.MessageDebugRow) string { return r.Subject }), 5, 80),
		})
	}
	b.WriteString("## B) Ignored breakdown (by ignore_reason)\n")
	b.WriteString(mdTable([]string{"ignore_reason", "count", "pct", "top_domains", "top_subjects"}, rowsB))
	b.WriteString("\n\n")

	byRule := map[string][]model.MessageDebugRow{}
	for _, d := range classified {
		rule := d.MatchedRuleID
		if rule == "" {
			rule = "unknown"
		}
		byRule[rule] = append(byRule[rule], d)
	}
	rowsC := [][]string{}
	for _, rule := range rankGroups(byRule) {
		group := byRule[rule]
		pct := pctOf(len(group), total)
		avgConf := avgConfidence(group)
		et, st := "", ""
		if len(group) > 0 {
			et, st = group[0].EventType, group[0].Stage
		}
		rowsC = append(rowsC, []string{
			rule, et, st, fmt.Sprintf("%d", len(group)), fmt.Sprintf("%.1f%%", pct), fmt.Sprintf("%.2f", avgConf),
			topItems(mapSubject(group, func(r model.MessageDebugRow) string { return r.FromDomain }), 5, 80),
			topItems(mapSubject(group, func(r model.MessageDebugRow) string { return r.Subject }), 5, 80),
		})
	}
	b.WriteString("## C) Rule hits (by rule_id)\n")
	b.WriteString(mdTable([]string{"rule_id", "event_type", "stage", "count", "pct", "avg_conf", "top_domains", "top_subjects"}, rowsC))
	b.WriteString("\n\n")

	type eventKey struct{ eventType, stage string }
	byEvent := map[eventKey][]model.MessageDebugRow{}
	for _, d := range classified {
		byEvent[eventKey{d.EventType, d.Stage}] = append(byEvent[eventKey{d.EventType, d.Stage}], d)
	}
	eventKeys := make([]eventKey, 0, len(byEvent))
	for k := range byEvent {
		eventKeys = append(eventKeys, k)
	}
	sort.Slice(eventKeys, func(i, j int) bool {
		gi, gj := byEvent[eventKeys[i]], byEvent[eventKeys[j]]
		if len(gi) != len(gj) {
			return len(gi) > len(gj)
		}
		if eventKeys[i].eventType != eventKeys[j].eventType {
			return eventKeys[i].eventType < eventKeys[j].eventType
		}
		return eventKeys[i].stage < eventKeys[j].stage
	})
	rowsD := [][]string{}
	for _, k := range eventKeys {
		group := byEvent[k]
		avgConf := avgConfidence(group)
		medConf := medianConfidence(group)
		rowsD = append(rowsD, []string{
			k.eventType, k.stage, fmt.Sprintf("%d", len(group)), fmt.Sprintf("%.2f", avgConf), fmt.Sprintf("%.2f", medConf),
			topItems(mapSubject(group, func(r model.MessageDebugRow) string { return r.FromDomain }), 5, 80),
		})
	}
	b.WriteString("## D) Event type totals (by event_type)\n")
	b.WriteString(mdTable([]string{"event_type", "stage", "count", "avg_conf", "median_conf", "top_domains"}, rowsD))
	b.WriteString("\n\n")

	var gmailInterview, surveyEvents, weakApplied []model.MessageDebugRow
	for _, d := range classified {
		if d.EventType == "interview_invite" && (d.FromDomain == "gmail.com" || d.FromDomain == "outlook.com" || d.FromDomain == "yahoo.com") {
			gmailInterview = append(gmailInterview, d)
		}
		if strings.Contains(d.FromDomain, "survey") || strings.HasPrefix(d.FromDomain, "recruitmentsurvey") {
			surveyEvents = append(surveyEvents, d)
		}
		if strings.HasPrefix(d.MatchedRuleID, "application_received:core_phrases") && strings.Contains(strings.ToLower(d.Subject), "update on your application") {
			weakApplied = append(weakApplied, d)
		}
	}
	b.WriteString("## E) Suspicious patterns\n")
	fmt.Fprintf(&b, "- interview_invite on free-mail domains: **%d**\n", len(gmailInterview))
	fmt.Fprintf(&b, "  - top subjects: %s\n", topItems(mapSubject(gmailInterview, func(r model.MessageDebugRow) string { return r.Subject }), 5, 80))
	fmt.Fprintf(&b, "- classified events on survey domains: **%d**\n", len(surveyEvents))
	fmt.Fprintf(&b, "  - top subjects: %s\n", topItems(mapSubject(surveyEvents, func(r model.MessageDebugRow) string { return r.Subject }), 5, 80))
	fmt.Fprintf(&b, "- application_received via weak phrase ('update on your application'): **%d**\n", len(weakApplied))
	fmt.Fprintf(&b, "  - top subjects: %s\n\n", topItems(mapSubject(weakApplied, func(r model.MessageDebugRow) string { return r.Subject }), 5, 80))

	fmt.Fprintf(&b, "## F) Sample lines per rule (top %d rules)\n", topK)
	ruleOrder := rankGroups(byRule)
	if topK >= 0 && len(ruleOrder) > topK {
		ruleOrder = ruleOrder[:topK]
	}
	for _, rule := range ruleOrder {
		group := byRule[rule]
		if len(group) > 5 {
			group = group[:5]
		}
		fmt.Fprintf(&b, "### %s\n", rule)
		b.WriteString("date | from_domain | confidence | subject\n--- | --- | --- | ---\n")
		for _, g := range group {
			fmt.Fprintf(&b, "%s | %s | %.2f | %s\n", g.Date.Format("2006-01-02T15:04:05Z07:00"), g.FromDomain, g.Confidence, truncateStr(g.Subject, 120))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func rankGroups(groups map[string][]model.MessageDebugRow) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(groups[keys[i]]) != len(groups[keys[j]]) {
			return len(groups[keys[i]]) > len(groups[keys[j]])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func mapSubject(rows []model.MessageDebugRow, f func(model.MessageDebugRow) string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, f(r))
	}
	return out
}

func pctOf(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

func avgConfidence(rows []model.MessageDebugRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += r.Confidence
	}
	return sum / float64(len(rows))
}

func medianConfidence(rows []model.MessageDebugRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, r.Confidence)
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

func topItems(values []string, topK, cap int) string {
	counts := map[string]int{}
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
	}
	ranked := topN(counts, topK)
	parts := make([]string, 0, len(ranked))
	for _, kv := range ranked {
		k := kv.key
		if len(k) > cap {
			k = k[:cap]
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", k, kv.count))
	}
	return strings.Join(parts, ", ")
}

func mdTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range rows {
		b.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
	return b.String()
}
