// Package service implements the diagnostic reporters of C8: per-message
// domain/company extraction diagnostics, application-key quality debug,
// rule-hit confusion reporting, and OA reconciliation.
package service

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/andreypavlenko/offertrack/modules/reports/model"
)

var domainDebugHeader = []string{
	"gmail_message_id", "date", "from_email_domain", "from_email", "subject",
	"thread_id", "ignored", "ignore_reason", "matched_rule_id", "event_type",
	"stage", "confidence", "extracted_company_name", "extracted_company_domain",
	"company_domain_source", "role_title", "role_title_confidence",
	"application_key", "key_source",
}

// BuildDomainDebugCSV renders the per-message domain/company extraction
// diagnostics CSV, sorted by (date, message_id).
func BuildDomainDebugCSV(rows []model.MessageDebugRow) ([]byte, error) {
	sorted := append([]model.MessageDebugRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].MessageID < sorted[j].MessageID
	})

	out := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, []string{
			r.MessageID, r.Date.Format("2006-01-02T15:04:05Z07:00"), r.FromDomain, r.FromEmail, r.Subject,
			r.ThreadID, strconv.FormatBool(r.Ignored), r.IgnoreReason, r.MatchedRuleID, r.EventType,
			r.Stage, formatConfidence(r.Confidence), r.ExtractedCompanyName, r.ExtractedCompanyDomain,
			r.CompanyDomainSource, r.RoleTitle, formatConfidence(r.RoleTitleConfidence),
			r.ApplicationKey, r.KeySource,
		})
	}
	return writeCSVBytes(domainDebugHeader, out)
}

// BuildDomainDebugConsoleSummary produces the human-readable console summary
// of the domain-debug rows: top sender/extracted domains and key frequency.
func BuildDomainDebugConsoleSummary(rows []model.MessageDebugRow) []string {
	lines := []string{"Domain debug summary"}
	total := len(rows)
	if total == 0 {
		return append(lines, "no messages processed")
	}

	fromCounts := map[string]int{}
	extractedCounts := map[string]int{}
	keyCounts := map[string]int{}
	unknown, sameAsSender := 0, 0
	for _, r := range rows {
		fromDomain := r.FromDomain
		if fromDomain == "" {
			fromDomain = "<empty>"
		}
		fromCounts[fromDomain]++

		extracted := r.ExtractedCompanyDomain
		if extracted == "" {
			unknown++
			extracted = "<unknown>"
		} else if extracted == r.FromDomain {
			sameAsSender++
		}
		extractedCounts[extracted]++
		keyCounts[r.ApplicationKey]++
	}

	lines = append(lines, "top 30 from_email_domain by message count:")
	for _, kv := range topN(fromCounts, 30) {
		lines = append(lines, fmt.Sprintf("- %s: %d", kv.key, kv.count))
	}
	lines = append(lines, "top 30 extracted_company_domain by message count:")
	for _, kv := range topN(extractedCounts, 30) {
		lines = append(lines, fmt.Sprintf("- %s: %d", kv.key, kv.count))
	}
	lines = append(lines, fmt.Sprintf("extracted_company_domain empty/unknown: %d/%d (%.1f%%)", unknown, total, 100*float64(unknown)/float64(total)))
	lines = append(lines, fmt.Sprintf("extracted_company_domain == from_email_domain: %d/%d (%.1f%%)", sameAsSender, total, 100*float64(sameAsSender)/float64(total)))
	lines = append(lines, "top 20 application_keys by message_count:")
	for _, kv := range topN(keyCounts, 20) {
		lines = append(lines, fmt.Sprintf("- %s: %d", kv.key, kv.count))
	}
	return lines
}

type countedKey struct {
	key   string
	count int
}

// topN ranks a frequency map by count descending then key ascending,
// matching collections.Counter.most_common's tie-break.
func topN(counts map[string]int, n int) []countedKey {
	out := make([]countedKey, 0, len(counts))
	for k, v := range counts {
		out = append(out, countedKey{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}
