package service

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/andreypavlenko/offertrack/modules/reports/model"
)

var stageRank = map[string]int{
	"Applied": 1, "OA": 2, "Interviewing": 3, "Rejected": 3, "Offer": 4, "Withdrawn": 0, "": 0,
}

var responseEventTypes = map[string]struct{}{
	"interview_invite": {}, "oa": {}, "rejection": {}, "offer": {}, "round_update": {},
}

// AppDebugRow is one application-key row of the applications-debug report.
type AppDebugRow struct {
	ApplicationKey    string
	KeySource         string
	CompanyDomain     string
	CompanyName       string
	RoleTitle         string
	RoleTitleSource   string
	FirstSeen         string
	LastSeen          string
	MessageCount      int
	ClassifiedCount   int
	IgnoredCount      int
	MaxStageReached   string
	HasResponse       bool
	HasOA             bool
	HasInterview      bool
	HasOffer          bool
	HasRejection      bool
	HasWithdrawn      bool
	TopSubjects       [3]string
}

// BuildApplicationsDebugRows groups message rows by application key and
// summarizes each key's classification quality, mirroring the original
// key_debug.build_applications_debug_rows.
func BuildApplicationsDebugRows(messages []model.MessageDebugRow) []AppDebugRow {
	grouped := map[string][]model.MessageDebugRow{}
	for _, m := range messages {
		grouped[m.ApplicationKey] = append(grouped[m.ApplicationKey], m)
	}

	out := make([]AppDebugRow, 0, len(grouped))
	for key, rows := range grouped {
		sorted := append([]model.MessageDebugRow(nil), rows...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

		firstSeen, lastSeen := "", ""
		if len(sorted) > 0 {
			firstSeen = sorted[0].Date.Format("2006-01-02T15:04:05Z07:00")
			lastSeen = sorted[len(sorted)-1].Date.Format("2006-01-02T15:04:05Z07:00")
		}

		classified, ignored := 0, 0
		maxStage := "Applied"
		var hasResponse, hasOA, hasInterview, hasOffer, hasRejection, hasWithdrawn bool

		for _, r := range rows {
			if !r.Ignored && r.EventType != "" {
				classified++
			}
			if r.Ignored {
				ignored++
			}
			if stageRank[r.Stage] > stageRank[maxStage] {
				maxStage = r.Stage
			}
			if _, ok := responseEventTypes[r.EventType]; ok {
				hasResponse = true
			}
			switch r.Stage {
			case "OA":
				hasOA = true
			case "Interviewing":
				hasInterview = true
			case "Offer":
				hasOffer = true
			case "Withdrawn":
				hasWithdrawn = true
			case "Rejected":
				hasRejection = true
			}
			if r.EventType == "rejection" {
				hasRejection = true
			}
			if r.EventType == "withdrawn" {
				hasWithdrawn = true
			}
		}

		byDateDesc := append([]model.MessageDebugRow(nil), rows...)
		sort.Slice(byDateDesc, func(i, j int) bool { return byDateDesc[i].Date.After(byDateDesc[j].Date) })
		var topSubjects [3]string
		for i := 0; i < 3 && i < len(byDateDesc); i++ {
			topSubjects[i] = truncateStr(byDateDesc[i].Subject, 90)
		}

		roleTitle := mostCommon(rows, func(r model.MessageDebugRow) string { return r.RoleTitle })
		roleSource := "unknown"
		if roleTitle != "" {
			roleSource = "parsed"
		}

		out = append(out, AppDebugRow{
			ApplicationKey:  key,
			KeySource:       mostCommon(rows, func(r model.MessageDebugRow) string { return r.KeySource }),
			CompanyDomain:   mostCommon(rows, func(r model.MessageDebugRow) string { return r.ExtractedCompanyDomain }),
			CompanyName:     mostCommon(rows, func(r model.MessageDebugRow) string { return r.ExtractedCompanyName }),
			RoleTitle:       roleTitle,
			RoleTitleSource: roleSource,
			FirstSeen:       firstSeen,
			LastSeen:        lastSeen,
			MessageCount:    len(rows),
			ClassifiedCount: classified,
			IgnoredCount:    ignored,
			MaxStageReached: maxStage,
			HasResponse:     hasResponse,
			HasOA:           hasOA,
			HasInterview:    hasInterview,
			HasOffer:        hasOffer,
			HasRejection:    hasRejection,
			HasWithdrawn:    hasWithdrawn,
			TopSubjects:     topSubjects,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompanyDomain != out[j].CompanyDomain {
			return out[i].CompanyDomain < out[j].CompanyDomain
		}
		if out[i].RoleTitle != out[j].RoleTitle {
			return out[i].RoleTitle < out[j].RoleTitle
		}
		return out[i].FirstSeen < out[j].FirstSeen
	})
	return out
}

func mostCommon(rows []model.MessageDebugRow, field func(model.MessageDebugRow) string) string {
	counts := map[string]int{}
	for _, r := range rows {
		if v := field(r); v != "" {
			counts[v]++
		}
	}
	best, bestCount := "", -1
	for _, kv := range topN(counts, len(counts)) {
		if kv.count > bestCount {
			best, bestCount = kv.key, kv.count
		}
	}
	return best
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var appDebugHeader = []string{
	"application_key", "key_source", "company_domain", "company_name", "role_title",
	"role_title_source", "first_seen", "last_seen", "message_count", "classified_message_count",
	"ignored_message_count", "max_stage_reached", "has_response", "has_oa", "has_interview",
	"has_offer", "has_rejection", "has_withdrawn", "top_subject_1", "top_subject_2", "top_subject_3",
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// CompanyCollisionRow flags companies whose application keys look merged or
// whose role extraction is systematically weak.
type CompanyCollisionRow struct {
	CompanyDomain             string
	DistinctApplicationKeys   int
	TotalMessages             int
	KeysMissingRoleTitle      int
	PctKeysMissingRoleTitle   float64
	MaxMessagesInSingleKey    int
	ExampleKeyWithMaxMessages string
	ExampleRoleForThatKey     string
	Notes                     []string
}

// BuildCompanyCollisionsRows groups application-debug rows by company domain
// and flags weak role extraction / probable key-merge suspects.
func BuildCompanyCollisionsRows(appRows []AppDebugRow) []CompanyCollisionRow {
	grouped := map[string][]AppDebugRow{}
	for _, r := range appRows {
		grouped[r.CompanyDomain] = append(grouped[r.CompanyDomain], r)
	}

	out := make([]CompanyCollisionRow, 0, len(grouped))
	for domain, rows := range grouped {
		distinct := len(rows)
		total := 0
		missingRole := 0
		var maxRow *AppDebugRow
		for i := range rows {
			total += rows[i].MessageCount
			if rows[i].RoleTitle == "" {
				missingRole++
			}
			if maxRow == nil || rows[i].MessageCount > maxRow.MessageCount {
				maxRow = &rows[i]
			}
		}
		pctMissing := 0.0
		if distinct > 0 {
			pctMissing = float64(missingRole) / float64(distinct)
		}
		maxMessages := 0
		exampleKey, exampleRole := "", ""
		if maxRow != nil {
			maxMessages = maxRow.MessageCount
			exampleKey = maxRow.ApplicationKey
			exampleRole = maxRow.RoleTitle
		}

		var notes []string
		if pctMissing > 0.5 {
			notes = append(notes, "ROLE_EXTRACTION_WEAK")
		}
		if maxMessages > 10 && exampleRole == "" {
			notes = append(notes, "MERGE_SUSPECT")
		}

		out = append(out, CompanyCollisionRow{
			CompanyDomain:             domain,
			DistinctApplicationKeys:   distinct,
			TotalMessages:             total,
			KeysMissingRoleTitle:      missingRole,
			PctKeysMissingRoleTitle:   pctMissing,
			MaxMessagesInSingleKey:    maxMessages,
			ExampleKeyWithMaxMessages: exampleKey,
			ExampleRoleForThatKey:     exampleRole,
			Notes:                     notes,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMessages != out[j].TotalMessages {
			return out[i].TotalMessages > out[j].TotalMessages
		}
		return out[i].CompanyDomain < out[j].CompanyDomain
	})
	return out
}

var companyCollisionsHeader = []string{
	"company_domain", "distinct_application_keys", "total_messages", "keys_missing_role_title",
	"pct_keys_missing_role_title", "max_messages_in_single_key", "example_application_key_with_max_messages",
	"example_role_title_for_that_key", "notes",
}

var roleExtractionHeader = []string{
	"gmail_message_id", "date", "from_domain", "subject", "thread_id", "extracted_company_domain",
	"extracted_company_name", "extracted_role_title", "role_title_confidence", "built_application_key",
	"key_source", "matched_rule_id", "event_type", "stage", "confidence", "ignored", "ignore_reason",
}

// BuildRoleExtractionDebugRows projects every classified message's role and
// key-extraction metadata, sorted by (date, message_id).
func BuildRoleExtractionDebugRows(messages []model.MessageDebugRow) []model.MessageDebugRow {
	var out []model.MessageDebugRow
	for _, m := range messages {
		if m.EventType == "" {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].MessageID < out[j].MessageID
	})
	return out
}

// KeyDebugOutputs holds the encoded CSV bytes of the three key-debug
// artifacts.
type KeyDebugOutputs struct {
	ApplicationsDebugCSV []byte
	CompanyCollisionsCSV []byte
	RoleExtractionCSV    []byte
}

// BuildKeyDebugOutputs renders the three key-debug CSV artifacts.
func BuildKeyDebugOutputs(messages []model.MessageDebugRow) (KeyDebugOutputs, error) {
	appRows := BuildApplicationsDebugRows(messages)
	companyRows := BuildCompanyCollisionsRows(appRows)
	roleRows := BuildRoleExtractionDebugRows(messages)

	appCSVRows := make([][]string, 0, len(appRows))
	for _, r := range appRows {
		appCSVRows = append(appCSVRows, []string{
			r.ApplicationKey, r.KeySource, r.CompanyDomain, r.CompanyName, r.RoleTitle, r.RoleTitleSource,
			r.FirstSeen, r.LastSeen, strconv.Itoa(r.MessageCount), strconv.Itoa(r.ClassifiedCount),
			strconv.Itoa(r.IgnoredCount), r.MaxStageReached, boolFlag(r.HasResponse), boolFlag(r.HasOA),
			boolFlag(r.HasInterview), boolFlag(r.HasOffer), boolFlag(r.HasRejection), boolFlag(r.HasWithdrawn),
			r.TopSubjects[0], r.TopSubjects[1], r.TopSubjects[2],
		})
	}
	appCSV, err := writeCSVBytes(appDebugHeader, appCSVRows)
	if err != nil {
		return KeyDebugOutputs{}, err
	}

	companyCSVRows := make([][]string, 0, len(companyRows))
	for _, r := range companyRows {
		notes := ""
		for i, n := range r.Notes {
			if i > 0 {
				notes += "|"
			}
			notes += n
		}
		companyCSVRows = append(companyCSVRows, []string{
			r.CompanyDomain, strconv.Itoa(r.DistinctApplicationKeys), strconv.Itoa(r.TotalMessages),
			strconv.Itoa(r.KeysMissingRoleTitle), strconv.FormatFloat(r.PctKeysMissingRoleTitle, 'f', 2, 64),
			strconv.Itoa(r.MaxMessagesInSingleKey), r.ExampleKeyWithMaxMessages, r.ExampleRoleForThatKey, notes,
		})
	}
	companyCSV, err := writeCSVBytes(companyCollisionsHeader, companyCSVRows)
	if err != nil {
		return KeyDebugOutputs{}, err
	}

	roleCSVRows := make([][]string, 0, len(roleRows))
	for _, r := range roleRows {
		roleCSVRows = append(roleCSVRows, []string{
			r.MessageID, r.Date.Format("2006-01-02T15:04:05Z07:00"), r.FromDomain, truncateStr(r.Subject, 160),
			r.ThreadID, r.ExtractedCompanyDomain, r.ExtractedCompanyName, r.RoleTitle,
			formatConfidence(r.RoleTitleConfidence), r.ApplicationKey, r.KeySource, r.MatchedRuleID,
			r.EventType, r.Stage, formatConfidence(r.Confidence), strconv.FormatBool(r.Ignored), r.IgnoreReason,
		})
	}
	roleCSV, err := writeCSVBytes(roleExtractionHeader, roleCSVRows)
	if err != nil {
		return KeyDebugOutputs{}, err
	}

	return KeyDebugOutputs{ApplicationsDebugCSV: appCSV, CompanyCollisionsCSV: companyCSV, RoleExtractionCSV: roleCSV}, nil
}

// BuildKeyDebugConsoleSummary produces the console summary over key-debug
// rows: top companies, top keys, and role/key-source quality ratios.
func BuildKeyDebugConsoleSummary(messages []model.MessageDebugRow) []string {
	appRows := BuildApplicationsDebugRows(messages)
	companyRows := BuildCompanyCollisionsRows(appRows)

	lines := []string{"Key debug summary", "top 10 companies by total_messages:"}
	for i := 0; i < 10 && i < len(companyRows); i++ {
		lines = append(lines, fmt.Sprintf("- %s: %d", companyRows[i].CompanyDomain, companyRows[i].TotalMessages))
	}

	topKeys := append([]AppDebugRow(nil), appRows...)
	sort.Slice(topKeys, func(i, j int) bool {
		if topKeys[i].MessageCount != topKeys[j].MessageCount {
			return topKeys[i].MessageCount > topKeys[j].MessageCount
		}
		return topKeys[i].ApplicationKey < topKeys[j].ApplicationKey
	})
	lines = append(lines, "top 10 application_keys by message_count:")
	for i := 0; i < 10 && i < len(topKeys); i++ {
		lines = append(lines, fmt.Sprintf("- %s: %d", topKeys[i].ApplicationKey, topKeys[i].MessageCount))
	}

	missingRole := 0
	for _, r := range appRows {
		if r.RoleTitle == "" {
			missingRole++
		}
	}
	lines = append(lines, fmt.Sprintf("applications with missing role_title: %d/%d", missingRole, len(appRows)))

	threadFallback := 0
	for _, r := range appRows {
		if r.KeySource == "thread_fallback" {
			threadFallback++
		}
	}
	pct := 0.0
	if len(appRows) > 0 {
		pct = float64(threadFallback) / float64(len(appRows)) * 100
	}
	lines = append(lines, fmt.Sprintf("percent of keys built via thread_fallback: %.1f%%", pct))
	return lines
}
