package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	"github.com/andreypavlenko/offertrack/modules/reports/model"
)

func sampleMessages() []model.MessageDebugRow {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.MessageDebugRow{
		{MessageID: "m1", Date: base, FromDomain: "greenhouse.io", Subject: "Thanks for applying", EventType: "application_received", Stage: "Applied", Confidence: 0.8, MatchedRuleID: "application_received:core_phrases", ApplicationKey: "acme", KeySource: "domain_role", ExtractedCompanyDomain: "acme.com", RoleTitle: "Backend Engineer"},
		{MessageID: "m2", Date: base.AddDate(0, 0, 2), FromDomain: "acme.com", Subject: "Interview invite", EventType: "interview_invite", Stage: "Interviewing", Confidence: 0.9, MatchedRuleID: "interview:strong_pattern", ApplicationKey: "acme", KeySource: "domain_role", ExtractedCompanyDomain: "acme.com", RoleTitle: "Backend Engineer"},
		{MessageID: "m3", Date: base.AddDate(0, 0, 5), FromDomain: "gmail.com", Subject: "calendar invite", Ignored: true, IgnoreReason: "gmail_interview_noise", ApplicationKey: "acme"},
	}
}

func TestBuildDomainDebugCSV_SortsByDateThenMessageID(t *testing.T) {
	csvBytes, err := BuildDomainDebugCSV(sampleMessages())
	require.NoError(t, err)
	text := string(csvBytes)
	idxM1 := strings.Index(text, "m1")
	idxM2 := strings.Index(text, "m2")
	assert.Less(t, idxM1, idxM2)
}

func TestBuildApplicationsDebugRows_AggregatesByKey(t *testing.T) {
	rows := BuildApplicationsDebugRows(sampleMessages())
	require.Len(t, rows, 1)
	assert.Equal(t, "acme", rows[0].ApplicationKey)
	assert.Equal(t, 3, rows[0].MessageCount)
	assert.Equal(t, 1, rows[0].IgnoredCount)
	assert.True(t, rows[0].HasInterview)
}

func TestBuildRuleHitReport_ContainsSections(t *testing.T) {
	report := BuildRuleHitReport(sampleMessages(), 10, RunMeta{Source: "sample", DateRange: "2026-03-01..2026-03-10", MaxMessages: "500"})
	assert.Contains(t, report, "# Rule-Hit Confusion Report")
	assert.Contains(t, report, "## B) Ignored breakdown")
	assert.Contains(t, report, "## E) Suspicious patterns")
}

func TestBuildReconcileRows_FlagsFalsePositiveWhenNoOAEvent(t *testing.T) {
	events := []aggmodel.ClassifiedEvent{
		{ApplicationKey: "acme", EventType: "application_received", Stage: "Applied", Date: time.Now()},
	}
	audits := []model.AuditRow{
		{ApplicationKey: "acme", CompanyDomain: "acme.com", CountedOA: true},
	}
	result := BuildReconcileRows(events, audits)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 0, result.Rows[0].OAEventCount)
	assert.Len(t, result.FalsePositives, 1)
}

func TestBuildAuditRows_ReflectsEventTypePresence(t *testing.T) {
	apps := map[string]*aggmodel.ApplicationAggregate{
		"acme": {Key: "acme", Company: "acme.com", EventTypes: map[string]int{"oa": 1, "application_received": 1}},
	}
	rows := BuildAuditRows(apps)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].CountedOA)
	assert.False(t, rows[0].CountedOffer)
}
