package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/offertrack/modules/aggregator/model"
)

func day(offset int) time.Time {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestAggregate_TerminalPrecedenceOverridesEarlierInterview(t *testing.T) {
	events := []model.ClassifiedEvent{
		{ApplicationKey: "acme", EventType: "application_received", Stage: "Applied", Confidence: 0.9, Date: day(0), Subject: "Thanks for applying"},
		{ApplicationKey: "acme", EventType: "interview_invite", Stage: "Interviewing", Confidence: 0.9, Date: day(5), Subject: "Interview scheduled", HasInterviewSignal: true},
		{ApplicationKey: "acme", EventType: "rejection", Stage: "Rejected", Confidence: 0.95, Date: day(2), Subject: "Not moving forward"},
	}
	aggs := Aggregate(events)
	require.Contains(t, aggs, "acme")
	assert.Equal(t, "Rejected", aggs["acme"].CurrentStatus, "a terminal status must win even if it arrived before the interview event")
}

func TestAggregate_InterviewGuardExcludesWeakSignal(t *testing.T) {
	events := []model.ClassifiedEvent{
		{ApplicationKey: "acme", EventType: "application_received", Stage: "Applied", Confidence: 0.9, Date: day(0)},
		{ApplicationKey: "acme", EventType: "interview", Stage: "Interviewing", Confidence: 0.6, Date: day(1), HasInterviewSignal: false},
	}
	aggs := Aggregate(events)
	assert.Equal(t, "Applied", aggs["acme"].CurrentStatus)
}

func TestAggregate_ApplicationDateIsMinTruncatedToDay(t *testing.T) {
	events := []model.ClassifiedEvent{
		{ApplicationKey: "acme", EventType: "application_received", Stage: "Applied", Date: day(3)},
		{ApplicationKey: "acme", EventType: "status_update", Stage: "Applied", Date: day(1)},
	}
	aggs := Aggregate(events)
	assert.Equal(t, truncateToDay(day(1)), aggs["acme"].ApplicationDate)
	assert.Equal(t, day(3), aggs["acme"].LastEventDate)
}

func TestAggregate_EvidenceSelectionPrefersHigherStage(t *testing.T) {
	events := []model.ClassifiedEvent{
		{ApplicationKey: "acme", EventType: "application_received", Stage: "Applied", Confidence: 0.9, Date: day(0), Subject: "Thanks for applying"},
		{ApplicationKey: "acme", EventType: "offer", Stage: "Offer", Confidence: 0.9, Date: day(4), Subject: "Your offer letter"},
	}
	aggs := Aggregate(events)
	assert.Equal(t, "Your offer letter", aggs["acme"].EvidenceSubject)
}

func TestGroupingKey_Precedence(t *testing.T) {
	assert.Equal(t, "acme", GroupingKey("acme", "t1", "m1"))
	assert.Equal(t, "thread:t1", GroupingKey("", "t1", "m1"))
	assert.Equal(t, "msg:m1", GroupingKey("", "", "m1"))
}
