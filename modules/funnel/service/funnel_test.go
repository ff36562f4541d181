package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
)

func appWithTypes(key string, types ...string) *aggmodel.ApplicationAggregate {
	a := &aggmodel.ApplicationAggregate{Key: key, EventTypes: map[string]int{}}
	for _, t := range types {
		a.EventTypes[t]++
	}
	return a
}

func TestSummarize_RejectionBucketsAreExclusiveAndSumToTotal(t *testing.T) {
	apps := map[string]*aggmodel.ApplicationAggregate{
		"a": appWithTypes("a", "application_received", "rejection"),
		"b": appWithTypes("b", "application_received", "interview_invite", "rejection"),
		"c": appWithTypes("c", "application_received"),
		"d": appWithTypes("d", "application_received", "offer"),
	}
	s := Summarize(apps)
	assert.Equal(t, 4, s.Applications)
	assert.Equal(t, 2, s.RejectionsTotal)
	assert.Equal(t, 1, s.RejectionsWithInterview)
	assert.Equal(t, 1, s.RejectionsWithoutInterview)
	assert.Equal(t, s.RejectionsTotal, s.RejectionsWithInterview+s.RejectionsWithoutInterview)
	assert.Equal(t, 1, s.NoResponse)
	assert.Equal(t, 1, s.Offers)
	assert.Equal(t, 1, s.Interviews)
}

func TestSummarize_S1DirectRejectionNoInterview(t *testing.T) {
	apps := map[string]*aggmodel.ApplicationAggregate{
		"workday": appWithTypes("workday", "application_received", "status_update", "rejection"),
	}
	s := Summarize(apps)
	assert.Equal(t, 1, s.Applications)
	assert.Equal(t, 1, s.RejectionsTotal)
	assert.Equal(t, 1, s.RejectionsWithoutInterview)
	assert.Equal(t, 0, s.Interviews)
}

func TestSummarize_S2WeakFutureLanguageNotCountedAsInterview(t *testing.T) {
	apps := map[string]*aggmodel.ApplicationAggregate{
		"acme": appWithTypes("acme", "rejection"),
	}
	s := Summarize(apps)
	assert.Equal(t, 0, s.Interviews)
	assert.Equal(t, 1, s.RejectionsWithoutInterview)
}

func TestSummarize_AllCountsNonNegative(t *testing.T) {
	s := Summarize(map[string]*aggmodel.ApplicationAggregate{})
	assert.GreaterOrEqual(t, s.Applications, 0)
	assert.GreaterOrEqual(t, s.Interviews, 0)
	assert.GreaterOrEqual(t, s.NoResponse, 0)
	assert.GreaterOrEqual(t, s.RejectionsTotal, 0)
	assert.GreaterOrEqual(t, s.Offers, 0)
}
