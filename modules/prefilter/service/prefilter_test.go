package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
)

func TestDecide_CalendarResponsePrefixDropped(t *testing.T) {
	msg := mmodel.NormalizedMessage{ID: "1", FromRaw: "a@company.com", Subject: "Accepted: Sync"}
	d := Decide(msg)
	assert.False(t, d.Keep)
	assert.Equal(t, "calendar_response_subject_prefix", d.Reason)
}

func TestDecide_NewsletterDropped(t *testing.T) {
	msg := mmodel.NormalizedMessage{ID: "2", FromRaw: "a@company.com", Subject: "Our weekly newsletter"}
	d := Decide(msg)
	assert.False(t, d.Keep)
	assert.Equal(t, "newsletter_digest_subject", d.Reason)
}

func TestDecide_SocialWithoutJobSignalDropped(t *testing.T) {
	msg := mmodel.NormalizedMessage{ID: "3", FromRaw: "jobs@linkedin.com", Subject: "You have 3 new notifications"}
	d := Decide(msg)
	assert.False(t, d.Keep)
	assert.Equal(t, "social_without_job_signal", d.Reason)
}

func TestDecide_ATSWhitelistKept(t *testing.T) {
	msg := mmodel.NormalizedMessage{ID: "4", FromRaw: "no-reply@greenhouse.io", Subject: "Hey there"}
	d := Decide(msg)
	assert.True(t, d.Keep)
	assert.Equal(t, "ats_whitelist_domain", d.Reason)
}

func TestDecide_CalendarVendorRequiresSchedulingToken(t *testing.T) {
	kept := Decide(mmodel.NormalizedMessage{ID: "5", FromRaw: "no-reply@calendly.com", Subject: "Interview scheduled"})
	assert.True(t, kept.Keep)

	dropped := Decide(mmodel.NormalizedMessage{ID: "6", FromRaw: "no-reply@calendly.com", Subject: "Your meeting notes"})
	assert.False(t, dropped.Keep)
	assert.Equal(t, "calendar_vendor_no_scheduling_token", dropped.Reason)
}

func TestDecide_StrongSubjectSignalKept(t *testing.T) {
	msg := mmodel.NormalizedMessage{ID: "7", FromRaw: "hr@company.com", Subject: "Thanks for applying"}
	d := Decide(msg)
	assert.True(t, d.Keep)
	assert.Equal(t, "strong_subject_signal", d.Reason)
}

func TestDecide_NoSignalDropped(t *testing.T) {
	msg := mmodel.NormalizedMessage{ID: "8", FromRaw: "friend@example.com", Subject: "Dinner tonight?"}
	d := Decide(msg)
	assert.False(t, d.Keep)
	assert.Equal(t, "no_first_scan_signal", d.Reason)
}

func TestRun_Stability(t *testing.T) {
	messages := []mmodel.NormalizedMessage{
		{ID: "1", FromRaw: "hr@company.com", Subject: "Thanks for applying"},
		{ID: "2", FromRaw: "friend@example.com", Subject: "Dinner tonight?"},
	}
	keptA, decisionsA := Run(messages)
	keptB, decisionsB := Run(messages)
	assert.Equal(t, keptA, keptB)
	assert.Equal(t, decisionsA, decisionsB)
	assert.Len(t, keptA, 1)
}
