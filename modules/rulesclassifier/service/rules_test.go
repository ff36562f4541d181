package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
)

func msgAt(from, subject, snippet string, date time.Time) mmodel.NormalizedMessage {
	return mmodel.NormalizedMessage{
		ID:      "m-" + subject,
		FromRaw: from,
		Subject: subject,
		Snippet: snippet,
		Date:    date,
	}
}

func TestClassifyMessage_Offer(t *testing.T) {
	msg := msgAt("hr@acme.com", "Your offer letter", "We are pleased to offer you the role.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	require.Len(t, d.Events, 1)
	assert.Equal(t, "offer", d.Events[0].Type)
	assert.Equal(t, "Offer", d.Events[0].Stage)
	assert.False(t, d.Ignored)
}

func TestClassifyMessage_RejectionCorePhrase(t *testing.T) {
	msg := msgAt("no-reply@myworkday.com", "Update on your application", "Unfortunately we have decided not to progress your application further on this occasion.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	require.Len(t, d.Events, 1)
	assert.Equal(t, "rejection", d.Events[0].Type)
	assert.Equal(t, "Rejected", d.Events[0].Stage)
	assert.InDelta(t, 0.95, d.Events[0].Confidence, 0.001)
}

func TestClassifyMessage_RejectionContextPlusVerb(t *testing.T) {
	msg := msgAt("hr@company.com", "Your application", "After careful consideration, we will not be progressing with your candidacy.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	require.Len(t, d.Events, 1)
	assert.Equal(t, "rejection", d.Events[0].Type)
	assert.Equal(t, "rejection:context_plus_decision_verb", d.RuleID)
}

func TestClassifyMessage_InterviewInviteATS(t *testing.T) {
	msg := msgAt("talent@greenhouse.io", "Interview has been scheduled", "Your interview has been scheduled for next week.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	require.Len(t, d.Events, 1)
	assert.Equal(t, "interview_invite", d.Events[0].Type)
	assert.InDelta(t, 0.9, d.Events[0].Confidence, 0.001)
}

func TestClassifyMessage_InterviewWeakFutureLanguageIsNotInterview(t *testing.T) {
	msg := msgAt("hr@company.com", "Nice to Meet You!", "If there is strong alignment we will schedule a call.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	assert.False(t, shouldCreateInterviewEvent(msg))
	assert.True(t, d.Ignored)
}

func TestClassifyMessage_GmailInterviewNoiseIsIgnored(t *testing.T) {
	msg := msgAt("someone@gmail.com", "Interview invitation", "Your interview has been scheduled, please confirm availability.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	assert.True(t, d.Ignored)
	assert.Equal(t, "gmail_interview_noise", d.IgnoreReason)
}

func TestClassifyMessage_InterviewReminderDowngradeCandidate(t *testing.T) {
	msg := msgAt("hr@company.com", "Reminder: your interview is on Thursday", "", time.Now())
	d := ClassifyMessageWithMeta(msg)
	require.Len(t, d.Events, 1)
	assert.Equal(t, "interview_reminder", d.Events[0].Type)
	assert.InDelta(t, 0.4, d.Events[0].Confidence, 0.001)
}

func TestClassifyMessage_CalendarRSVPPrefixIgnored(t *testing.T) {
	msg := msgAt("someone@gmail.com", "Accepted: Your interview has been scheduled!", "", time.Now())
	d := ClassifyMessageWithMeta(msg)
	assert.True(t, d.Ignored)
	assert.Equal(t, "calendar_response_prefix", d.IgnoreReason)
}

func TestClassifyMessage_SurveyIgnored(t *testing.T) {
	msg := msgAt("hr@company.com", "We value your feedback - survey", "", time.Now())
	d := ClassifyMessageWithMeta(msg)
	assert.True(t, d.Ignored)
	assert.Equal(t, "survey_feedback_subject", d.IgnoreReason)
}

func TestClassifyMessage_ApplicationReceived(t *testing.T) {
	msg := msgAt("no-reply@lever.co", "Thanks for applying to Acme", "We received your application.", time.Now())
	d := ClassifyMessageWithMeta(msg)
	require.Len(t, d.Events, 1)
	assert.Equal(t, "application_received", d.Events[0].Type)
	assert.Equal(t, "Applied", d.Events[0].Stage)
}

func TestClassifyMessage_NoMatchIgnored(t *testing.T) {
	msg := msgAt("someone@example.com", "Let's catch up sometime", "no job signal here", time.Now())
	d := ClassifyMessageWithMeta(msg)
	assert.True(t, d.Ignored)
	assert.Equal(t, "no_match", d.IgnoreReason)
}
