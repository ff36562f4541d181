package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
)

type fakeTransport struct {
	verdict ports.Verdict
	err     error
}

func (f fakeTransport) ClassifyOne(ctx context.Context, msg mmodel.NormalizedMessage, modelName string, timeout time.Duration) (ports.Verdict, error) {
	return f.verdict, f.err
}

func TestClassifier_EnforcesAllowList(t *testing.T) {
	c := New(fakeTransport{verdict: ports.Verdict{IsJobRelated: true, EventType: "bogus", Confidence: 0.5, Company: "Acme Inc"}}, "model", time.Second)
	msg := mmodel.NormalizedMessage{FromRaw: "hr@acme.com", Subject: "Update"}
	v, err := c.ClassifyOne(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "other", v.EventType)
}

func TestClassifier_ClampsConfidence(t *testing.T) {
	c := New(fakeTransport{verdict: ports.Verdict{IsJobRelated: true, EventType: "application", Confidence: 5}}, "model", time.Second)
	v, err := c.ClassifyOne(context.Background(), mmodel.NormalizedMessage{FromRaw: "hr@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestClassifier_CalendarRSVPNoiseGuard(t *testing.T) {
	c := New(fakeTransport{verdict: ports.Verdict{IsJobRelated: true, EventType: "interview", Confidence: 0.8}}, "model", time.Second)
	msg := mmodel.NormalizedMessage{FromRaw: "someone@gmail.com", Subject: "Accepted: Your interview has been scheduled!"}
	v, err := c.ClassifyOne(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, v.IsJobRelated)
	assert.Equal(t, "other", v.EventType)
}

func TestClassifier_InterviewGuardDowngradesWeakSignal(t *testing.T) {
	c := New(fakeTransport{verdict: ports.Verdict{IsJobRelated: true, EventType: "interview", Confidence: 0.6}}, "model", time.Second)
	msg := mmodel.NormalizedMessage{FromRaw: "hr@company.com", Subject: "Nice to Meet You!", Snippet: "If there is strong alignment we will schedule a call."}
	v, err := c.ClassifyOne(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "other", v.EventType)
}

func TestClassifier_CanonicalizesCompany(t *testing.T) {
	c := New(fakeTransport{verdict: ports.Verdict{IsJobRelated: true, EventType: "application", Confidence: 0.9, Company: "Xebia Group Inc"}}, "model", time.Second)
	msg := mmodel.NormalizedMessage{FromRaw: "careers@xebia.com", Subject: "Thanks for applying"}
	v, err := c.ClassifyOne(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "xebia", v.Company)
}

func TestClassifier_NotJobRelatedClearsCompany(t *testing.T) {
	c := New(fakeTransport{verdict: ports.Verdict{IsJobRelated: false, EventType: "application", Company: "Acme"}}, "model", time.Second)
	v, err := c.ClassifyOne(context.Background(), mmodel.NormalizedMessage{FromRaw: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "other", v.EventType)
	assert.Empty(t, v.Company)
}
