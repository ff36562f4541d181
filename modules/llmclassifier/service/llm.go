// Package service implements the LLM-delegated classifier (C4): it wraps a
// ports.LLMTransport, enforces the AI output schema, and applies the same
// noise and interview-signal guards as the rules classifier so both paths
// agree on one definition of "interview".
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	idservice "github.com/andreypavlenko/offertrack/modules/identity/service"
	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	rulessvc "github.com/andreypavlenko/offertrack/modules/rulesclassifier/service"
)

var allowedEventTypes = map[string]struct{}{
	"application": {},
	"interview":   {},
	"rejection":   {},
	"offer":       {},
	"other":       {},
}

// Classifier applies the AI-schema contract of spec §4.3 on top of a raw
// LLMTransport.
type Classifier struct {
	transport ports.LLMTransport
	model     string
	timeout   time.Duration
}

func New(transport ports.LLMTransport, modelName string, timeout time.Duration) *Classifier {
	return &Classifier{transport: transport, model: modelName, timeout: timeout}
}

// ClassifyOne runs one message through the transport and applies the
// allow-list, confidence clamp, calendar-RSVP noise guard, interview-signal
// guard and company canonicalization. A transport failure never aborts the
// run: it degrades to an "other/unknown" verdict.
func (c *Classifier) ClassifyOne(ctx context.Context, msg mmodel.NormalizedMessage) (ports.Verdict, error) {
	verdict, err := c.transport.ClassifyOne(ctx, msg, c.model, c.timeout)
	if err != nil {
		return ports.Verdict{IsJobRelated: false, EventType: "other"}, err
	}

	if _, ok := allowedEventTypes[verdict.EventType]; !ok {
		verdict.EventType = "other"
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}

	if isCalendarRSVPNoise(msg) {
		verdict.IsJobRelated = false
	}

	if verdict.EventType == "interview" && !rulessvc.ShouldCreateInterviewEvent(msg) {
		verdict.EventType = "other"
	}

	if !verdict.IsJobRelated {
		verdict.EventType = "other"
		verdict.Company = ""
	} else if verdict.Company != "" {
		verdict.Company = idservice.CanonicalizeCompany(verdict.Company, msg.Address(), msg.DisplayName(), msg.Subject, msg.Body)
	}

	return verdict, nil
}

// isCalendarRSVPNoise applies the same guard as the rules path: a personal
// mailbox sending an "accepted:"-prefixed subject with an interview mention
// is calendar RSVP traffic, not a real interview signal.
func isCalendarRSVPNoise(msg mmodel.NormalizedMessage) bool {
	domain := msg.Domain()
	subject := strings.ToLower(msg.Subject)
	if !isPersonalDomain(domain) {
		return false
	}
	return strings.HasPrefix(subject, "accepted:") && strings.Contains(subject, "interview")
}

func isPersonalDomain(domain string) bool {
	switch domain {
	case "gmail.com", "outlook.com", "hotmail.com", "yahoo.com", "icloud.com", "proton.me", "protonmail.com":
		return true
	default:
		return false
	}
}

// ErrUnclassified is a sentinel for a message that could not be classified.
// ClassifyOne does not return it: on a transport failure it returns the
// transport's own error together with the "other" fallback verdict.
var ErrUnclassified = errors.New("message could not be classified")
