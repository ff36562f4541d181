// Package ports defines the external-collaborator contracts the core
// pipeline depends on but does not implement: the mail-provider fetch
// adapter and the LLM classification transport.
package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/offertrack/modules/messages/model"
)

// FetchWindow bounds a single adapter fetch to a closed date interval.
type FetchWindow struct {
	Start        time.Time
	End          time.Time
	MaxMessages  int
	IncludeBody  bool
}

// MailAdapter yields normalized messages for a date window. Pagination,
// token refresh, retries and HTML-to-text stripping are internal to the
// implementation; the core only ever sees NormalizedMessage values.
type MailAdapter interface {
	Fetch(ctx context.Context, window FetchWindow) (<-chan model.NormalizedMessage, <-chan error)
}

// Verdict is the structured output of one LLM classification call, matching
// the AI schema of §3/§6: is_job_related, company, position, event_type,
// confidence.
type Verdict struct {
	IsJobRelated bool
	Company      string
	Position     string
	EventType    string
	Confidence   float64
}

// LLMTransport classifies a single message. It must refuse all calls with
// ErrLLMDisabled when the transport has been switched off process-wide.
type LLMTransport interface {
	ClassifyOne(ctx context.Context, msg model.NormalizedMessage, modelName string, timeout time.Duration) (Verdict, error)
}
