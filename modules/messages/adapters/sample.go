// Package adapters implements concrete ports.MailAdapter sources: a fixed
// in-memory sample for local demos, a flat CSV file for offline runs against
// recorded mailbox exports, and a live Gmail API adapter for real mailboxes.
package adapters

import (
	"context"
	"time"

	"github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
)

// SampleAdapter yields a fixed, hand-picked set of messages covering every
// pipeline stage, so a fresh checkout has something runnable without any
// OAuth dance or recorded export.
type SampleAdapter struct{}

func NewSampleAdapter() *SampleAdapter { return &SampleAdapter{} }

func (a *SampleAdapter) Fetch(ctx context.Context, window ports.FetchWindow) (<-chan model.NormalizedMessage, <-chan error) {
	msgCh := make(chan model.NormalizedMessage)
	errCh := make(chan error, 1)

	go func() {
		defer close(msgCh)
		defer close(errCh)
		sent := 0
		for _, m := range sampleMessages() {
			if window.MaxMessages > 0 && sent >= window.MaxMessages {
				return
			}
			select {
			case msgCh <- m:
				sent++
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgCh, errCh
}

func sampleMessages() []model.NormalizedMessage {
	now := time.Now().UTC()
	return []model.NormalizedMessage{
		{ID: "sample-1", ThreadID: "t1", Date: now, FromRaw: "jobs@companya.com", Subject: "Thanks for applying", Snippet: "Your application has been received", Body: "Your application has been received"},
		{ID: "sample-2", ThreadID: "t1", Date: now.Add(time.Hour), FromRaw: "recruiting@companya.com", Subject: "Recruiter screen invitation", Snippet: "Schedule your recruiter screen interview", Body: "Schedule your recruiter screen interview"},
		{ID: "sample-3", ThreadID: "t2", Date: now.Add(2 * time.Hour), FromRaw: "hiring@company.com", Subject: "Online assessment", Snippet: "Please complete OA", Body: "Please complete OA"},
		{ID: "sample-4", ThreadID: "t2", Date: now.Add(3 * time.Hour), FromRaw: "calendar@company.com", Subject: "Interview confirmation", Snippet: "Your interview has been scheduled", Body: "Your interview has been scheduled"},
		{ID: "sample-5", ThreadID: "t2", Date: now.Add(4 * time.Hour), FromRaw: "recruiting@company.com", Subject: "Offer letter", Snippet: "We are pleased to offer you", Body: "We are pleased to offer you"},
		{ID: "sample-6", ThreadID: "t3", Date: now.Add(5 * time.Hour), FromRaw: "no-reply@ashbyhq.com", Subject: "Application update", Snippet: "We regret to inform you", Body: "We regret to inform you"},
		{ID: "sample-7", ThreadID: "t4", Date: now.Add(6 * time.Hour), FromRaw: "candidate@gmail.com", Subject: "Application withdrawn", Snippet: "I would like to withdraw my application", Body: "I would like to withdraw my application"},
	}
}
