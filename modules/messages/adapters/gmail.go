package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
	"github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
)

// GmailAdapter fetches messages from a mailbox via the Gmail API. The OAuth
// consent flow and token persistence happen upstream; this adapter only
// ever sees an already-valid token source.
type GmailAdapter struct {
	tokenSource oauth2.TokenSource
	query       string
}

// NewGmailAdapter builds an adapter bound to one mailbox. query is an extra
// Gmail search operator appended after the date range, e.g. "label:jobs" to
// scope the run to a filtered label instead of the whole inbox.
func NewGmailAdapter(tokenSource oauth2.TokenSource, query string) *GmailAdapter {
	return &GmailAdapter{tokenSource: tokenSource, query: query}
}

func (a *GmailAdapter) Fetch(ctx context.Context, window ports.FetchWindow) (<-chan model.NormalizedMessage, <-chan error) {
	msgCh := make(chan model.NormalizedMessage)
	errCh := make(chan error, 1)

	go func() {
		defer close(msgCh)
		defer close(errCh)

		svc, err := gmail.NewService(ctx, option.WithTokenSource(a.tokenSource))
		if err != nil {
			errCh <- runerr.New(runerr.KindAdapterAuth, err, "gmail service init")
			return
		}

		q := fmt.Sprintf("after:%s before:%s", window.Start.Format("2006/01/02"), window.End.AddDate(0, 0, 1).Format("2006/01/02"))
		if a.query != "" {
			q = q + " " + a.query
		}

		sent := 0
		pageToken := ""
		for {
			call := svc.Users.Messages.List("me").Q(q).Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			listResp, err := call.Do()
			if err != nil {
				errCh <- runerr.New(runerr.KindAdapterTransport, err, "gmail messages.list")
				return
			}

			for _, ref := range listResp.Messages {
				if window.MaxMessages > 0 && sent >= window.MaxMessages {
					return
				}
				full, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
				if err != nil {
					errCh <- runerr.New(runerr.KindAdapterTransport, err, "gmail messages.get "+ref.Id)
					continue
				}
				msg := normalizeGmailMessage(full, window.IncludeBody)
				select {
				case msgCh <- msg:
					sent++
				case <-ctx.Done():
					return
				}
			}

			if listResp.NextPageToken == "" || (window.MaxMessages > 0 && sent >= window.MaxMessages) {
				return
			}
			pageToken = listResp.NextPageToken
		}
	}()

	return msgCh, errCh
}

func normalizeGmailMessage(full *gmail.Message, includeBody bool) model.NormalizedMessage {
	headers := map[string]string{}
	if full.Payload != nil {
		for _, h := range full.Payload.Headers {
			headers[strings.ToLower(h.Name)] = h.Value
		}
	}

	date := time.UnixMilli(full.InternalDate).UTC()
	snippet := full.Snippet
	body := snippet
	if includeBody {
		if text := extractGmailBody(full.Payload); text != "" {
			body = text
		}
	}

	return model.NormalizedMessage{
		ID:       full.Id,
		ThreadID: full.ThreadId,
		Date:     date,
		FromRaw:  headers["from"],
		Subject:  headers["subject"],
		Snippet:  snippet,
		Body:     body,
	}
}

func extractGmailBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		if decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data); err == nil {
			return string(decoded)
		}
	}
	for _, child := range part.Parts {
		if text := extractGmailBody(child); text != "" {
			return text
		}
	}
	return ""
}
