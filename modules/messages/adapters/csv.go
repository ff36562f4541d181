package adapters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
	"github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
)

// CSVAdapter reads a flat file of recorded message rows, the offline
// counterpart to the OAuth-backed Gmail adapter: company, stage,
// subject, snippet, body, from_email, thread_id, date (any column but date
// may be blank, in which case a plausible default is synthesized).
type CSVAdapter struct {
	Path string
}

func NewCSVAdapter(path string) *CSVAdapter { return &CSVAdapter{Path: path} }

func (a *CSVAdapter) Fetch(ctx context.Context, window ports.FetchWindow) (<-chan model.NormalizedMessage, <-chan error) {
	msgCh := make(chan model.NormalizedMessage)
	errCh := make(chan error, 1)

	go func() {
		defer close(msgCh)
		defer close(errCh)

		f, err := os.Open(a.Path)
		if err != nil {
			errCh <- runerr.New(runerr.KindAdapterTransport, err, "open csv source")
			return
		}
		defer f.Close()

		reader := csv.NewReader(f)
		header, err := reader.Read()
		if err != nil {
			errCh <- runerr.New(runerr.KindAdapterTransport, err, "read csv header")
			return
		}
		col := make(map[string]int, len(header))
		for i, h := range header {
			col[strings.TrimSpace(h)] = i
		}

		sent := 0
		for idx := 1; ; idx++ {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- runerr.New(runerr.KindAdapterTransport, err, "read csv row")
				return
			}
			if window.MaxMessages > 0 && sent >= window.MaxMessages {
				return
			}

			get := func(name string) string {
				if i, ok := col[name]; ok && i < len(record) {
					return strings.TrimSpace(record[i])
				}
				return ""
			}

			rawDate := get("date")
			d, err := time.Parse("2006-01-02", rawDate)
			if err != nil {
				continue
			}
			if d.Before(window.Start) || d.After(window.End) {
				continue
			}

			company := get("company")
			if company == "" {
				company = "unknown-company"
			}
			stage := get("stage")
			subject := get("subject")
			if subject == "" {
				subject = fmt.Sprintf("%s %s", company, stage)
			}
			snippet := get("snippet")
			if snippet == "" {
				snippet = "Stage update: " + stage
			}
			body := get("body")
			if body == "" {
				body = snippet
			}
			sender := get("from_email")
			if sender == "" {
				sender = fmt.Sprintf("careers@%s.com", strings.ReplaceAll(strings.ToLower(company), " ", "-"))
			}
			threadID := get("thread_id")
			if threadID == "" {
				threadID = "csv-" + strings.ReplaceAll(strings.ToLower(company), " ", "-")
			}

			msg := model.NormalizedMessage{
				ID:       "csv-" + strconv.Itoa(idx),
				ThreadID: threadID,
				Date:     d,
				FromRaw:  sender,
				Subject:  subject,
				Snippet:  snippet,
				Body:     body,
			}
			select {
			case msgCh <- msg:
				sent++
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgCh, errCh
}
