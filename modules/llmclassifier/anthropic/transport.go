// Package anthropic implements the LLMTransport contract against the
// Anthropic Messages API, the concrete transport behind C4.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
)

const systemPrompt = `You classify one job-application-related email. Respond with a single
compact JSON object: {"is_job_related": bool, "company": string, "position": string,
"event_type": "application"|"interview"|"rejection"|"offer"|"other", "confidence": number}.
Strip legal suffixes (Inc, LLC, Ltd, GmbH, Corp, Group, Co) from the company name.
Classify event_type "interview" only when the message contains an explicit meeting
invite or scheduling signal; general encouragement to apply is not an interview.`

// Transport is a Disabled-aware, retryable Anthropic Messages client.
type Transport struct {
	client   anthropicsdk.Client
	disabled bool
}

func New(apiKey string, disabled bool) *Transport {
	return &Transport{
		client:   anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		disabled: disabled,
	}
}

// ClassifyOne sends one message to the model and parses its structured
// verdict. The transport refuses all calls when disabled, matching the
// process-wide flag required by spec §6.
func (t *Transport) ClassifyOne(ctx context.Context, msg mmodel.NormalizedMessage, modelName string, timeout time.Duration) (ports.Verdict, error) {
	if t.disabled {
		return ports.Verdict{}, runerr.New(runerr.KindLLMDisabled, runerr.ErrLLMDisabled, "")
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(
		"From: %s\nSubject: %s\nSnippet: %s\nBody: %s",
		msg.FromRaw, msg.Subject, msg.Snippet, mmodel.TruncateBody(msg.Body),
	)

	resp, err := t.client.Messages.New(callCtx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(modelName),
		MaxTokens: 512,
		System: []anthropicsdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		if isRateLimit(err) {
			return ports.Verdict{}, runerr.New(runerr.KindLLMRateLimit, runerr.ErrLLMRateLimit, err.Error())
		}
		return ports.Verdict{}, runerr.New(runerr.KindLLMTransport, runerr.ErrLLMTransport, err.Error())
	}

	text := extractText(resp)
	verdict, err := parseVerdict(text)
	if err != nil {
		return ports.Verdict{}, runerr.New(runerr.KindLLMTransport, runerr.ErrLLMTransport, err.Error())
	}
	return verdict, nil
}

func isRateLimit(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "rate limit") ||
		strings.Contains(strings.ToLower(err.Error()), "429")
}

func extractText(resp *anthropicsdk.Message) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

type rawVerdict struct {
	IsJobRelated bool    `json:"is_job_related"`
	Company      string  `json:"company"`
	Position     string  `json:"position"`
	EventType    string  `json:"event_type"`
	Confidence   float64 `json:"confidence"`
}

// parseVerdict tolerates a model response that wraps the JSON object in
// surrounding prose by extracting the text from the first '{' to the last '}'.
func parseVerdict(text string) (ports.Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ports.Verdict{}, fmt.Errorf("no JSON object in model response")
	}
	var raw rawVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return ports.Verdict{}, err
	}
	return ports.Verdict{
		IsJobRelated: raw.IsJobRelated,
		Company:      raw.Company,
		Position:     strings.ToLower(strings.TrimSpace(raw.Position)),
		EventType:    raw.EventType,
		Confidence:   raw.Confidence,
	}, nil
}
