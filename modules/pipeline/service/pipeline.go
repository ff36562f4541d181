// Package service implements the pipeline orchestrator (C9): the glue that
// fetches, pre-filters, classifies, aggregates, and writes artifacts for one
// run, per spec §4.7.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andreypavlenko/offertrack/internal/platform/artifacts"
	"github.com/andreypavlenko/offertrack/internal/platform/logger"
	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	aggsvc "github.com/andreypavlenko/offertrack/modules/aggregator/service"
	diagramports "github.com/andreypavlenko/offertrack/modules/diagram/ports"
	funnelmodel "github.com/andreypavlenko/offertrack/modules/funnel/model"
	funnelsvc "github.com/andreypavlenko/offertrack/modules/funnel/service"
	idsvc "github.com/andreypavlenko/offertrack/modules/identity/service"
	mmodel "github.com/andreypavlenko/offertrack/modules/messages/model"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	prefiltersvc "github.com/andreypavlenko/offertrack/modules/prefilter/service"
	reportsmodel "github.com/andreypavlenko/offertrack/modules/reports/model"
	reportssvc "github.com/andreypavlenko/offertrack/modules/reports/service"
	rulessvc "github.com/andreypavlenko/offertrack/modules/rulesclassifier/service"
)

// LLMClassifier is the narrow contract the orchestrator needs from C4; the
// concrete *llmclassifier/service.Classifier satisfies it.
type LLMClassifier interface {
	ClassifyOne(ctx context.Context, msg mmodel.NormalizedMessage) (ports.Verdict, error)
}

// Dependencies are the collaborators a Pipeline is built from. LLM and
// Renderer may be nil: a nil LLM skips the AI path entirely (all applications
// come from the rule path), a nil Renderer skips diagram rendering.
type Dependencies struct {
	Adapter     ports.MailAdapter
	LLM         LLMClassifier
	Store       artifacts.Store
	Renderer    diagramports.Renderer
	Log         *logger.Logger
	Concurrency int
}

// Options configures one pipeline run.
type Options struct {
	Source       string
	Start        time.Time
	End          time.Time
	MaxMessages  int
	IncludeBody  bool
	WriteReports bool
	RunID        string
}

// Result is the orchestrator's output: the funnel summary, every artifact's
// storage location, and any non-fatal warnings collected along the way.
type Result struct {
	Summary       funnelmodel.Summary
	Rates         funnelmodel.Rates
	ArtifactPaths map[string]string
	Warnings      []string
}

// Pipeline runs one email-mining pass end to end.
type Pipeline struct {
	deps Dependencies
}

// New builds a Pipeline from its collaborators.
func New(deps Dependencies) *Pipeline {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 8
	}
	return &Pipeline{deps: deps}
}

// Run executes the ten steps of spec §4.7: validate, fetch, sort, pre-filter,
// rule-classify with reminder-downgrade, LLM-classify the full set, aggregate,
// summarize, write artifacts, and optionally run the diagnostic reporters.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.End.Before(opts.Start) {
		return Result{}, runerr.New(runerr.KindInputValidation, runerr.ErrInvalidDateRange, "end before start")
	}
	if opts.MaxMessages <= 0 || opts.MaxMessages > 5000 {
		return Result{}, runerr.New(runerr.KindInputValidation, runerr.ErrMaxMessagesOutRange, fmt.Sprintf("max_messages=%d", opts.MaxMessages))
	}

	messages, err := p.fetch(ctx, opts)
	if err != nil {
		return Result{}, err
	}

	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].Date.Equal(messages[j].Date) {
			return messages[i].Date.Before(messages[j].Date)
		}
		return messages[i].ID < messages[j].ID
	})

	kept, prefilterDecisions := prefiltersvc.Run(messages)

	ruleEvents, debugRows := p.runRulePath(kept)

	droppedDebug := make([]reportsmodel.MessageDebugRow, 0, len(messages)-len(kept))
	for _, d := range prefilterDecisions {
		if d.Keep {
			continue
		}
		for _, m := range messages {
			if m.ID == d.MessageID {
				droppedDebug = append(droppedDebug, prefilterDebugRow(m, d.Reason))
				break
			}
		}
	}
	debugRows = append(debugRows, droppedDebug...)

	var (
		llmEvents []aggmodel.ClassifiedEvent
		verdicts  = make(map[string]ports.Verdict, len(messages))
	)
	if p.deps.LLM != nil {
		llmEvents, verdicts, err = p.runLLMPath(ctx, messages)
		if err != nil {
			return Result{}, err
		}
	}

	// C3 and C4 are alternate paths per spec §2/§4.7, not additive ones: a
	// message the rule path already classified keeps its rule verdict for
	// aggregation, and the LLM verdict for that message is only recorded in
	// ai_message_classification, never turned into a second aggregator
	// event (which would double the event on one application and could
	// shift its derived status, e.g. rejections_with_interview).
	ruleClassified := make(map[string]struct{}, len(ruleEvents))
	for _, ev := range ruleEvents {
		ruleClassified[ev.MessageID] = struct{}{}
	}
	llmContribution := make([]aggmodel.ClassifiedEvent, 0, len(llmEvents))
	for _, ev := range llmEvents {
		if _, already := ruleClassified[ev.MessageID]; already {
			continue
		}
		llmContribution = append(llmContribution, ev)
	}

	allEvents := resolveApplicationKeys(append(ruleEvents, llmContribution...))
	aggregates := aggsvc.Aggregate(allEvents)

	summary := funnelsvc.Summarize(aggregates)
	rates := funnelsvc.Derive(summary)

	result := Result{Summary: summary, Rates: rates, ArtifactPaths: map[string]string{}}

	if err := p.writeArtifacts(ctx, opts, &result, messages, kept, debugRows, aggregates, verdicts); err != nil {
		return Result{}, err
	}

	if opts.WriteReports {
		p.writeReports(ctx, opts, &result, debugRows, allEvents, aggregates)
	}

	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context, opts Options) ([]mmodel.NormalizedMessage, error) {
	msgCh, errCh := p.deps.Adapter.Fetch(ctx, ports.FetchWindow{
		Start: opts.Start, End: opts.End, MaxMessages: opts.MaxMessages, IncludeBody: opts.IncludeBody,
	})

	var messages []mmodel.NormalizedMessage
	for msgCh != nil || errCh != nil {
		select {
		case m, ok := <-msgCh:
			if !ok {
				msgCh = nil
				continue
			}
			messages = append(messages, m)
		case fetchErr, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if fetchErr != nil {
				if runerr.GetKind(fetchErr) != runerr.KindInternal {
					return nil, fetchErr
				}
				return nil, runerr.New(runerr.KindAdapterTransport, fetchErr, "mail adapter fetch")
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return messages, nil
}

// runRulePath applies C3 over the pre-filtered set, implementing the
// reminder-downgrade rule: an interview_reminder is kept as round_update
// only if a prior interview event already exists on the same application
// key, otherwise it is dropped. app_has_interview is threaded through in
// date order (ties broken by message_id, the decided tiebreak for the
// same-second-timestamp open question).
func (p *Pipeline) runRulePath(kept []mmodel.NormalizedMessage) ([]aggmodel.ClassifiedEvent, []reportsmodel.MessageDebugRow) {
	ordered := append([]mmodel.NormalizedMessage(nil), kept...)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	appHasInterview := map[string]bool{}
	events := make([]aggmodel.ClassifiedEvent, 0, len(ordered))
	debugRows := make([]reportsmodel.MessageDebugRow, 0, len(ordered))

	for _, msg := range ordered {
		decision := rulessvc.ClassifyMessageWithMeta(msg)
		keyInfo := idsvc.GetApplicationKeyInfo(msg)
		company := idsvc.CanonicalizeCompany(keyInfo.CompanyName, msg.Address(), msg.DisplayName(), msg.Subject, msg.Body)

		if len(decision.Events) == 0 {
			debugRows = append(debugRows, debugRowFromRuleDecision(msg, decision, keyInfo))
			continue
		}

		ev := decision.Events[0]
		if ev.Type == "interview_reminder" {
			if !appHasInterview[ev.ApplicationKey] {
				row := debugRowFromRuleDecision(msg, decision, keyInfo)
				row.Ignored = true
				row.IgnoreReason = "interview_reminder_no_prior_interview"
				debugRows = append(debugRows, row)
				continue
			}
			ev.Type = "round_update"
		}
		if _, ok := interviewRuleEventTypes[ev.Type]; ok {
			appHasInterview[ev.ApplicationKey] = true
		}

		decision.Events[0] = ev
		events = append(events, ruleEventToClassified(msg, ev, keyInfo, company))
		debugRows = append(debugRows, debugRowFromRuleDecision(msg, decision, keyInfo))
	}

	return events, debugRows
}

// runLLMPath classifies the full fetched set (not just pre-filter survivors)
// with bounded concurrency, so late-stage terminal outcomes on weak subjects
// are not lost to the cheap first-scan filter.
func (p *Pipeline) runLLMPath(ctx context.Context, messages []mmodel.NormalizedMessage) ([]aggmodel.ClassifiedEvent, map[string]ports.Verdict, error) {
	results := make([]ports.Verdict, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.deps.Concurrency)

	for i, msg := range messages {
		i, msg := i, msg
		g.Go(func() error {
			verdict, err := p.deps.LLM.ClassifyOne(gctx, msg)
			if err != nil {
				if p.deps.Log != nil {
					p.deps.Log.WithError(err.Error()).WithMessageID(msg.ID).Warn("llm classification degraded to other")
				}
			}
			results[i] = verdict
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	events := make([]aggmodel.ClassifiedEvent, 0, len(messages))
	verdicts := make(map[string]ports.Verdict, len(messages))
	for i, msg := range messages {
		verdict := results[i]
		verdicts[msg.ID] = verdict
		keyInfo := idsvc.GetApplicationKeyInfo(msg)
		if ev, ok := llmVerdictToClassified(msg, verdict, keyInfo.ApplicationKey); ok {
			events = append(events, ev)
		}
	}
	return events, verdicts, nil
}
