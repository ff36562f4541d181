package service

import (
	"context"
	"fmt"
	"strings"

	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	reportsmodel "github.com/andreypavlenko/offertrack/modules/reports/model"
	reportssvc "github.com/andreypavlenko/offertrack/modules/reports/service"
)

// writeReports invokes the C8 diagnostic reporters against the intermediate
// streams gathered during the run. None of these failures are fatal: a
// render or report failure is appended to result.Warnings per the
// warn-only-at-presentation policy of spec §7.
func (p *Pipeline) writeReports(ctx context.Context, opts Options, result *Result, debugRows []reportsmodel.MessageDebugRow, events []aggmodel.ClassifiedEvent, aggregates map[string]*aggmodel.ApplicationAggregate) {
	if domainCSV, err := reportssvc.BuildDomainDebugCSV(debugRows); err != nil {
		result.Warnings = append(result.Warnings, "domain_debug_failed: "+err.Error())
	} else {
		p.putReport(ctx, result, opts.RunID, "domain_debug.csv", "text/csv", domainCSV)
	}

	keyOutputs, err := reportssvc.BuildKeyDebugOutputs(debugRows)
	if err != nil {
		result.Warnings = append(result.Warnings, "key_debug_failed: "+err.Error())
	} else {
		p.putReport(ctx, result, opts.RunID, "applications_debug.csv", "text/csv", keyOutputs.ApplicationsDebugCSV)
		p.putReport(ctx, result, opts.RunID, "company_collisions.csv", "text/csv", keyOutputs.CompanyCollisionsCSV)
		p.putReport(ctx, result, opts.RunID, "role_extraction_debug.csv", "text/csv", keyOutputs.RoleExtractionCSV)
	}

	ruleHitReport := reportssvc.BuildRuleHitReport(debugRows, 10, reportssvc.RunMeta{
		Source:      opts.Source,
		DateRange:   fmt.Sprintf("%s..%s", opts.Start.Format("2006-01-02"), opts.End.Format("2006-01-02")),
		MaxMessages: fmt.Sprintf("%d", opts.MaxMessages),
	})
	p.putReport(ctx, result, opts.RunID, "rule_hit_report.md", "text/markdown", []byte(ruleHitReport))

	auditRows := reportssvc.BuildAuditRows(aggregates)
	if auditCSV, err := reportssvc.EncodeAuditCSV(auditRows); err != nil {
		result.Warnings = append(result.Warnings, "audit_failed: "+err.Error())
	} else {
		p.putReport(ctx, result, opts.RunID, "audit.csv", "text/csv", auditCSV)
	}

	reconcileResult := reportssvc.BuildReconcileRows(events, auditRows)
	if reconcileCSV, err := reportssvc.EncodeReconcileCSV(reconcileResult.Rows); err != nil {
		result.Warnings = append(result.Warnings, "reconcile_failed: "+err.Error())
	} else {
		p.putReport(ctx, result, opts.RunID, "oa_reconcile.csv", "text/csv", reconcileCSV)
	}
	if len(reconcileResult.FalsePositives) > 0 {
		if fpCSV, err := reportssvc.EncodeReconcileCSV(reconcileResult.FalsePositives); err == nil {
			p.putReport(ctx, result, opts.RunID, "oa_false_positives.csv", "text/csv", fpCSV)
		}
	}

	if p.deps.Renderer != nil {
		p.renderDiagram(ctx, opts, result)
	}
}

func (p *Pipeline) renderDiagram(ctx context.Context, opts Options, result *Result) {
	title := strings.TrimSpace(fmt.Sprintf("%s funnel", opts.Source))
	watermark := opts.RunID
	png, err := p.deps.Renderer.Render(result.Summary, title, watermark)
	if err != nil {
		result.Warnings = append(result.Warnings, "sankey_render_failed: "+err.Error())
		return
	}
	p.putReport(ctx, result, opts.RunID, "funnel_sankey.png", "image/png", png)
}

func (p *Pipeline) putReport(ctx context.Context, result *Result, runID, name, contentType string, data []byte) {
	if err := p.put(ctx, result, runID, name, contentType, data); err != nil {
		result.Warnings = append(result.Warnings, name+"_write_failed: "+err.Error())
	}
}
