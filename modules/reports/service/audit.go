package service

import (
	"sort"
	"strconv"

	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	"github.com/andreypavlenko/offertrack/modules/reports/model"
)

// BuildAuditRows projects each application aggregate into an audit row
// flagging whether it was counted toward OA, offer, or rejection totals.
// Supplemented from the original's per-application audit pass that the
// AI-schema summary alone does not expose.
func BuildAuditRows(apps map[string]*aggmodel.ApplicationAggregate) []model.AuditRow {
	out := make([]model.AuditRow, 0, len(apps))
	for key, app := range apps {
		out = append(out, model.AuditRow{
			ApplicationKey: key,
			CompanyDomain:  app.Company,
			CompanyName:    app.Company,
			RoleTitle:      app.Position,
			FirstSeen:      app.ApplicationDate,
			LastSeen:       app.LastEventDate,
			MessageCount:   app.EmailCount,
			MaxStage:       app.CurrentStatus,
			CountedOA:      app.HasEventType("oa"),
			CountedOffer:   app.HasEventType("offer"),
			CountedReject:  app.HasEventType("rejection"),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationKey < out[j].ApplicationKey })
	return out
}

// EncodeAuditCSV renders audit rows as CSV bytes, per model.AuditColumns.
func EncodeAuditCSV(rows []model.AuditRow) ([]byte, error) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.ApplicationKey, r.CompanyDomain, r.CompanyName, r.RoleTitle,
			r.FirstSeen.Format("2006-01-02T15:04:05Z07:00"), r.LastSeen.Format("2006-01-02T15:04:05Z07:00"),
			strconv.Itoa(r.MessageCount), r.MaxStage,
			strconv.FormatBool(r.CountedOA), strconv.FormatBool(r.CountedOffer), strconv.FormatBool(r.CountedReject),
		})
	}
	return writeCSVBytes(model.AuditColumns, out)
}
