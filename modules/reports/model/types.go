// Package model defines the row types written by the diagnostic reporters
// (C8): per-message debug rows, the application-level audit row, and the
// reconciliation evidence row.
package model

import "time"

// MessageDebugRow is one classified (or ignored) message, carrying every
// field the domain-debug, key-debug and rule-hit reports project from.
type MessageDebugRow struct {
	MessageID              string
	Date                   time.Time
	FromDomain             string
	FromEmail              string
	Subject                string
	ThreadID               string
	Ignored                bool
	IgnoreReason           string
	MatchedRuleID          string
	EventType              string
	Stage                  string
	Confidence             float64
	ExtractedCompanyName   string
	ExtractedCompanyDomain string
	CompanyDomainSource    string
	RoleTitle              string
	RoleTitleConfidence    float64
	ApplicationKey         string
	KeySource              string
}

// AuditRow is one application-level audit record, a supplemented feature
// tracking each application's counted stage flags across the run.
type AuditRow struct {
	ApplicationKey string
	CompanyDomain  string
	CompanyName    string
	RoleTitle      string
	FirstSeen      time.Time
	LastSeen       time.Time
	MessageCount   int
	MaxStage       string
	CountedOA      bool
	CountedOffer   bool
	CountedReject  bool
}

// AuditColumns names the CSV header for the audit rows artifact, in order.
var AuditColumns = []string{
	"application_key", "company_domain", "company_name", "role_title",
	"first_seen", "last_seen", "message_count", "max_stage_reached",
	"counted_oa", "counted_offer", "counted_rejection",
}
