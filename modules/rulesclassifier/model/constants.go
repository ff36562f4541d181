// Package model holds the deterministic classifier's literal pattern
// tables, kept as named sets the way the rest of this corpus structures
// long constant lists rather than inlining them into the matcher.
package model

// FreeDomains are personal-mailbox providers; a sender on one of these never
// names a hiring company through its domain.
var FreeDomains = map[string]struct{}{
	"gmail.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"yahoo.com":      {},
	"icloud.com":     {},
	"proton.me":      {},
	"protonmail.com": {},
}

// ATSHints are applicant-tracking-system / assessment-vendor domains, which
// stand between the candidate and the employer and do not name the hiring
// company through their own domain.
var ATSHints = map[string]struct{}{
	"greenhouse.io":      {},
	"ashbyhq.com":        {},
	"lever.co":           {},
	"workday.com":        {},
	"myworkday.com":      {},
	"smartrecruiters.com": {},
	"jobvite.com":        {},
	"icims.com":          {},
}

var InterviewAnchorPhrases = []string{
	"interview",
	"conversation",
	"phone screen",
	"recruiter screen",
	"hiring manager",
}

var InterviewSchedulingPhrases = []string{
	"schedule",
	"scheduled",
	"availability",
	"next steps",
	"invite",
	"invitation",
	"confirmation",
	"reschedule",
	"calendar",
}

var InterviewStrongPatterns = []string{
	`(?i)schedule (?:your|an?|the)?\s*(?:recruiter\s+screen|phone\s+screen|interview|conversation)`,
	`(?i)(?:interview|conversation).{0,24}(?:has been|is|was)?\s*scheduled`,
	`(?i)availability(?: request)?.{0,32}(?:interview|conversation)`,
	`(?i)(?:interview|conversation) confirmation`,
}

var InterviewNegativePhrases = []string{
	"invoice",
	"receipt",
	"bill",
	"billing",
	"statement",
	"payment",
	"candidate profile",
	"profile purge",
	"profile is about to be purged",
	"order execution",
}

var IgnoreSubjectPrefixes = []string{"accepted:", "declined:", "tentative:"}

var OfferPatterns = []string{`(?i)offer letter`, `(?i)pleased to offer`, `(?i)extend an offer`}

var RejectionDecisionPatterns = []string{
	`(?i)decided not to progress your application`,
	`(?i)not to progress your application further`,
	`(?i)not progress your application further`,
	`(?i)will not be progressing your application`,
	`(?i)not be taking your application forward`,
	`(?i)we have decided not to progress your application further on this occasion`,
	`(?i)journey has come to an end`,
	`(?i)candidate rejection`,
}

var RejectionContextPatterns = []string{`(?i)after careful consideration`, `(?i)unfortunately`}

var RejectionVerbPatterns = []string{
	`(?i)not moving forward`,
	`(?i)regret to inform`,
	`(?i)unsuccessful`,
	`(?i)position has been filled`,
	`(?i)no longer under consideration`,
	`(?i)not progress`,
	`(?i)not be progressing`,
	`(?i)not be taking .* forward`,
}

// RejectionCorePatterns mirrors the decision set plus the subset of verb
// phrases strong enough to stand alone as a rejection signal.
var RejectionCorePatterns = append(append([]string{}, RejectionDecisionPatterns...),
	`(?i)not moving forward`,
	`(?i)regret to inform`,
	`(?i)unsuccessful`,
	`(?i)position has been filled`,
	`(?i)no longer under consideration`,
	`(?i)application status`,
)

var WithdrawnPatterns = []string{`(?i)withdraw(n)? (my )?application`, `(?i)withdrawal`, `(?i)withdrawn`}
var OAPatterns = []string{`(?i)\boa\b`, `(?i)online assessment`, `(?i)take-home`, `(?i)hackerrank`, `(?i)codility`, `(?i)assessment`}
var RoundUpdatePatterns = []string{`(?i)round\s*[1-4]`, `(?i)final round`, `(?i)panel interview`}
var StatusUpdatePatterns = []string{`(?i)application update`, `(?i)status update`, `(?i)update on your application`}
var ApplicationReceivedPatterns = []string{
	`(?i)thanks for applying`,
	`(?i)thank you for applying`,
	`(?i)application received`,
	`(?i)application confirmation`,
	`(?i)regarding your application`,
	`(?i)update on your application`,
}
