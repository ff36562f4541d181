// Package model holds the relevance pre-filter's domain and phrase tables.
package model

var NewsletterTokens = []string{"newsletter", "digest"}

// SocialAndJobBoardDomains are aggregator/social domains whose mail is only
// relevant when the subject itself carries a strong job signal.
var SocialAndJobBoardDomains = map[string]struct{}{
	"linkedin.com":    {},
	"indeed.com":      {},
	"glassdoor.com":   {},
	"ziprecruiter.com": {},
	"monster.com":     {},
	"facebook.com":    {},
	"twitter.com":     {},
	"x.com":           {},
}

// ATSWhitelistDomains are mail sources automatically kept by the pre-filter
// regardless of subject strength.
var ATSWhitelistDomains = map[string]struct{}{
	"greenhouse.io":       {},
	"lever.co":            {},
	"ashbyhq.com":         {},
	"workday.com":         {},
	"myworkday.com":       {},
	"icims.com":           {},
	"smartrecruiters.com": {},
	"jobvite.com":         {},
	"successfactors.com":  {},
	"teamtailor.com":      {},
	"recruitee.com":       {},
	"hackerrank.com":      {},
	"hackerrankforwork.com": {},
	"codility.com":        {},
	"codesignal.com":      {},
	"hirevue.com":         {},
}

// CalendarVendorDomains require an interview-scheduling token in the subject
// to be kept; otherwise they're dropped as generic calendar noise.
var CalendarVendorDomains = map[string]struct{}{
	"calendly.com":     {},
	"zoom.us":          {},
	"teams.microsoft.com": {},
	"microsoft.com":    {},
}

var InterviewSchedulingTokens = []string{
	"interview", "schedule", "scheduled", "availability", "confirmation", "invite", "invitation",
}

var StrongJobSignalPhrases = []string{
	"applying",
	"application received",
	"interview",
	"availability",
	"schedule",
	"next steps",
	"offer",
	"not moving forward",
	"regret to inform",
	"assessment",
	"coding challenge",
}
