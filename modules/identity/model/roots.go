package model

// PersonalMailboxRoots never name a company; their sender is the candidate.
var PersonalMailboxRoots = map[string]struct{}{
	"gmail":      {},
	"outlook":    {},
	"hotmail":    {},
	"yahoo":      {},
	"icloud":     {},
	"protonmail": {},
}

// IntermediaryRoots name a company only in display name or body text, never
// in their own domain: ATS, assessment vendors, and scheduling tools.
var IntermediaryRoots = map[string]struct{}{
	"ashbyhq":       {},
	"greenhouse":    {},
	"lever":         {},
	"workday":       {},
	"myworkday":     {},
	"icims":         {},
	"smartrecruiters": {},
	"jobvite":       {},
	"hackerrank":    {},
	"hackerrankforwork": {},
	"codility":      {},
	"hirevue":       {},
	"goodtime":      {},
	"codesignal":    {},
}

// LegalSuffixes are stripped (iteratively) from a candidate company label.
var LegalSuffixes = []string{"inc", "llc", "ltd", "bv", "gmbh", "corp", "company", "group", "co"}

// TLDLikeTokens are trailing tokens that look like a domain suffix and are
// stripped alongside legal suffixes.
var TLDLikeTokens = []string{"com", "io", "co uk"}

// GenericDisplayNameTokens are removed when deriving a company label from an
// intermediary sender's display name.
var GenericDisplayNameTokens = map[string]struct{}{
	"careers": {}, "hiring": {}, "hr": {}, "talent": {}, "team": {}, "via": {}, "at": {},
	"recruiting": {}, "recruitment": {}, "jobs": {},
}
