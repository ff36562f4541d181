// Package model defines the identity-resolution data types: the rules-path
// key info (domain/role derived) and the alias-merge table used by the
// canonical company-label resolver.
package model

// KeyInfo is the rules-path application-key derivation record. It is richer
// than the single ApplicationKey string used by the aggregator: it also
// carries the evidence behind the key, consumed by the key-debug reporter.
type KeyInfo struct {
	ApplicationKey      string
	KeySource           string // domain_role | name_role | thread_fallback
	CompanyDomain       string
	CompanyDomainSource string // subject_regex | sender_domain | ats_template | unknown
	CompanyName         string
	RoleTitle           string
	RoleTitleSource     string // parsed | unknown
	RoleTitleConfidence float64
}

// AliasKey identifies one per-message canonicalization input within a
// sender-domain root, the unit the intra-domain alias merge operates on.
type AliasKey struct {
	DomainRoot string
	Label      string
}
