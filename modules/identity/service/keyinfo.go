package service

import (
	"regexp"
	"strings"

	idmodel "github.com/andreypavlenko/offertrack/modules/identity/model"
	"github.com/andreypavlenko/offertrack/modules/messages/model"
	rulesmodel "github.com/andreypavlenko/offertrack/modules/rulesclassifier/model"
)

var normTextPattern = regexp.MustCompile(`[^a-z0-9]+`)
var normSpacePattern = regexp.MustCompile(`\s+`)

// normText lowercases and collapses non-alphanumeric runs the way the
// rules-path key derivation does, so two differently-punctuated company/role
// strings normalize to the same key.
func normText(value string) string {
	out := normTextPattern.ReplaceAllString(strings.ToLower(value), " ")
	return strings.TrimSpace(normSpacePattern.ReplaceAllString(out, " "))
}

var roleExtractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)for (?:the )?role of ([^\n,|]+)`),
	regexp.MustCompile(`(?i)for (?:the )?position of ([^\n,|]+)`),
	regexp.MustCompile(`(?i)position[:\s-]+([^\n|]+)`),
	regexp.MustCompile(`(?i)application (?:for|to) ([^\n,|]+)`),
}

var companyNameFromTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwith\s+([A-Z][A-Za-z0-9& .'-]{1,64})`),
	regexp.MustCompile(`\bat\s+([A-Z][A-Za-z0-9& .'-]{1,64})`),
	regexp.MustCompile(`\bjoining\s+([A-Z][A-Za-z0-9& .'-]{1,64})`),
}

var domainTokenPattern = regexp.MustCompile(`\b([a-z0-9][a-z0-9.-]+\.[a-z]{2,})\b`)

// ExtractRole returns a best-effort role title from subject/snippet text,
// with an ATS-template confidence bump when the phrasing matches a known
// templated pattern on a recognized ATS domain.
func ExtractRole(subject, snippet, domain string) (role, source string, confidence float64) {
	text := subject + " | " + snippet
	for _, pattern := range roleExtractPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		role = normText(m[1])
		lowered := strings.ToLower(text)
		isATSTemplate := (strings.Contains(lowered, "role of") || strings.Contains(lowered, "position of") || strings.Contains(lowered, "position:")) &&
			isATSDomain(domain)
		if isATSTemplate {
			confidence = 0.9
		} else {
			confidence = 0.6
		}
		return role, "parsed", confidence
	}
	return "", "unknown", 0.0
}

func isATSDomain(domain string) bool {
	if _, ok := rulesmodel.ATSHints[domain]; ok {
		return true
	}
	for hint := range rulesmodel.ATSHints {
		if strings.Contains(domain, hint) {
			return true
		}
	}
	return false
}

func isFreeDomain(domain string) bool {
	_, ok := rulesmodel.FreeDomains[domain]
	return ok
}

// extractCompanyDomainMeta prefers a concrete domain mentioned in the
// message text over the sender domain, since senders can be ATS
// intermediaries that never name the hiring company in their own domain.
func extractCompanyDomainMeta(subject, snippet, senderDomain string) (domain, source string) {
	text := strings.ToLower(subject + " " + snippet)
	for _, token := range domainTokenPattern.FindAllString(text, -1) {
		if isFreeDomain(token) {
			continue
		}
		return token, "subject_regex"
	}
	if senderDomain != "" && !isFreeDomain(senderDomain) {
		if isATSDomain(senderDomain) {
			return "", "ats_template"
		}
		return senderDomain, "sender_domain"
	}
	return "", "unknown"
}

func companyNameFromDomain(domain string) string {
	if domain == "" {
		return ""
	}
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[len(parts)-2]
}

func extractCompanyNameFromText(subject, snippet string) string {
	text := subject + " | " + snippet
	for _, pattern := range companyNameFromTextPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.Trim(normSpacePattern.ReplaceAllString(m[1], " "), " .,-|")
		if name != "" {
			return strings.ToLower(name)
		}
	}
	return ""
}

// GetApplicationKeyInfo derives the rules-path application key and its
// supporting evidence for one message, preferring sender-domain + role,
// then company-name + role, then a thread/message fallback.
func GetApplicationKeyInfo(msg model.NormalizedMessage) idmodel.KeyInfo {
	senderDomain := msg.Domain()
	role, roleSource, roleConf := ExtractRole(msg.Subject, msg.Snippet, senderDomain)
	companyDomain, companyDomainSource := extractCompanyDomainMeta(msg.Subject, msg.Snippet, senderDomain)

	companyName := ""
	if companyDomain != "" {
		companyName = companyNameFromDomain(companyDomain)
	}
	if companyName == "" && companyDomainSource == "ats_template" {
		companyName = extractCompanyNameFromText(msg.Subject, msg.Snippet)
	}
	if companyName == "" && senderDomain != "" {
		companyName = companyNameFromDomain(senderDomain)
	}

	if senderDomain != "" && role != "" && !isFreeDomain(senderDomain) {
		return idmodel.KeyInfo{
			ApplicationKey:      normText(senderDomain + " " + role),
			KeySource:           "domain_role",
			CompanyDomain:       companyDomain,
			CompanyDomainSource: companyDomainSource,
			CompanyName:         companyName,
			RoleTitle:           role,
			RoleTitleSource:     roleSource,
			RoleTitleConfidence: roleConf,
		}
	}
	if companyName != "" && role != "" {
		return idmodel.KeyInfo{
			ApplicationKey:      normText(companyName + " " + role),
			KeySource:           "name_role",
			CompanyDomain:       companyDomain,
			CompanyDomainSource: companyDomainSource,
			CompanyName:         companyName,
			RoleTitle:           role,
			RoleTitleSource:     roleSource,
			RoleTitleConfidence: roleConf,
		}
	}
	if msg.ThreadID != "" {
		return idmodel.KeyInfo{
			ApplicationKey:      normText(msg.ThreadID),
			KeySource:           "thread_fallback",
			CompanyDomain:       companyDomain,
			CompanyDomainSource: companyDomainSource,
			CompanyName:         companyName,
			RoleTitleSource:     "unknown",
		}
	}
	return idmodel.KeyInfo{
		ApplicationKey:      normText(msg.ID),
		KeySource:           "thread_fallback",
		CompanyDomain:       companyDomain,
		CompanyDomainSource: companyDomainSource,
		CompanyName:         companyName,
		RoleTitleSource:     "unknown",
	}
}

// MakeRuleApplicationKey is the convenience form used by the rules
// classifier, which only needs the key string, not its evidence.
func MakeRuleApplicationKey(msg model.NormalizedMessage) string {
	return GetApplicationKeyInfo(msg).ApplicationKey
}
