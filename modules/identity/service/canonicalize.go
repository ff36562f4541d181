// Package service implements the identity resolver (C5): per-message
// company-label canonicalization and a batch intra-domain alias merge.
package service

import (
	"regexp"
	"sort"
	"strings"

	idmodel "github.com/andreypavlenko/offertrack/modules/identity/model"
)

var domainMentionPattern = regexp.MustCompile(`\b([a-z0-9][a-z0-9-]*\.(?:com|co|io|ai|net|org|eu|nl))\b`)

// DomainRoot returns the second-level label of a bare domain string.
func DomainRoot(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return ""
	}
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[len(parts)-2]
}

func isPersonalRoot(root string) bool {
	_, ok := idmodel.PersonalMailboxRoots[root]
	return ok
}

func isIntermediaryRoot(root string) bool {
	_, ok := idmodel.IntermediaryRoots[root]
	return ok
}

// stripLegalSuffixes iteratively removes legal-entity and TLD-like trailing
// tokens from a lowercased, whitespace-normalized candidate label.
func stripLegalSuffixes(label string) string {
	label = strings.TrimSpace(label)
	for {
		trimmed := label
		for _, suffix := range idmodel.TLDLikeTokens {
			trimmed = strings.TrimSuffix(trimmed, " "+suffix)
		}
		for _, suffix := range idmodel.LegalSuffixes {
			trimmed = strings.TrimSuffix(trimmed, " "+suffix)
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == label {
			return label
		}
		label = trimmed
	}
}

func normalizeTokens(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,|-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// deriveFromDisplayName strips generic recruiting tokens from an
// intermediary sender's display name and returns what remains, lowercased.
func deriveFromDisplayName(displayName string) string {
	tokens := normalizeTokens(displayName)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, generic := idmodel.GenericDisplayNameTokens[t]; generic {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// mostFrequentDomainRoot scans text for domain-like substrings and returns
// the most frequent root that isn't personal or intermediary.
func mostFrequentDomainRoot(text string) string {
	counts := map[string]int{}
	for _, match := range domainMentionPattern.FindAllString(strings.ToLower(text), -1) {
		root := DomainRoot(match)
		if isPersonalRoot(root) || isIntermediaryRoot(root) {
			continue
		}
		counts[root]++
	}
	best, bestCount := "", 0
	for root, c := range counts {
		if c > bestCount || (c == bestCount && root < best) {
			best, bestCount = root, c
		}
	}
	return best
}

func similarOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	tokensA := map[string]struct{}{}
	for _, t := range normalizeTokens(a) {
		tokensA[t] = struct{}{}
	}
	for _, t := range normalizeTokens(b) {
		if _, ok := tokensA[t]; ok {
			return true
		}
	}
	return false
}

// CanonicalizeCompany resolves the per-message company label per spec §4.4.
func CanonicalizeCompany(rawCompany, senderAddress, senderDisplayName, subject, body string) string {
	domain := ""
	if at := strings.LastIndex(senderAddress, "@"); at >= 0 {
		domain = strings.ToLower(senderAddress[at+1:])
	}
	domainRoot := DomainRoot(domain)

	stripped := stripLegalSuffixes(strings.ToLower(strings.TrimSpace(rawCompany)))

	contextText := strings.ToLower(senderAddress + " " + subject + " " + body)

	if stripped != "" && !isPersonalRoot(stripped) && !isIntermediaryRoot(stripped) {
		if domainRoot != "" && similarOverlap(stripped, domainRoot) {
			return domainRoot
		}
		if hintRoot := mostFrequentDomainRoot(contextText); hintRoot != "" && similarOverlap(stripped, hintRoot) {
			return hintRoot
		}
		return stripped
	}

	if hint := mostFrequentDomainRoot(contextText); hint != "" {
		return hint
	}

	if isIntermediaryRoot(domainRoot) {
		if derived := deriveFromDisplayName(senderDisplayName); derived != "" {
			return derived
		}
	}

	return domainRoot
}

// aliasGroup is the scoring unit for the intra-domain alias merge.
type aliasGroup struct {
	label string
	count int
}

// MergeAliases runs the batch intra-domain alias merge of spec §4.4 over
// (domain_root, label) observations, counting repeated observations of the
// same pair. It must not be streamed: scoring
// requires global counts within a domain root. Running it twice over the
// same input yields the same table (idempotent).
func MergeAliases(observations []idmodel.AliasKey) map[idmodel.AliasKey]string {
	byDomain := map[string]map[string]int{}
	for _, obs := range observations {
		if isPersonalRoot(obs.DomainRoot) || isIntermediaryRoot(obs.DomainRoot) {
			continue
		}
		if _, ok := byDomain[obs.DomainRoot]; !ok {
			byDomain[obs.DomainRoot] = map[string]int{}
		}
		byDomain[obs.DomainRoot][obs.Label]++
	}

	result := map[idmodel.AliasKey]string{}
	for domainRoot, counts := range byDomain {
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		similar := map[string][]string{}
		for _, a := range labels {
			for _, b := range labels {
				if a == b {
					continue
				}
				if similarOverlap(a, b) {
					similar[a] = append(similar[a], b)
				}
			}
		}

		groups := make([]aliasGroup, 0, len(labels))
		for _, label := range labels {
			total := counts[label]
			for _, other := range similar[label] {
				total += counts[other]
			}
			groups = append(groups, aliasGroup{label: label, count: total})
		}

		sort.SliceStable(groups, func(i, j int) bool {
			if groups[i].count != groups[j].count {
				return groups[i].count > groups[j].count
			}
			if counts[groups[i].label] != counts[groups[j].label] {
				return counts[groups[i].label] > counts[groups[j].label]
			}
			return len(groups[i].label) < len(groups[j].label)
		})

		assigned := map[string]bool{}
		for _, g := range groups {
			if assigned[g.label] {
				continue
			}
			target := g.label
			result[idmodel.AliasKey{DomainRoot: domainRoot, Label: target}] = target
			assigned[target] = true
			for _, other := range similar[target] {
				if assigned[other] {
					continue
				}
				result[idmodel.AliasKey{DomainRoot: domainRoot, Label: other}] = target
				assigned[other] = true
			}
		}
	}
	return result
}

// ResolveCanonical looks up the alias table built by MergeAliases, falling
// back to the original label when no entry exists (e.g. personal or
// intermediary domain roots, which are excluded from merging).
func ResolveCanonical(aliases map[idmodel.AliasKey]string, domainRoot, label string) string {
	if target, ok := aliases[idmodel.AliasKey{DomainRoot: domainRoot, Label: label}]; ok {
		return target
	}
	return label
}
