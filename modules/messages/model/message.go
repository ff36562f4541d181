// Package model defines the normalized message record that is the sole
// input currency of the reconstruction pipeline, and the lookups derived
// from it (sender address, domain root, subject/snippet hash).
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// NormalizedMessage is constructed once from an adapter's raw record and
// never mutated afterward.
type NormalizedMessage struct {
	ID       string
	ThreadID string
	Date     time.Time
	FromRaw  string
	Subject  string
	Snippet  string
	Body     string
}

var addressPattern = regexp.MustCompile(`<([^<>]+)>`)
var bareAddressPattern = regexp.MustCompile(`^[^\s<>]+@[^\s<>]+$`)

// Address extracts the bare email address from a raw "From" header, which
// may be "Display Name <addr@domain>" or a bare address.
func (m NormalizedMessage) Address() string {
	if match := addressPattern.FindStringSubmatch(m.FromRaw); len(match) == 2 {
		return strings.ToLower(strings.TrimSpace(match[1]))
	}
	trimmed := strings.TrimSpace(m.FromRaw)
	if bareAddressPattern.MatchString(trimmed) {
		return strings.ToLower(trimmed)
	}
	return ""
}

// DisplayName extracts the display-name portion of a raw "From" header, if any.
func (m NormalizedMessage) DisplayName() string {
	idx := strings.Index(m.FromRaw, "<")
	if idx < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m.FromRaw[:idx]), `"'`)
}

// Domain returns the full domain portion of the sender address, lowercased.
func (m NormalizedMessage) Domain() string {
	addr := m.Address()
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	return addr[at+1:]
}

// DomainRoot returns the second-level label of the sender's domain, e.g.
// "myworkday" for "company.myworkday.com" or "gmail" for "gmail.com".
func (m NormalizedMessage) DomainRoot() string {
	return DomainRootOf(m.Domain())
}

// DomainRootOf extracts the second-level label of a bare domain string.
func DomainRootOf(domain string) string {
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

// CombinedText concatenates the fields the classifiers scan for signal tokens.
func (m NormalizedMessage) CombinedText() string {
	return m.Subject + " " + m.Snippet + " " + m.Body
}

// SubjectLower is the lowercased subject, used pervasively by the matchers.
func (m NormalizedMessage) SubjectLower() string {
	return strings.ToLower(m.Subject)
}

// SubjectSnippetHash returns the first 16 hex characters of the SHA-256 of
// "subject|snippet", used
// in diagnostic exports so evidence rows never leak a raw message body.
func SubjectSnippetHash(subject, snippet string) string {
	sum := sha256.Sum256([]byte(subject + "|" + snippet))
	return hex.EncodeToString(sum[:])[:16]
}

// TruncateSubject enforces the 200-char subject cap used at artifact
// boundaries.
func TruncateSubject(subject string) string {
	const max = 200
	if len(subject) <= max {
		return subject
	}
	return subject[:max]
}

// TruncateEvidence enforces the 160-char evidence_subject cap.
func TruncateEvidence(subject string) string {
	const max = 160
	if len(subject) <= max {
		return subject
	}
	return subject[:max]
}

// TruncateBody enforces the 20,000-char body cap.
func TruncateBody(body string) string {
	const max = 20000
	if len(body) <= max {
		return body
	}
	return body[:max]
}
