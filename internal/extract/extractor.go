// Package extract matches email-shaped strings in page text and filters out
// placeholder and machine-generated addresses.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// emailPattern is a permissive email matcher: word chars, dots, hyphens and
// plus signs in the local part, a dotted domain with a 2-63 char TLD.
var emailPattern = regexp.MustCompile(
	`(?i)\b[a-z\d\-][_a-z\d\-+]*(?:\.[_a-z\d\-+]*)*@[a-z\d]+[a-z\d\-]*(?:\.[a-z\d\-]+)*(?:\.[a-z]{2,63})\b`,
)

var (
	noReplyPattern      = regexp.MustCompile(`(?i)(no|not)[-_]*reply`)
	mailerDaemonPattern = regexp.MustCompile(`(?i)mailer[-_]*daemon`)
	longDigitRunPattern = regexp.MustCompile(`\d{13,}`)
)

// resourceSuffixes are asset filenames that the permissive pattern mistakes
// for email domains (e.g. "icon@2x.png").
var resourceSuffixes = []string{".png", ".jpg", ".gif", ".css", ".webp", ".js"}

// spamKeywords mark machine-generated sender addresses.
var spamKeywords = []string{
	"nondelivery", "@linkedin.com", "@sentry", "feedback", "notification",
}

// defaultFakePrefixes is the stock placeholder local-part blocklist.
var defaultFakePrefixes = []string{
	"the", "2", "3", "4", "123", "20info", "aaa", "ab", "abc", "acc",
	"acc_kaz", "account", "accounts", "accueil", "ad", "adi", "adm",
	"an", "and", "available", "cc", "com", "domain", "domen",
	"email", "fb", "foi", "for", "found", "get", "here",
	"includes", "linkedin", "mailbox", "more", "my_name", "name",
	"need", "nfo", "ninfo", "now", "online", "post", "sales2",
	"test", "up", "we", "www", "xxx", "xxxxx", "username",
	"firstname.lastname", "your.name", "unsubscribe",
}

// DefaultFakePrefixes returns a copy of the stock blocklist.
func DefaultFakePrefixes() []string {
	return append([]string(nil), defaultFakePrefixes...)
}

// PrefixSet stores lowercase local-part prefixes considered fake.
type PrefixSet struct {
	entries []string
	exact   map[string]struct{}
}

// NewPrefixSet normalizes and deduplicates the provided prefixes.
func NewPrefixSet(prefixes []string) *PrefixSet {
	s := &PrefixSet{exact: make(map[string]struct{})}
	for _, raw := range prefixes {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		if _, dup := s.exact[value]; dup {
			continue
		}
		s.exact[value] = struct{}{}
		s.entries = append(s.entries, value)
	}
	return s
}

// Matches reports whether the local part equals or starts with any entry.
func (s *PrefixSet) Matches(localPart string) bool {
	if s == nil {
		return false
	}
	localPart = strings.ToLower(localPart)
	if _, ok := s.exact[localPart]; ok {
		return true
	}
	for _, entry := range s.entries {
		if strings.HasPrefix(localPart, entry) {
			return true
		}
	}
	return false
}

// Entries returns the normalized prefix list.
func (s *PrefixSet) Entries() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.entries...)
}

// Extractor finds candidate emails in raw page text. It is stateless and safe
// for concurrent use.
type Extractor struct {
	prefixes *PrefixSet
}

// New builds an Extractor with the given fake-prefix blocklist.
func New(fakePrefixes []string) *Extractor {
	return &Extractor{prefixes: NewPrefixSet(fakePrefixes)}
}

// FakePrefixes exposes the active blocklist for the config endpoint.
func (e *Extractor) FakePrefixes() []string {
	return e.prefixes.Entries()
}

// Extract returns the deduplicated, lowercase-normalized emails found in
// text, with placeholder and machine-generated addresses removed. Malformed
// or empty input yields an empty result.
func (e *Extractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, `\n`, " ")

	seen := make(map[string]struct{})
	var emails []string
	for _, match := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(strings.TrimSpace(match))
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		if !e.keep(email) {
			continue
		}
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

func (e *Extractor) keep(email string) bool {
	for _, suffix := range resourceSuffixes {
		if strings.HasSuffix(email, suffix) {
			return false
		}
	}
	if noReplyPattern.MatchString(email) || mailerDaemonPattern.MatchString(email) {
		return false
	}
	if longDigitRunPattern.MatchString(email) {
		return false
	}
	for _, keyword := range spamKeywords {
		if strings.Contains(email, keyword) {
			return false
		}
	}
	localPart, _, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}
	return !e.prefixes.Matches(localPart)
}
