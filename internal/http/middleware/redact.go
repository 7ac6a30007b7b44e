package middleware

import (
	"net/url"
	"regexp"
)

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern. Examples matched: "+1 212-555-1212",
	// "212 555 1212", "(212) 555-1212".
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// scrubQuery redacts e-mail addresses and phone numbers from a raw query
// string. Values are matched in decoded form so "%40" cannot hide an "@".
func scrubQuery(raw string) string {
	if raw == "" {
		return raw
	}
	s := raw
	if dec, err := url.QueryUnescape(raw); err == nil {
		s = dec
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
	return s
}
