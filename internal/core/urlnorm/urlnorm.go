// Package urlnorm canonicalizes raw URLs before they reach the blacklists and the classifier
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

const defaultScheme = "https://"

var ipv4Literal = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// Normalize prepends https:// unless raw already starts with http:// or https://.
// The check is case sensitive and the rest of raw is left untouched, so Normalize is idempotent
func Normalize(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return defaultScheme + raw
}

// Hostname returns the lowercased host of a normalized URL, converted to its ASCII form
// when IDNA mapping succeeds. ok is false when the URL does not parse or has no host
func Hostname(normalized string) (host string, ok bool) {
	u, err := url.Parse(normalized)
	if err != nil {
		return "", false
	}
	host = ASCIIHost(u.Hostname())
	return host, host != ""
}

// ASCIIHost lowercases host and maps it to its IDNA ASCII form. A host the
// mapping rejects is returned lowercased only
func ASCIIHost(host string) string {
	host = strings.ToLower(host)
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

// IsIPv4Literal reports whether host is written as a dotted quad of 1 to 3 digit groups.
// Octet ranges are not checked here
func IsIPv4Literal(host string) bool {
	return ipv4Literal.MatchString(host)
}
