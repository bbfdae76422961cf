// Package handle derives the canonical bot handle for a demo agent from a
// free-text company name. The handle is the slug that identifies the cloned
// bot instance and determines its dashboard URL.
package handle

import (
	"errors"
	"regexp"
	"strings"
)

// Suffix is appended to every normalized company name.
const Suffix = "-ai-agent-demo"

// ErrInvalidCompanyName is returned when normalization strips the company
// name down to nothing, so no usable handle can be derived.
var ErrInvalidCompanyName = errors.New("company name yields an empty bot handle")

var disallowed = regexp.MustCompile(`[^a-z0-9-]`)

// ForCompany derives a bot handle from a company name: lowercase, strip
// everything outside [a-z0-9-], append Suffix. The same input always yields
// the same handle, and feeding a handle back in returns it unchanged.
func ForCompany(companyName string) (string, error) {
	clean := disallowed.ReplaceAllString(strings.ToLower(companyName), "")
	if clean == "" || clean == Suffix {
		return "", ErrInvalidCompanyName
	}
	if strings.HasSuffix(clean, Suffix) {
		return clean, nil
	}
	return clean + Suffix, nil
}

// URL returns the dashboard URL for a bot handle.
func URL(botHandle string) string {
	return "https://" + botHandle + ".ada.support"
}

// GuessWebsiteURL derives a likely company website from the company name.
// Used only when the caller explicitly opts in to URL inference.
func GuessWebsiteURL(companyName string) string {
	slug := strings.ToLower(companyName)
	slug = strings.ReplaceAll(slug, " ", "")
	slug = strings.ReplaceAll(slug, "'", "")
	return "https://" + slug + ".com"
}
