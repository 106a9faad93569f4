package site

import (
	"errors"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/publicsuffix"
)

var (
	// ErrNoURL means the active page has no URL
	ErrNoURL = errors.New("page has no URL")

	// ErrUnsupported means the page is not on a recognized marketplace
	ErrUnsupported = errors.New("website is not supported")
)

// DefaultPatterns are the supported marketplace hosts
var DefaultPatterns = []string{
	"amazon.com", "*.amazon.com",
	"amazon.co.uk", "*.amazon.co.uk",
	"amazon.de", "*.amazon.de",
	"amazon.fr", "*.amazon.fr",
	"amazon.ca", "*.amazon.ca",
	"amazon.com.au", "*.amazon.com.au",
}

// Matcher decides whether a page belongs to a supported marketplace
type Matcher struct {
	patterns []string
}

// NewMatcher validates patterns; an empty list uses DefaultPatterns
func NewMatcher(patterns ...string) (*Matcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New("site: invalid host pattern " + p)
		}
	}
	return &Matcher{patterns: append([]string(nil), patterns...)}, nil
}

// Default returns a matcher over DefaultPatterns
func Default() *Matcher {
	m, _ := NewMatcher()
	return m
}

// Supported reports whether host matches any pattern
func (m *Matcher) Supported(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, host); ok {
			return true
		}
	}
	return false
}

// Check returns ErrNoURL or ErrUnsupported when pageURL cannot be judged
func (m *Matcher) Check(pageURL string) error {
	if strings.TrimSpace(pageURL) == "" {
		return ErrNoURL
	}
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Hostname() == "" {
		return ErrUnsupported
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrUnsupported
	}
	if !m.Supported(u.Hostname()) {
		return ErrUnsupported
	}
	return nil
}

// Normalize turns a page URL into its storage key: lowercase scheme and host,
// no query, no fragment, no trailing slash. Unparsable input is returned trimmed.
func Normalize(pageURL string) string {
	raw := strings.TrimSpace(pageURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	out := u.String()
	return strings.TrimRight(out, "/")
}

// RegistrableDomain returns the eTLD+1 of pageURL ("www.amazon.co.uk" -> "amazon.co.uk")
func RegistrableDomain(pageURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", ErrNoURL
	}
	return publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host))
}
