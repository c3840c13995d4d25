package crawler

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Scope is the set of host suffixes a crawl may visit.
// A host is in scope when it equals an allowed domain or is a subdomain of
// one. Matching is case-insensitive and is done on whole labels, so scope
// "example.com" admits "www.example.com" but not "notexample.com" or
// "example.com.evil.com".
type Scope struct {
	domains []string
}

// NewScope returns a Scope for the given domains.
// Leading dots, surrounding whitespace and ports are ignored; empty entries
// are dropped.
func NewScope(domains ...string) *Scope {
	s := &Scope{}
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if host, _, err := net.SplitHostPort(d); err == nil {
			d = host
		}
		if d = foldHost(d); d == "" {
			continue
		}
		s.domains = append(s.domains, d)
	}
	return s
}

// DefaultScope derives a scope from the seed URL: the registrable domain of
// the seed host (for example "example.co.uk" for "www.example.co.uk").
// Hosts without a registrable domain, such as IP addresses or "localhost",
// are used as-is.
func DefaultScope(seed string) (*Scope, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("seed %q has no host", seed)
	}
	if net.ParseIP(host) != nil {
		return NewScope(host), nil
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	return NewScope(domain), nil
}

// Domains returns the allowed domains in normalized form.
func (s *Scope) Domains() []string {
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out
}

// Allows reports whether host is in scope. host must not include a port.
func (s *Scope) Allows(host string) bool {
	host = foldHost(host)
	if host == "" {
		return false
	}
	for _, d := range s.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// foldHost strips leading and trailing dots and returns host in its
// lowercase ASCII (punycode) form, so "bücher.example" and
// "xn--bcher-kva.example" compare equal. Hosts IDNA rejects, such as ones
// with underscores, are only lowercased.
func foldHost(host string) string {
	host = strings.Trim(host, ".")
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	return strings.ToLower(host)
}

func (s *Scope) String() string {
	return strings.Join(s.domains, ",")
}
