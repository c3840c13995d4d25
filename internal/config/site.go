package config

import (
	"maps"
	"strings"
	"time"
)

// SiteConfig holds per-site overrides from the config file.
type SiteConfig struct {
	// Scope lists allowed host suffixes for this site.
	Scope []string `yaml:"scope,omitempty"`

	// Workers overrides the worker count.
	Workers int `yaml:"workers,omitempty"`

	// Timeout overrides the fetch timeout (for example "10s").
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Cookie is sent with every request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .sitecrawl configuration file.
type File struct {
	// Sites maps host names (without scheme or port) to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merged over the
// defaults. Host lookup is case-insensitive and falls back from
// "www.example.com" to "example.com".
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)
	result.Scope = append([]string(nil), cf.Defaults.Scope...)

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if len(site.Scope) > 0 {
		result.Scope = append([]string(nil), site.Scope...)
	}
	if site.Workers != 0 {
		result.Workers = site.Workers
	}
	if site.Timeout != 0 {
		result.Timeout = site.Timeout
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	candidates := []string{host}
	if trimmed, ok := strings.CutPrefix(host, "www."); ok {
		candidates = append(candidates, trimmed)
	}
	for _, candidate := range candidates {
		for name, site := range cf.Sites {
			if strings.ToLower(name) == candidate {
				return site, true
			}
		}
	}
	return SiteConfig{}, false
}
