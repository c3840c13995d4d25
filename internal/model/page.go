package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Page represents a fetched web page as seen by persistence sinks.
// The crawler builds a Page only for successful fetches.
type Page struct {
	// URL is the URL that was claimed from the frontier.
	URL string `json:"url"`

	// FinalURL is the URL after following redirects.
	// Equal to URL when no redirect happened.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Title is the page title extracted from the <title> tag.
	// Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Raw contains the response body bytes, capped by the fetcher.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw content.
	Hash string `json:"hash"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`
}

// NewPage builds a Page from a successful fetch result.
func NewPage(result FetchResult) *Page {
	p := &Page{
		URL:         result.URL,
		FinalURL:    result.FinalURL,
		StatusCode:  result.StatusCode,
		ContentType: result.ContentType,
		Raw:         result.Body,
		FetchedAt:   result.FetchedAt,
	}
	p.ComputeHash()
	return p
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	return isHTMLContentType(p.ContentType)
}

func isHTMLContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}
