package crawler

import (
	"slices"
	"testing"
)

// TestExtractLinks tests href extraction.
func TestExtractLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "extracts in document order",
			content: `<a href="/a">A</a><a href="http://example.com/b">B</a>`,
			want:    []string{"/a", "http://example.com/b"},
		},
		{
			name:    "attribute name is case insensitive and allows spaces",
			content: `<A HREF = "/upper">x</A><a hReF="/mixed">y</a>`,
			want:    []string{"/upper", "/mixed"},
		},
		{
			name:    "duplicates are preserved",
			content: `<a href="/same"></a><a href="/same"></a>`,
			want:    []string{"/same", "/same"},
		},
		{
			name:    "values are yielded verbatim",
			content: `<a href="/a?x=1&amp;y=2#frag"></a>`,
			want:    []string{"/a?x=1&amp;y=2#frag"},
		},
		{
			name:    "single quoted and unquoted values are not matched",
			content: `<a href='/single'></a><a href=/bare></a>`,
			want:    nil,
		},
		{
			name:    "empty value is not matched",
			content: `<a href=""></a><a href="/ok"></a>`,
			want:    []string{"/ok"},
		},
		{
			name:    "link elements are matched too",
			content: `<link rel="stylesheet" href="/style.css">`,
			want:    []string{"/style.css"},
		},
		{
			name:    "malformed markup yields what it can",
			content: `<a href="/ok"><div <<< href="unterminated`,
			want:    []string{"/ok"},
		},
		{
			name:    "no links",
			content: `plain text`,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := slices.Collect(ExtractLinks(tt.content))
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestExtractLinksIsRestartable tests that the sequence can be consumed twice
// and stopped early.
func TestExtractLinksIsRestartable(t *testing.T) {
	t.Parallel()

	seq := ExtractLinks(`<a href="/1"></a><a href="/2"></a><a href="/3"></a>`)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) || len(first) != 3 {
		t.Errorf("expected identical sequences of 3, got %q and %q", first, second)
	}

	var taken []string
	for link := range seq {
		taken = append(taken, link)
		if len(taken) == 2 {
			break
		}
	}
	if !slices.Equal(taken, []string{"/1", "/2"}) {
		t.Errorf("expected early stop after 2 links, got %q", taken)
	}
}

// TestExtractTitle tests page title extraction.
func TestExtractTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "simple title", content: `<html><head><title>Test Page</title></head></html>`, want: "Test Page"},
		{name: "whitespace collapsed", content: "<title>\n  Hello\n  World  </title>", want: "Hello World"},
		{name: "entities decoded", content: `<title>Fish &amp; Chips</title>`, want: "Fish & Chips"},
		{name: "first title wins", content: `<title>One</title><title>Two</title>`, want: "One"},
		{name: "no title", content: `<html><body>hi</body></html>`, want: ""},
		{name: "unterminated title", content: `<title>Partial`, want: "Partial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractTitle([]byte(tt.content)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
