package crawler

import (
	"errors"
	"testing"
)

type completedSet map[string]bool

func (c completedSet) IsCompleted(url string) bool { return c[url] }

// TestValidator tests link normalization and filtering.
func TestValidator(t *testing.T) {
	t.Parallel()

	completed := completedSet{"http://example.com/done": true}
	v, err := NewValidator("http://example.com/start", NewScope("example.com"), completed)
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "root relative joined to seed origin", raw: "/about", want: "http://example.com/about"},
		{name: "root relative keeps query", raw: "/search?q=go", want: "http://example.com/search?q=go"},
		{name: "absolute in scope", raw: "http://example.com/contact", want: "http://example.com/contact"},
		{name: "https in scope", raw: "https://example.com/secure", want: "https://example.com/secure"},
		{name: "subdomain in scope", raw: "http://blog.example.com/post", want: "http://blog.example.com/post"},
		{name: "www link gets seed scheme", raw: "www.example.com/page", want: "http://www.example.com/page"},
		{name: "host matching is case insensitive", raw: "http://WWW.Example.COM/x", want: "http://WWW.Example.COM/x"},
		{name: "plain relative rejected", raw: "page.html", wantErr: ErrRelativeLink},
		{name: "fragment rejected", raw: "#top", wantErr: ErrRelativeLink},
		{name: "mailto rejected", raw: "mailto:someone@example.com", wantErr: ErrRelativeLink},
		{name: "javascript rejected", raw: "javascript:void(0)", wantErr: ErrRelativeLink},
		{name: "http prefixed garbage is malformed", raw: "httpfoo.html", wantErr: ErrMalformedLink},
		{name: "missing host is malformed", raw: "http://", wantErr: ErrMalformedLink},
		{name: "other domain out of scope", raw: "http://other.com/x", wantErr: ErrOutOfScope},
		{name: "suffix without dot out of scope", raw: "http://notexample.com/", wantErr: ErrOutOfScope},
		{name: "scope domain as prefix out of scope", raw: "http://example.com.evil.com/", wantErr: ErrOutOfScope},
		{name: "completed URL rejected", raw: "/done", wantErr: ErrAlreadyCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := v.Validate(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v (url %q)", tt.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestValidatorHTTPSSeed tests that the seed scheme and port form the base.
func TestValidatorHTTPSSeed(t *testing.T) {
	t.Parallel()

	v, err := NewValidator("https://example.com:8443/", NewScope("example.com"), nil)
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	got, err := v.Validate("/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com:8443/a" {
		t.Errorf("expected https origin with port, got %q", got)
	}

	got, err = v.Validate("www.example.com/b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://www.example.com/b" {
		t.Errorf("expected https scheme for www link, got %q", got)
	}
}

// TestParseSeed tests seed validation.
func TestParseSeed(t *testing.T) {
	t.Parallel()

	valid := []string{"http://example.com", "https://example.com/start", " http://example.com/ "}
	for _, seed := range valid {
		if _, err := ParseSeed(seed); err != nil {
			t.Errorf("expected %q to be valid, got %v", seed, err)
		}
	}

	invalid := []string{"", "example.com", "/about", "ftp://example.com", "http://", "://bad"}
	for _, seed := range invalid {
		if _, err := ParseSeed(seed); !errors.Is(err, ErrInvalidSeed) {
			t.Errorf("expected %q to be rejected with ErrInvalidSeed, got %v", seed, err)
		}
	}
}

// TestScope tests host suffix matching.
func TestScope(t *testing.T) {
	t.Parallel()

	t.Run("matches exact and subdomains on label boundaries", func(t *testing.T) {
		t.Parallel()

		s := NewScope("example.com", " .other.org ", "")
		cases := map[string]bool{
			"example.com":          true,
			"www.example.com":      true,
			"a.b.example.com":      true,
			"EXAMPLE.com":          true,
			"example.com.":         true,
			"notexample.com":       false,
			"example.com.evil.com": false,
			"other.org":            true,
			"x.other.org":          true,
			"":                     false,
		}
		for host, want := range cases {
			if got := s.Allows(host); got != want {
				t.Errorf("Allows(%q): expected %v, got %v", host, want, got)
			}
		}
		if len(s.Domains()) != 2 {
			t.Errorf("expected 2 domains, got %v", s.Domains())
		}
	})

	t.Run("internationalized hosts compare in punycode form", func(t *testing.T) {
		t.Parallel()

		s := NewScope("bücher.example")
		for _, host := range []string{"xn--bcher-kva.example", "www.BÜCHER.example", "shop.xn--bcher-kva.example"} {
			if !s.Allows(host) {
				t.Errorf("expected %q to be allowed", host)
			}
		}
		if s.Allows("bucher.example") {
			t.Error("expected bucher.example to be rejected")
		}
		if got := s.Domains(); len(got) != 1 || got[0] != "xn--bcher-kva.example" {
			t.Errorf("expected punycode domain, got %v", got)
		}
	})

	t.Run("hosts IDNA rejects are lowercased", func(t *testing.T) {
		t.Parallel()

		s := NewScope("Under_Score.example.com")
		if !s.Allows("under_score.example.com") {
			t.Error("expected underscore host to match case-insensitively")
		}
	})

	t.Run("port in configured domain is ignored", func(t *testing.T) {
		t.Parallel()

		s := NewScope("localhost:8080")
		if !s.Allows("localhost") {
			t.Error("expected localhost to be allowed")
		}
	})

	t.Run("default scope uses registrable domain", func(t *testing.T) {
		t.Parallel()

		tests := map[string]string{
			"http://www.example.com/start": "example.com",
			"https://shop.example.co.uk/":  "example.co.uk",
			"http://127.0.0.1:8080/":       "127.0.0.1",
			"http://localhost:3000/":       "localhost",
		}
		for seed, want := range tests {
			s, err := DefaultScope(seed)
			if err != nil {
				t.Errorf("DefaultScope(%q): unexpected error %v", seed, err)
				continue
			}
			if got := s.String(); got != want {
				t.Errorf("DefaultScope(%q): expected %q, got %q", seed, want, got)
			}
		}
	})

	t.Run("default scope requires host", func(t *testing.T) {
		t.Parallel()

		if _, err := DefaultScope("/relative"); err == nil {
			t.Error("expected error for seed without host")
		}
	})
}
