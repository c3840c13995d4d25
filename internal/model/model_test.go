package model

import (
	"errors"
	"testing"
	"time"
)

// TestFetchResultOK tests success classification of fetch results.
func TestFetchResultOK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result FetchResult
		want   bool
	}{
		{name: "200 is ok", result: FetchResult{StatusCode: 200}, want: true},
		{name: "204 is ok", result: FetchResult{StatusCode: 204}, want: true},
		{name: "404 is not ok", result: FetchResult{StatusCode: 404}, want: false},
		{name: "301 is not ok", result: FetchResult{StatusCode: 301}, want: false},
		{name: "transport error is not ok", result: FetchResult{Err: errors.New("dial tcp: refused")}, want: false},
		{name: "error with status is not ok", result: FetchResult{StatusCode: 200, Err: errors.New("read: reset")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.result.OK(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestFetchResultReason tests failure descriptions.
func TestFetchResultReason(t *testing.T) {
	t.Parallel()

	t.Run("success has no reason", func(t *testing.T) {
		t.Parallel()
		if got := (FetchResult{StatusCode: 200}).Reason(); got != "" {
			t.Errorf("expected empty reason, got %q", got)
		}
	})

	t.Run("status failure mentions status", func(t *testing.T) {
		t.Parallel()
		if got := (FetchResult{StatusCode: 404}).Reason(); got != "unexpected status 404" {
			t.Errorf("expected status reason, got %q", got)
		}
	})

	t.Run("transport failure uses error text", func(t *testing.T) {
		t.Parallel()
		if got := (FetchResult{Err: errors.New("timeout")}).Reason(); got != "timeout" {
			t.Errorf("expected error text, got %q", got)
		}
	})
}

// TestNewPage tests conversion of fetch results into pages.
func TestNewPage(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	page := NewPage(FetchResult{
		URL:         "http://example.com/",
		FinalURL:    "http://example.com/index.html",
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte("Hello, World!"),
		FetchedAt:   fetchedAt,
	})

	// SHA256 of "Hello, World!"
	expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
	if page.Hash != expected {
		t.Errorf("expected hash %q, got %q", expected, page.Hash)
	}
	if page.FinalURL != "http://example.com/index.html" {
		t.Errorf("expected final URL to be copied, got %q", page.FinalURL)
	}
	if !page.IsHTML() {
		t.Error("expected page with charset suffix to be HTML")
	}
	if !page.FetchedAt.Equal(fetchedAt) {
		t.Errorf("expected fetched time %v, got %v", fetchedAt, page.FetchedAt)
	}
}

// TestPageComputeHash tests the ComputeHash method.
func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("empty content produces empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{Raw: []byte{}}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("expected empty hash, got %q", page.Hash)
		}
	})
}

// TestCrawlReport tests report helpers.
func TestCrawlReport(t *testing.T) {
	t.Parallel()

	t.Run("elapsed is zero until finished", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("id", "http://example.com/", []string{"example.com"}, 4)
		if r.Elapsed() != 0 {
			t.Errorf("expected zero elapsed, got %v", r.Elapsed())
		}
		r.FinishedAt = r.StartedAt.Add(1500 * time.Millisecond)
		if r.Elapsed() != 1500*time.Millisecond {
			t.Errorf("expected 1.5s, got %v", r.Elapsed())
		}
	})

	t.Run("rejection totals and order", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("id", "http://example.com/", nil, 1)
		r.LinksRejected[RejectScope] = 3
		r.LinksRejected[RejectCompleted] = 2
		r.LinksRejected[RejectRelative] = 1

		if r.TotalRejected() != 6 {
			t.Errorf("expected 6 rejected, got %d", r.TotalRejected())
		}
		reasons := r.RejectionReasons()
		want := []string{RejectCompleted, RejectScope, RejectRelative}
		if len(reasons) != len(want) {
			t.Fatalf("expected %d reasons, got %d", len(want), len(reasons))
		}
		for i := range want {
			if reasons[i] != want[i] {
				t.Errorf("reason %d: expected %q, got %q", i, want[i], reasons[i])
			}
		}
	})

	t.Run("scope is copied", func(t *testing.T) {
		t.Parallel()

		scope := []string{"example.com"}
		r := NewCrawlReport("id", "http://example.com/", scope, 1)
		scope[0] = "evil.com"
		if r.Scope[0] != "example.com" {
			t.Errorf("expected scope copy, got %v", r.Scope)
		}
	})
}
