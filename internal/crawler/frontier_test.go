package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestFrontierOffer tests deduplication across the three URL sets.
func TestFrontierOffer(t *testing.T) {
	t.Parallel()

	t.Run("accepts new URL once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if !f.Offer("http://example.com/a") {
			t.Error("expected first offer to be accepted")
		}
		if f.Offer("http://example.com/a") {
			t.Error("expected duplicate pending offer to be rejected")
		}
		if f.PendingCount() != 1 {
			t.Errorf("expected 1 pending, got %d", f.PendingCount())
		}
	})

	t.Run("rejects in-flight URL", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/a")
		if _, ok := f.TryClaim(); !ok {
			t.Fatal("expected claim to succeed")
		}
		if f.Offer("http://example.com/a") {
			t.Error("expected in-flight URL to be rejected")
		}
	})

	t.Run("rejects completed URL", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/a")
		url, _ := f.TryClaim()
		f.MarkDone(url)
		if f.Offer("http://example.com/a") {
			t.Error("expected completed URL to be rejected")
		}
		if !f.IsCompleted("http://example.com/a") {
			t.Error("expected URL to be completed")
		}
	})

	t.Run("dedup is exact string match", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/a")
		if !f.Offer("http://example.com/a/") {
			t.Error("expected URL with trailing slash to be a different URL")
		}
	})

	t.Run("concurrent offers of the same URL accept exactly one", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if f.Offer("http://example.com/x") {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if accepted != 1 {
			t.Errorf("expected exactly 1 accepted offer, got %d", accepted)
		}
	})
}

// TestFrontierClaim tests claiming semantics.
func TestFrontierClaim(t *testing.T) {
	t.Parallel()

	t.Run("try claim on empty frontier", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if url, ok := f.TryClaim(); ok {
			t.Errorf("expected no claim, got %q", url)
		}
	})

	t.Run("claim moves URL to in-flight", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/")
		url, ok := f.TryClaim()
		if !ok || url != "http://example.com/" {
			t.Fatalf("expected to claim seed, got %q %v", url, ok)
		}
		if f.PendingCount() != 0 || f.InFlightCount() != 1 {
			t.Errorf("expected 0 pending and 1 in-flight, got %d and %d", f.PendingCount(), f.InFlightCount())
		}
	})

	t.Run("concurrent claims hand out each URL at most once", func(t *testing.T) {
		t.Parallel()

		const total = 200
		f := NewFrontier()
		for i := range total {
			f.Offer(fmt.Sprintf("http://example.com/%d", i))
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			claimed = make(map[string]int)
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					url, ok := f.TryClaim()
					if !ok {
						return
					}
					mu.Lock()
					claimed[url]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(claimed) != total {
			t.Errorf("expected %d distinct claims, got %d", total, len(claimed))
		}
		for url, n := range claimed {
			if n != 1 {
				t.Errorf("URL %s claimed %d times", url, n)
			}
		}
	})

	t.Run("blocking claim wakes on offer", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		got := make(chan string, 1)
		go func() {
			url, err := f.Claim(context.Background())
			if err != nil {
				got <- "error: " + err.Error()
				return
			}
			got <- url
		}()

		time.Sleep(20 * time.Millisecond)
		f.Offer("http://example.com/late")

		select {
		case url := <-got:
			if url != "http://example.com/late" {
				t.Errorf("expected late URL, got %q", url)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("blocked claim was not woken by offer")
		}
	})

	t.Run("blocking claim returns after close", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		errCh := make(chan error, 1)
		go func() {
			_, err := f.Claim(context.Background())
			errCh <- err
		}()

		time.Sleep(20 * time.Millisecond)
		f.Close()

		select {
		case err := <-errCh:
			if !errors.Is(err, ErrFrontierClosed) {
				t.Errorf("expected ErrFrontierClosed, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("blocked claim was not woken by close")
		}
	})

	t.Run("blocking claim honors context", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := f.Claim(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

// TestFrontierMarkDone tests completion semantics.
func TestFrontierMarkDone(t *testing.T) {
	t.Parallel()

	t.Run("completion is idempotent", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/")
		url, _ := f.TryClaim()

		if !f.MarkDone(url) {
			t.Error("expected first MarkDone to succeed")
		}
		if f.MarkDone(url) {
			t.Error("expected second MarkDone to report no change")
		}
		if f.InFlightCount() != 0 {
			t.Errorf("expected 0 in-flight, got %d", f.InFlightCount())
		}
		if f.CompletedCount() != 1 {
			t.Errorf("expected 1 completed, got %d", f.CompletedCount())
		}
	})

	t.Run("pending URL cannot be marked done", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/")
		if f.MarkDone("http://example.com/") {
			t.Error("expected MarkDone on pending URL to fail")
		}
		if f.PendingCount() != 1 || f.CompletedCount() != 0 {
			t.Error("expected state to be unchanged")
		}
	})

	t.Run("completed list is sorted", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		for _, u := range []string{"http://example.com/c", "http://example.com/a", "http://example.com/b"} {
			f.Offer(u)
		}
		for {
			url, ok := f.TryClaim()
			if !ok {
				break
			}
			f.MarkDone(url)
		}

		got := f.Completed()
		want := []string{"http://example.com/a", "http://example.com/b", "http://example.com/c"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

// TestFrontierQuiescence tests termination detection.
func TestFrontierQuiescence(t *testing.T) {
	t.Parallel()

	t.Run("in-flight work prevents quiescence", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if !f.IsQuiescent() {
			t.Error("expected empty frontier to be quiescent")
		}

		f.Offer("http://example.com/")
		if f.IsQuiescent() {
			t.Error("expected pending work to prevent quiescence")
		}

		url, _ := f.TryClaim()
		if f.IsQuiescent() {
			t.Error("expected in-flight work to prevent quiescence even with nothing pending")
		}

		f.Offer("http://example.com/about")
		f.MarkDone(url)
		if f.IsQuiescent() {
			t.Error("expected link offered before MarkDone to keep frontier busy")
		}

		next, _ := f.TryClaim()
		f.MarkDone(next)
		if !f.IsQuiescent() {
			t.Error("expected frontier to be quiescent after all work is done")
		}
	})

	t.Run("wait quiescent returns when work drains", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/")
		url, _ := f.TryClaim()

		done := make(chan error, 1)
		go func() {
			done <- f.WaitQuiescent(context.Background())
		}()

		select {
		case <-done:
			t.Fatal("WaitQuiescent returned while work was in flight")
		case <-time.After(20 * time.Millisecond):
		}

		f.MarkDone(url)
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected nil error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("WaitQuiescent did not return after work drained")
		}
	})

	t.Run("wait quiescent honors context", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Offer("http://example.com/")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := f.WaitQuiescent(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("offers after close are ignored", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Close()
		f.Close()
		if f.Offer("http://example.com/") {
			t.Error("expected offer after close to be rejected")
		}
	})

	t.Run("Add tells closed apart from duplicate", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if added, err := f.Add("http://example.com/"); !added || err != nil {
			t.Errorf("expected first add to succeed, got %v %v", added, err)
		}
		if added, err := f.Add("http://example.com/"); added || err != nil {
			t.Errorf("expected duplicate add to return false without error, got %v %v", added, err)
		}
		f.Close()
		if added, err := f.Add("http://example.com/new"); added || !errors.Is(err, ErrFrontierClosed) {
			t.Errorf("expected ErrFrontierClosed, got %v %v", added, err)
		}
	})
}
