package crawler

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrFrontierClosed is returned by Claim once the frontier has been closed.
var ErrFrontierClosed = errors.New("frontier closed")

// Frontier holds the crawl's URL sets: pending (discovered, not yet claimed),
// in-flight (claimed, not yet done) and completed. A URL lives in at most one
// of the three sets, and a completed URL is never accepted again.
//
// All operations take a single mutex, so each one is atomic with respect to
// the others. Waiters are woken through a channel that is closed and
// replaced on every state change, which lets idle workers block instead of
// polling.
type Frontier struct {
	mutex sync.Mutex

	// queue holds pending URLs in discovery order.
	queue []string

	pending   map[string]struct{}
	inFlight  map[string]struct{}
	completed map[string]struct{}

	// changed is closed whenever the sets change or the frontier closes.
	changed chan struct{}
	closed  bool
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:     make([]string, 0),
		pending:   make(map[string]struct{}),
		inFlight:  make(map[string]struct{}),
		completed: make(map[string]struct{}),
		changed:   make(chan struct{}),
	}
}

// Offer adds url to pending unless it is already pending, in-flight or
// completed. It reports whether the URL was added.
func (f *Frontier) Offer(url string) bool {
	added, _ := f.Add(url)
	return added
}

// Add is Offer that tells a closed frontier apart from a known URL: it
// returns ErrFrontierClosed once Close has been called.
func (f *Frontier) Add(url string) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return false, ErrFrontierClosed
	}
	if f.knownLocked(url) {
		return false, nil
	}
	f.pending[url] = struct{}{}
	f.queue = append(f.queue, url)
	f.notifyLocked()
	return true, nil
}

// TryClaim moves one pending URL to in-flight and returns it.
// The boolean is false when nothing is pending.
func (f *Frontier) TryClaim() (string, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.claimLocked()
}

// Claim blocks until a pending URL can be claimed, the frontier is closed,
// or ctx is done.
func (f *Frontier) Claim(ctx context.Context) (string, error) {
	for {
		f.mutex.Lock()
		if f.closed {
			f.mutex.Unlock()
			return "", ErrFrontierClosed
		}
		if url, ok := f.claimLocked(); ok {
			f.mutex.Unlock()
			return url, nil
		}
		changed := f.changed
		f.mutex.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-changed:
		}
	}
}

// MarkDone moves url from in-flight to completed.
// It returns false and changes nothing when url is not in-flight, so a
// second call for the same URL is harmless.
func (f *Frontier) MarkDone(url string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, ok := f.inFlight[url]; !ok {
		return false
	}
	delete(f.inFlight, url)
	f.completed[url] = struct{}{}
	f.notifyLocked()
	return true
}

// IsQuiescent reports whether nothing is pending and nothing is in-flight.
func (f *Frontier) IsQuiescent() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.quiescentLocked()
}

// WaitQuiescent blocks until the frontier is quiescent or ctx is done.
// A closed frontier that still has work is not considered quiescent.
func (f *Frontier) WaitQuiescent(ctx context.Context) error {
	for {
		f.mutex.Lock()
		if f.quiescentLocked() {
			f.mutex.Unlock()
			return nil
		}
		changed := f.changed
		f.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Close wakes every blocked Claim, which then returns ErrFrontierClosed.
// Offers after Close are ignored. In-flight URLs can still be marked done.
func (f *Frontier) Close() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.notifyLocked()
}

// IsCompleted reports whether url has been processed.
func (f *Frontier) IsCompleted(url string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	_, ok := f.completed[url]
	return ok
}

// PendingCount returns the number of pending URLs.
func (f *Frontier) PendingCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.pending)
}

// InFlightCount returns the number of claimed but unfinished URLs.
func (f *Frontier) InFlightCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.inFlight)
}

// CompletedCount returns the number of completed URLs.
func (f *Frontier) CompletedCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.completed)
}

// Completed returns the completed URLs in sorted order.
func (f *Frontier) Completed() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	urls := make([]string, 0, len(f.completed))
	for url := range f.completed {
		urls = append(urls, url)
	}
	slices.Sort(urls)
	return urls
}

func (f *Frontier) knownLocked(url string) bool {
	if _, ok := f.pending[url]; ok {
		return true
	}
	if _, ok := f.inFlight[url]; ok {
		return true
	}
	_, ok := f.completed[url]
	return ok
}

func (f *Frontier) claimLocked() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	url := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.pending, url)
	f.inFlight[url] = struct{}{}
	f.notifyLocked()
	return url, true
}

func (f *Frontier) quiescentLocked() bool {
	return len(f.pending) == 0 && len(f.inFlight) == 0
}

// notifyLocked wakes all current waiters.
func (f *Frontier) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
