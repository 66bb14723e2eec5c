package testutil

import (
	"context"
	"sync"
	"time"
)

// ViewsCall records the parameters of one view-count query.
type ViewsCall struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

// CannedViews is a views provider answering from a fixed per-URI count map
// and recording every call, so tests can assert the queried range, URI set
// and deduplication flag.
type CannedViews struct {
	mu     sync.Mutex
	counts map[string]int64
	calls  []ViewsCall
	err    error
}

// NewCannedViews creates a provider answering from the given counts.
func NewCannedViews(counts map[string]int64) *CannedViews {
	if counts == nil {
		counts = make(map[string]int64)
	}

	return &CannedViews{counts: counts}
}

// FailWith makes every subsequent query fail with err.
func (v *CannedViews) FailWith(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.err = err
}

// Query answers from the canned counts, restricted to the requested URIs;
// URIs without a canned count are absent from the answer.
func (v *CannedViews) Query(
	_ context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) (map[string]int64, error) {

	v.mu.Lock()
	defer v.mu.Unlock()

	v.calls = append(v.calls, ViewsCall{Start: start, End: end, URIs: uris, Unique: unique})

	if v.err != nil {
		return nil, v.err
	}

	counts := make(map[string]int64, len(uris))
	for _, uri := range uris {
		if hits, ok := v.counts[uri]; ok {
			counts[uri] = hits
		}
	}

	return counts, nil
}

// Calls returns every recorded query.
func (v *CannedViews) Calls() []ViewsCall {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]ViewsCall(nil), v.calls...)
}

// LastCall returns the most recent query, or a zero call if none happened.
func (v *CannedViews) LastCall() ViewsCall {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.calls) == 0 {
		return ViewsCall{}
	}

	return v.calls[len(v.calls)-1]
}
