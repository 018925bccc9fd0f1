package update

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// recentResults keeps the last successful result per feed for a short
// while. A tray check right after the background check, or several checks
// racing each other, then cost one feed request.
type recentResults struct {
	mu      sync.Mutex
	maxAge  time.Duration
	now     func() time.Time
	results map[string]Result
	flight  singleflight.Group
}

func newRecentResults(maxAge time.Duration) *recentResults {
	return &recentResults{
		maxAge:  maxAge,
		now:     time.Now,
		results: make(map[string]Result),
	}
}

// fresh returns the feed's result if it was checked less than maxAge ago.
// Stale results are dropped on the way.
func (rr *recentResults) fresh(feed string) (Result, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r, ok := rr.results[feed]
	if !ok {
		return Result{}, false
	}
	if rr.now().Sub(r.CheckedAt) >= rr.maxAge {
		delete(rr.results, feed)
		return Result{}, false
	}
	return r, true
}

func (rr *recentResults) remember(feed string, r Result) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.results[feed] = r
}

// load returns a fresh result or runs fetch once for all concurrent callers.
func (rr *recentResults) load(feed string, fetch func() (Result, error)) (Result, error) {
	if r, ok := rr.fresh(feed); ok {
		return r, nil
	}
	v, err, _ := rr.flight.Do(feed, func() (interface{}, error) {
		if r, ok := rr.fresh(feed); ok {
			return r, nil
		}
		r, err := fetch()
		if err != nil {
			return Result{}, err
		}
		r.CheckedAt = rr.now()
		rr.remember(feed, r)
		return r, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}
