package update

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func feed(t *testing.T, body string, hits *int32, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckComparesSemver(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		body      string
		available bool
	}{
		{"newer", "0.3.0", `{"tag_name":"v0.4.0","html_url":"https://example.com/r"}`, true},
		{"same", "0.3.0", `{"tag_name":"0.3.0"}`, false},
		{"older", "1.0.0", `{"tag_name":"v0.9.9"}`, false},
		{"minor only tag", "1.1.9", `{"tag_name":"v1.2"}`, true},
		{"prerelease ignored", "0.3.0", `{"tag_name":"v0.4.0","prerelease":true}`, false},
		{"build metadata", "0.3.0+12", `{"tag_name":"v0.3.0"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := feed(t, tt.body, nil, 0)
			r, err := NewChecker(srv.URL, tt.current).Check(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if r.Available != tt.available {
				t.Fatalf("Available = %v, want %v (%+v)", r.Available, tt.available, r)
			}
		})
	}
}

func TestCheckRejectsBadTag(t *testing.T) {
	srv := feed(t, `{"tag_name":"nightly"}`, nil, 0)
	_, err := NewChecker(srv.URL, "0.1.0").Check(context.Background())
	if !errors.Is(err, errBadVersion) {
		t.Fatalf("want errBadVersion, got %v", err)
	}
}

func TestConcurrentChecksShareOneRequest(t *testing.T) {
	var hits int32
	srv := feed(t, `{"tag_name":"v9.0.0"}`, &hits, 50*time.Millisecond)
	c := NewChecker(srv.URL, "1.0.0")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Check(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("want 1 feed request, got %d", n)
	}
}

func TestRecentResultAnswersUntilStale(t *testing.T) {
	var hits int32
	srv := feed(t, `{"tag_name":"v2.0.0"}`, &hits, 0)
	c := NewChecker(srv.URL, "1.0.0")
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	c.recent.now = func() time.Time { return now }

	first, err := c.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !first.CheckedAt.Equal(now) {
		t.Fatalf("CheckedAt = %v", first.CheckedAt)
	}

	now = now.Add(recentCheck - time.Second)
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("recent result not reused, hits=%d", n)
	}

	now = now.Add(time.Second)
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("stale result reused, hits=%d", n)
	}
}

func TestFailedCheckIsNotRemembered(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL, "1.0.0")
	if _, err := c.Check(context.Background()); err == nil {
		t.Fatal("want error from 503")
	}
	r, err := c.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Available {
		t.Fatalf("same version reported as update")
	}
}

func TestRunNotifies(t *testing.T) {
	srv := feed(t, `{"tag_name":"v2.0.0"}`, nil, 0)
	c := NewChecker(srv.URL, "1.0.0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Result, 1)
	go c.Run(ctx, time.Millisecond, time.Hour, func(r Result) {
		select {
		case got <- r:
		default:
		}
	})
	select {
	case r := <-got:
		if r.Latest != "v2.0.0" {
			t.Fatalf("latest = %s", r.Latest)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}
}
