package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OpenNHP/opennhp/nhp/log"
	"golang.org/x/mod/semver"
)

var errBadVersion = errors.New("release tag is not a semantic version")

// recentCheck is how long a result answers further checks without a request.
const recentCheck = 10 * time.Minute

// Release is the subset of a GitHub release used by the checker.
type Release struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	Body       string `json:"body"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Result is the outcome of one check.
type Result struct {
	Current   string
	Latest    string
	Release   Release
	Available bool
	CheckedAt time.Time
}

// Checker compares the running version against the latest published release.
type Checker struct {
	FeedURL   string
	Current   string
	UserAgent string
	Client    *http.Client

	recent *recentResults
}

func NewChecker(feedURL, current string) *Checker {
	return &Checker{
		FeedURL: feedURL,
		Current: current,
		Client:  &http.Client{Timeout: 15 * time.Second},
		recent:  newRecentResults(recentCheck),
	}
}

// Check fetches the feed unless it was checked within the last few minutes.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	return c.recent.load(c.FeedURL, func() (Result, error) {
		return c.fetch(ctx)
	})
}

func (c *Checker) fetch(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FeedURL, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("update feed request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("update feed returned %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return Result{}, fmt.Errorf("decode update feed: %w", err)
	}

	latest := canonical(rel.TagName)
	current := canonical(c.Current)
	if latest == "" {
		return Result{}, fmt.Errorf("%w: %q", errBadVersion, rel.TagName)
	}

	r := Result{
		Current: current,
		Latest:  latest,
		Release: rel,
	}
	r.Available = !rel.Draft && !rel.Prerelease && (current == "" || semver.Compare(latest, current) > 0)
	log.Debug("update check: current=%s latest=%s available=%v", current, latest, r.Available)
	return r, nil
}

// canonical turns "1.2", "v1.2.3", "1.2.3+45" into a semver string, or "" if invalid.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// Run checks once after delay and then every interval until ctx is done.
// notify is called for every check that finds a newer release.
func (c *Checker) Run(ctx context.Context, delay, interval time.Duration, notify func(Result)) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		r, err := c.Check(ctx)
		if err != nil {
			log.Warning("update check fail: %v", err)
		} else if r.Available && notify != nil {
			notify(r)
		}
		timer.Reset(interval)
	}
}
