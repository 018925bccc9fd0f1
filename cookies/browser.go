package cookies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/steipete/sweetcookie"
)

// ImportOptions selects which installed browser profiles to read.
type ImportOptions struct {
	Browsers []string
	Profile  string
	Domains  []string
	Timeout  time.Duration
}

// ImportBrowser reads an existing session for the tracked domains out of a
// locally installed browser. Reading may trigger a keychain prompt.
func ImportBrowser(ctx context.Context, opts ImportOptions) ([]Record, []string, error) {
	if len(opts.Domains) == 0 {
		return nil, nil, fmt.Errorf("no tracked domains to import")
	}

	var browsers []sweetcookie.Browser
	for _, b := range opts.Browsers {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			browsers = append(browsers, sweetcookie.Browser(b))
		}
	}

	sopts := sweetcookie.Options{
		Browsers:      browsers,
		AllowAllHosts: true,
		Timeout:       opts.Timeout,
	}
	if opts.Profile != "" {
		sopts.Profiles = make(map[sweetcookie.Browser]string, len(browsers))
		for _, b := range browsers {
			sopts.Profiles[b] = opts.Profile
		}
	}

	// Browsers are read one at a time; the first one holding a tracked session wins.
	candidates := browsers
	if len(candidates) == 0 {
		candidates = sweetcookie.DefaultBrowsers()
	}
	var warnings []string
	for _, b := range candidates {
		sopts.Browsers = []sweetcookie.Browser{b}
		res, err := sweetcookie.Get(ctx, sopts)
		if err != nil {
			return nil, warnings, err
		}
		warnings = append(warnings, res.Warnings...)

		var out []Record
		for _, c := range res.Cookies {
			for _, d := range opts.Domains {
				if DomainMatches(c.Domain, d) {
					out = append(out, fromSweetCookie(c))
					break
				}
			}
		}
		if len(out) > 0 {
			sortRecords(out)
			return out, warnings, nil
		}
	}
	return nil, warnings, nil
}
