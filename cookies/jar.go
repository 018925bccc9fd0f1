package cookies

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Change describes one mutation of the jar.
type Change struct {
	Record  Record
	Removed bool
}

type entry struct {
	record  Record
	created time.Time
}

// Jar is an in-memory http.CookieJar keyed by (name, domain, path). It is
// the page's cookie store: the proxy feeds responses into it and reads it
// back for every upstream request.
type Jar struct {
	mu        sync.Mutex
	entries   map[string]*entry
	listeners []func(Change)
	now       func() time.Time
}

func NewJar() *Jar {
	return &Jar{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// OnChange registers fn to be called after every add, update or removal.
// Callbacks run on the goroutine that changed the jar, outside the lock.
func (j *Jar) OnChange(fn func(Change)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.listeners = append(j.listeners, fn)
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cs []*http.Cookie) {
	if u == nil {
		return
	}
	host := normalizeDomain(u.Hostname())
	now := j.now()

	var changes []Change
	j.mu.Lock()
	for _, c := range cs {
		if c == nil || c.Name == "" {
			continue
		}
		r := Record{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			SameSite: sameSiteName(c.SameSite),
		}
		if c.Domain == "" {
			r.Domain = host
			r.HostOnly = true
		} else {
			r.Domain = normalizeDomain(c.Domain)
			if host != r.Domain && !strings.HasSuffix(host, "."+r.Domain) {
				continue
			}
			// Domain=com would reach every site under the suffix.
			if isPublicSuffix(r.Domain) {
				if host != r.Domain {
					continue
				}
				r.HostOnly = true
			}
		}
		if r.Path == "" || r.Path[0] != '/' {
			r.Path = defaultPath(u.Path)
		}

		remove := false
		switch {
		case c.MaxAge < 0:
			remove = true
		case c.MaxAge > 0:
			r.Expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
		case !c.Expires.IsZero():
			if !c.Expires.After(now) {
				remove = true
			} else {
				r.Expires = c.Expires.Unix()
			}
		}

		if ch, ok := j.applyLocked(r, remove, now); ok {
			changes = append(changes, ch)
		}
	}
	listeners := j.listeners
	j.mu.Unlock()

	j.notify(listeners, changes)
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	if u == nil {
		return nil
	}
	host := u.Hostname()
	secure := u.Scheme == "https" || u.Scheme == "wss"
	now := j.now()

	j.mu.Lock()
	var matched []*entry
	for k, e := range j.entries {
		if e.record.Expired(now) {
			delete(j.entries, k)
			continue
		}
		if e.record.Secure && !secure {
			continue
		}
		if !hostMatches(host, e.record) || !pathMatches(u.Path, e.record.Path) {
			continue
		}
		matched = append(matched, e)
	}
	j.mu.Unlock()

	sort.Slice(matched, func(a, b int) bool {
		if la, lb := len(matched[a].record.Path), len(matched[b].record.Path); la != lb {
			return la > lb
		}
		return matched[a].created.Before(matched[b].created)
	})

	out := make([]*http.Cookie, 0, len(matched))
	for _, e := range matched {
		out = append(out, &http.Cookie{Name: e.record.Name, Value: e.record.Value})
	}
	return out
}

// Set stores r as-is. Expired records are treated as a removal.
func (j *Jar) Set(r Record) {
	if r.Name == "" || r.Domain == "" {
		return
	}
	r.Domain = normalizeDomain(r.Domain)
	if r.Path == "" {
		r.Path = "/"
	}
	now := j.now()
	j.mu.Lock()
	ch, ok := j.applyLocked(r, r.Expired(now), now)
	listeners := j.listeners
	j.mu.Unlock()
	if ok {
		j.notify(listeners, []Change{ch})
	}
}

// ForDomain returns the live cookies belonging to the tracked domain.
func (j *Jar) ForDomain(tracked string) []Record {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []Record
	for _, e := range j.entries {
		if e.record.Expired(now) {
			continue
		}
		if DomainMatches(e.record.Domain, tracked) {
			out = append(out, e.record)
		}
	}
	sortRecords(out)
	return out
}

// All returns every live cookie in the jar.
func (j *Jar) All() []Record {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Record, 0, len(j.entries))
	for _, e := range j.entries {
		if !e.record.Expired(now) {
			out = append(out, e.record)
		}
	}
	sortRecords(out)
	return out
}

// Clear removes every cookie and reports each removal.
func (j *Jar) Clear() {
	j.mu.Lock()
	changes := make([]Change, 0, len(j.entries))
	for _, e := range j.entries {
		changes = append(changes, Change{Record: e.record, Removed: true})
	}
	j.entries = make(map[string]*entry)
	listeners := j.listeners
	j.mu.Unlock()
	j.notify(listeners, changes)
}

func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Jar) applyLocked(r Record, remove bool, now time.Time) (Change, bool) {
	k := r.key()
	old, exists := j.entries[k]
	if remove {
		if !exists {
			return Change{}, false
		}
		delete(j.entries, k)
		return Change{Record: old.record, Removed: true}, true
	}
	if exists && old.record == r {
		return Change{}, false
	}
	created := now
	if exists {
		created = old.created
	}
	j.entries[k] = &entry{record: r, created: created}
	return Change{Record: r}, true
}

func (j *Jar) notify(listeners []func(Change), changes []Change) {
	for _, ch := range changes {
		for _, fn := range listeners {
			fn(ch)
		}
	}
}

func isPublicSuffix(domain string) bool {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix == domain
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(a, b int) bool {
		if rs[a].Domain != rs[b].Domain {
			return rs[a].Domain < rs[b].Domain
		}
		if rs[a].Path != rs[b].Path {
			return rs[a].Path < rs[b].Path
		}
		return rs[a].Name < rs[b].Name
	})
}
