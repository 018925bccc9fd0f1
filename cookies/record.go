package cookies

import (
	"net/http"
	"strings"
	"time"

	"github.com/steipete/sweetcookie"
)

// Record is one persisted cookie. The JSON shape is the inline cookie format
// understood by sweetcookie, so a file written here can also be fed to any
// tool that accepts it.
type Record struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	SameSite string `json:"sameSite,omitempty"`
	// Expires is Unix seconds, 0 for a session cookie.
	Expires  int64 `json:"expires,omitempty"`
	HostOnly bool  `json:"hostOnly,omitempty"`
}

func (r Record) key() string {
	return r.Name + "\x00" + r.Domain + "\x00" + r.Path
}

// Expired reports whether r has an expiry at or before now.
func (r Record) Expired(now time.Time) bool {
	return r.Expires > 0 && !now.Before(time.Unix(r.Expires, 0))
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return string(sweetcookie.SameSiteLax)
	case http.SameSiteStrictMode:
		return string(sweetcookie.SameSiteStrict)
	case http.SameSiteNoneMode:
		return string(sweetcookie.SameSiteNone)
	default:
		return ""
	}
}

func fromSweetCookie(c sweetcookie.Cookie) Record {
	r := Record{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   normalizeDomain(c.Domain),
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: string(c.SameSite),
	}
	if r.Path == "" {
		r.Path = "/"
	}
	if c.Expires != nil {
		r.Expires = c.Expires.Unix()
	}
	return r
}

func normalizeDomain(d string) string {
	d = strings.TrimSpace(strings.ToLower(d))
	d = strings.TrimPrefix(d, ".")
	return strings.TrimSuffix(d, ".")
}

// DomainMatches reports whether a cookie stored for cookieDomain belongs to
// the tracked domain. ".icloud.com" tracks icloud.com and all its subdomains.
func DomainMatches(cookieDomain, tracked string) bool {
	cd := normalizeDomain(cookieDomain)
	td := normalizeDomain(tracked)
	if cd == "" || td == "" {
		return false
	}
	return cd == td || strings.HasSuffix(cd, "."+td)
}

// hostMatches applies the RFC 6265 domain-match rule of a request host against a cookie.
func hostMatches(host string, r Record) bool {
	host = normalizeDomain(host)
	if r.HostOnly {
		return host == r.Domain
	}
	return host == r.Domain || strings.HasSuffix(host, "."+r.Domain)
}

func pathMatches(requestPath, cookiePath string) bool {
	if requestPath == "" {
		requestPath = "/"
	}
	if cookiePath == "" || cookiePath == "/" || requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
