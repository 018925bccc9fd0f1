package cookies

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func names(cs []*http.Cookie) map[string]string {
	out := make(map[string]string, len(cs))
	for _, c := range cs {
		out[c.Name] = c.Value
	}
	return out
}

func TestJarDomainAndHostOnly(t *testing.T) {
	j := NewJar()
	j.SetCookies(mustURL(t, "https://www.icloud.com/iclouddrive"), []*http.Cookie{
		{Name: "shared", Value: "1", Domain: ".icloud.com", Path: "/"},
		{Name: "local", Value: "2", Path: "/"},
	})

	got := names(j.Cookies(mustURL(t, "https://setup.icloud.com/")))
	if got["shared"] != "1" {
		t.Fatalf("domain cookie not sent to subdomain: %v", got)
	}
	if _, ok := got["local"]; ok {
		t.Fatalf("host-only cookie leaked to another host: %v", got)
	}

	got = names(j.Cookies(mustURL(t, "https://www.icloud.com/")))
	if got["shared"] != "1" || got["local"] != "2" {
		t.Fatalf("want both cookies on origin host, got %v", got)
	}
}

func TestJarRejectsForeignDomain(t *testing.T) {
	j := NewJar()
	j.SetCookies(mustURL(t, "https://www.icloud.com/"), []*http.Cookie{
		{Name: "evil", Value: "x", Domain: "example.com"},
	})
	if j.Len() != 0 {
		t.Fatalf("cookie for unrelated domain was accepted")
	}
}

func TestJarRejectsPublicSuffixDomain(t *testing.T) {
	j := NewJar()
	j.SetCookies(mustURL(t, "https://www.icloud.com/"), []*http.Cookie{
		{Name: "wide", Value: "x", Domain: "com", Path: "/"},
		{Name: "wider", Value: "y", Domain: ".co.uk", Path: "/"},
	})
	if j.Len() != 0 {
		t.Fatalf("public suffix cookie accepted: %v", j.All())
	}

	// A host that is itself a public suffix may still set a cookie for itself.
	j.SetCookies(mustURL(t, "https://github.io/"), []*http.Cookie{
		{Name: "self", Value: "z", Domain: "github.io", Path: "/"},
	})
	all := j.All()
	if len(all) != 1 || !all[0].HostOnly {
		t.Fatalf("suffix host cookie = %+v, want one host-only record", all)
	}
	if got := names(j.Cookies(mustURL(t, "https://user.github.io/"))); len(got) != 0 {
		t.Fatalf("suffix cookie reached a sibling site: %v", got)
	}
}

func TestJarSecureAndPath(t *testing.T) {
	j := NewJar()
	j.SetCookies(mustURL(t, "https://www.icloud.com/a/b"), []*http.Cookie{
		{Name: "sec", Value: "1", Secure: true, Path: "/"},
		{Name: "deep", Value: "2", Path: "/a"},
	})

	if got := names(j.Cookies(mustURL(t, "http://www.icloud.com/a/c"))); got["sec"] != "" {
		t.Fatalf("secure cookie sent over http: %v", got)
	}
	if got := names(j.Cookies(mustURL(t, "https://www.icloud.com/ab"))); got["deep"] != "" {
		t.Fatalf("path /a matched /ab: %v", got)
	}
	cs := j.Cookies(mustURL(t, "https://www.icloud.com/a/c"))
	if len(cs) != 2 || cs[0].Name != "deep" {
		t.Fatalf("want longest path first, got %v", cs)
	}
}

func TestJarExpiryRemoves(t *testing.T) {
	j := NewJar()
	var removed []string
	j.OnChange(func(c Change) {
		if c.Removed {
			removed = append(removed, c.Record.Name)
		}
	})
	u := mustURL(t, "https://www.icloud.com/")
	j.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1", MaxAge: 60}})
	j.SetCookies(u, []*http.Cookie{{Name: "a", MaxAge: -1}})
	if j.Len() != 0 {
		t.Fatalf("MaxAge<0 did not delete")
	}
	j.SetCookies(u, []*http.Cookie{{Name: "b", Value: "1"}})
	j.SetCookies(u, []*http.Cookie{{Name: "b", Expires: time.Now().Add(-time.Hour)}})
	if len(removed) != 2 || removed[0] != "a" || removed[1] != "b" {
		t.Fatalf("unexpected removals %v", removed)
	}
}

func TestJarChangeNotifiedOnlyOnDifference(t *testing.T) {
	j := NewJar()
	var n int
	j.OnChange(func(Change) { n++ })
	r := Record{Name: "X-APPLE-WEBAUTH-TOKEN", Value: "v", Domain: ".icloud.com", Path: "/"}
	j.Set(r)
	j.Set(r)
	if n != 1 {
		t.Fatalf("want 1 change, got %d", n)
	}
	r.Value = "w"
	j.Set(r)
	if n != 2 {
		t.Fatalf("want 2 changes, got %d", n)
	}
}

func TestDomainMatches(t *testing.T) {
	tests := []struct {
		cookie, tracked string
		want            bool
	}{
		{"icloud.com", ".icloud.com", true},
		{".www.icloud.com", ".icloud.com", true},
		{"p42-drivews.icloud.com", "icloud.com", true},
		{"noticloud.com", ".icloud.com", false},
		{"apple.com", ".icloud.com", false},
		{"", ".icloud.com", false},
	}
	for _, tt := range tests {
		if got := DomainMatches(tt.cookie, tt.tracked); got != tt.want {
			t.Errorf("DomainMatches(%q, %q) = %v, want %v", tt.cookie, tt.tracked, got, tt.want)
		}
	}
}
