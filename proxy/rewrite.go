package proxy

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/drivedesk/DriveDesk/common"
)

const maxRewriteBody = 32 << 20

type rewriter struct {
	absolute *regexp.Regexp
}

// newRewriter matches absolute and protocol-relative URLs of the tracked
// hosts for http and websocket schemes, including the JSON-escaped
// "https:\/\/host" form.
func newRewriter(domains []string) *rewriter {
	alts := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			alts = append(alts, regexp.QuoteMeta(d))
		}
	}
	pattern := `((?:https?|wss?):)?(\\?/\\?/)((?:[a-z0-9-]+\.)*(?:` + strings.Join(alts, "|") + `)(?::\d+)?)`
	return &rewriter{absolute: regexp.MustCompile(pattern)}
}

func rewritable(contentType string) (bool, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false, false
	}
	switch {
	case mt == "text/html":
		return true, true
	case mt == "text/css", mt == "application/json", mt == "text/javascript",
		mt == "application/javascript", mt == "application/x-javascript",
		strings.HasSuffix(mt, "+json"):
		return true, false
	}
	return false, false
}

// rewriteBody replaces tracked absolute URLs in text bodies with their
// proxy-space equivalent and injects the page hook into HTML documents.
func (rw *rewriter) rewriteBody(resp *http.Response, localBase func(string) string, inject string) error {
	ok, html := rewritable(resp.Header.Get("Content-Type"))
	if !ok || resp.Body == nil || resp.Body == http.NoBody {
		return nil
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && enc != "identity" {
		return nil
	}
	if resp.ContentLength > maxRewriteBody {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRewriteBody+1))
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read upstream body: %w", err)
	}
	if len(body) > maxRewriteBody {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return nil
	}

	body = rw.replace(body, localBase)
	if html {
		body = injectHead(body, inject)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("ETag")
	return nil
}

func (rw *rewriter) replace(body []byte, localBase func(string) string) []byte {
	matches := rw.absolute.FindAllSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body
	}
	var out bytes.Buffer
	out.Grow(len(body))
	last := 0
	for _, m := range matches {
		var scheme string
		if m[2] >= 0 {
			scheme = strings.ToLower(string(body[m[2]:m[3]]))
		} else if m[0] > 0 && partOfURL(body[m[0]-1]) {
			// "//host" inside another URL, e.g. after "ftp:"
			continue
		}
		out.Write(body[last:m[0]])
		out.WriteString(localPrefix(scheme, body[m[4]:m[5]], string(body[m[6]:m[7]]), localBase))
		last = m[1]
	}
	out.Write(body[last:])
	return out.Bytes()
}

// localPrefix is the proxy-space replacement for scheme + sep + host. The
// scheme keeps its kind (http or websocket) and a missing scheme stays missing.
func localPrefix(scheme string, sep []byte, host string, localBase func(string) string) string {
	local := localBase(host)
	switch scheme {
	case "ws:", "wss:":
		local = "ws" + strings.TrimPrefix(local, "http")
	case "":
		local = strings.TrimPrefix(local, "http:")
	}
	if bytes.IndexByte(sep, '\\') >= 0 {
		local = strings.ReplaceAll(local, "/", `\/`)
	}
	return local
}

func partOfURL(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == ':' || c == '/' || c == '.' || c == '-' || c == '+'
}

func injectHead(body []byte, script string) []byte {
	if script == "" || bytes.Contains(body, []byte(common.ProxyInjectMarker)) {
		return body
	}
	lower := bytes.ToLower(body)
	if i := bytes.Index(lower, []byte("<head")); i >= 0 {
		if j := bytes.IndexByte(lower[i:], '>'); j >= 0 {
			at := i + j + 1
			return append(body[:at:at], append([]byte(script), body[at:]...)...)
		}
	}
	return append([]byte(script), body...)
}

// injection routes new-window requests of the page to the system browser.
func (s *Service) injection() string {
	return `<script ` + common.ProxyInjectMarker + `>(function(){` +
		`var t="` + s.token + `";` +
		`function ext(u){if(!u)return;try{u=new URL(u,location.href).href}catch(e){return}` +
		`fetch("` + common.ProxyOpenPath + `?t="+t+"&url="+encodeURIComponent(u),{method:"POST"})}` +
		`window.open=function(u){ext(u);return null};` +
		`document.addEventListener("click",function(e){var a=e.target&&e.target.closest&&e.target.closest('a[target="_blank"]');` +
		`if(a&&a.href){e.preventDefault();ext(a.href)}},true)})();</script>`
}
