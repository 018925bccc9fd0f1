package proxy

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpenNHP/opennhp/nhp/log"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/cookies"
)

var errNotRunning = errors.New("page proxy is not running")

// Opener shows a URL outside the application window, normally in the
// user's default browser.
type Opener interface {
	OpenURL(url string)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(string)

func (f OpenerFunc) OpenURL(u string) { f(u) }

type Options struct {
	StartURL       string
	UserAgent      string
	Locale         string
	TrackedDomains []string
	Jar            *cookies.Jar
	Opener         Opener
	// Transport overrides the upstream transport, mainly for tests.
	Transport http.RoundTripper
}

type routeKey struct{}

// Service is the loopback page proxy. The application window loads the
// remote drive through it, which is where the User-Agent is forced and
// where cookies are kept in the Go jar instead of the webview's store.
type Service struct {
	upstream  *url.URL
	domains   []string
	jar       *cookies.Jar
	opener    Opener
	token     string
	userAgent atomic.Value
	langMu    sync.RWMutex
	language  string

	rewriter *rewriter
	proxy    *httputil.ReverseProxy

	server   *http.Server
	listener net.Listener
	base     string
	running  atomic.Bool
}

func NewService(opts Options) (*Service, error) {
	upstream, err := url.Parse(opts.StartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start url: %w", err)
	}
	if upstream.Scheme != "https" && upstream.Scheme != "http" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid start url %q", opts.StartURL)
	}
	if opts.Jar == nil {
		opts.Jar = cookies.NewJar()
	}

	s := &Service{
		upstream: upstream,
		domains:  append([]string(nil), opts.TrackedDomains...),
		jar:      opts.Jar,
		opener:   opts.Opener,
		token:    newToken(),
	}
	if !s.hostAllowed(upstream.Hostname()) {
		s.domains = append(s.domains, upstream.Hostname())
	}
	s.SetUserAgent(opts.UserAgent)
	s.SetLocale(opts.Locale)
	s.rewriter = newRewriter(s.domains)

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ForceAttemptHTTP2 = true
		t.ResponseHeaderTimeout = 60 * time.Second
		transport = t
	}
	s.proxy = &httputil.ReverseProxy{
		Rewrite:        s.rewriteRequest,
		ModifyResponse: s.modifyResponse,
		ErrorHandler:   s.handleError,
		Transport:      transport,
		FlushInterval:  -1,
	}
	return s, nil
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Start listens on an OS-chosen loopback port and serves in the background.
func (s *Service) Start() error {
	if s.running.Load() {
		return nil
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(common.ProxyListenIP, "0"))
	if err != nil {
		return fmt.Errorf("page proxy listen fail: %w", err)
	}
	s.listener = ln
	s.base = "http://" + ln.Addr().String()
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.running.Store(true)
	go s.serve()
	log.Info("page proxy listening on %s for %s", s.base, s.upstream.Host)
	return nil
}

func (s *Service) serve() {
	err := s.server.Serve(s.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("page proxy serve fail: %v", err)
		s.running.Store(false)
	}
}

func (s *Service) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		log.Debug("page proxy has stopped.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Warning("page proxy shutdown: %v", err)
	}
	log.Info("page proxy stopped")
}

// BaseURL is the proxy origin, e.g. http://127.0.0.1:53011.
func (s *Service) BaseURL() string {
	return s.base
}

// StartURL is the configured start page in proxy space.
func (s *Service) StartURL() (string, error) {
	if !s.running.Load() {
		return "", errNotRunning
	}
	local, _ := s.LocalURL(s.upstream.String())
	return local, nil
}

func (s *Service) SetUserAgent(ua string) {
	if ua == "" {
		ua = common.DefaultUserAgent
	}
	s.userAgent.Store(ua)
}

func (s *Service) UserAgent() string {
	return s.userAgent.Load().(string)
}

func (s *Service) SetLocale(locale string) {
	s.langMu.Lock()
	defer s.langMu.Unlock()
	s.language = acceptLanguage(locale)
}

func (s *Service) acceptLanguage() string {
	s.langMu.RLock()
	defer s.langMu.RUnlock()
	return s.language
}

func (s *Service) hostAllowed(host string) bool {
	for _, d := range s.domains {
		if cookies.DomainMatches(host, d) {
			return true
		}
	}
	return false
}

// LocalURL maps a remote URL of a tracked host into proxy space.
func (s *Service) LocalURL(remote string) (string, bool) {
	u, err := url.Parse(remote)
	if err != nil || u.Host == "" || !s.hostAllowed(u.Hostname()) {
		return "", false
	}
	local := s.localBase(u.Host) + u.EscapedPath()
	if local == s.localBase(u.Host) {
		local += "/"
	}
	if u.RawQuery != "" {
		local += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		local += "#" + u.EscapedFragment()
	}
	return local, true
}

// RemoteURL maps a proxy-space URL back to the remote URL. Other URLs are
// returned unchanged.
func (s *Service) RemoteURL(local string) string {
	u, err := url.Parse(local)
	if err != nil || s.listener == nil || u.Host != s.listener.Addr().String() {
		return local
	}
	host, rest, ok := s.route(u.EscapedPath())
	if !ok {
		return local
	}
	remote := s.upstream.Scheme + "://" + host + rest
	if u.RawQuery != "" {
		remote += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		remote += "#" + u.EscapedFragment()
	}
	return remote
}

func (s *Service) localBase(hostport string) string {
	if strings.EqualFold(hostport, s.upstream.Host) {
		return s.base
	}
	return s.base + common.ProxyHostPrefix + strings.ToLower(hostport)
}

// route splits an escaped proxy path into the upstream host and path.
func (s *Service) route(escapedPath string) (hostport, rest string, ok bool) {
	if !strings.HasPrefix(escapedPath, common.ProxyHostPrefix) {
		if escapedPath == "" {
			escapedPath = "/"
		}
		return s.upstream.Host, escapedPath, true
	}
	tail := escapedPath[len(common.ProxyHostPrefix):]
	hostport, rest = tail, "/"
	if i := strings.IndexByte(tail, '/'); i >= 0 {
		hostport, rest = tail[:i], tail[i:]
	}
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	if host == "" || !s.hostAllowed(host) {
		return "", "", false
	}
	return hostport, rest, true
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.checkSender(r); err != nil {
		log.Warning("page proxy refused %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if strings.HasPrefix(r.URL.Path, common.ProxyControlPath) {
		s.serveControl(w, r)
		return
	}
	host, rest, ok := s.route(r.URL.EscapedPath())
	if !ok {
		log.Warning("page proxy refused request for %s", r.URL.Path)
		http.Error(w, "host not allowed", http.StatusForbidden)
		return
	}
	ctx := context.WithValue(r.Context(), routeKey{}, route{host: host, path: rest})
	s.proxy.ServeHTTP(w, r.WithContext(ctx))
}

type route struct {
	host string
	path string
}

func (s *Service) rewriteRequest(pr *httputil.ProxyRequest) {
	rt, _ := pr.In.Context().Value(routeKey{}).(route)
	out := pr.Out

	out.URL.Scheme = s.upstream.Scheme
	out.URL.Host = rt.host
	out.URL.RawPath = rt.path
	if p, err := url.PathUnescape(rt.path); err == nil {
		out.URL.Path = p
	} else {
		out.URL.Path = rt.path
	}
	if out.URL.RawPath == out.URL.Path {
		out.URL.RawPath = ""
	}
	out.Host = rt.host

	out.Header.Set("User-Agent", s.UserAgent())
	if lang := s.acceptLanguage(); lang != "" {
		out.Header.Set("Accept-Language", lang)
	}
	// The transport negotiates gzip itself and hands back a plain body,
	// which the response rewriter needs.
	out.Header.Del("Accept-Encoding")

	// checkSender has already limited Origin to the proxy origin.
	if origin := out.Header.Get("Origin"); origin != "" {
		out.Header.Set("Origin", s.upstream.Scheme+"://"+s.upstream.Host)
	}
	if ref := out.Header.Get("Referer"); ref != "" {
		out.Header.Set("Referer", s.RemoteURL(ref))
	}

	out.Header.Del("Cookie")
	if header := s.cookieHeader(out.URL, pr.In.Cookies()); header != "" {
		out.Header.Set("Cookie", header)
	}
}

// cookieHeader joins the jar's cookies for u with the page's own cookies
// (those set from script on the proxy origin). Jar entries win on conflicts.
func (s *Service) cookieHeader(u *url.URL, pageCookies []*http.Cookie) string {
	jarCookies := s.jar.Cookies(u)
	seen := make(map[string]struct{}, len(jarCookies))
	parts := make([]string, 0, len(jarCookies)+len(pageCookies))
	for _, c := range jarCookies {
		seen[c.Name] = struct{}{}
		parts = append(parts, c.Name+"="+c.Value)
	}
	for _, c := range pageCookies {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

var strippedResponseHeaders = []string{
	"Content-Security-Policy",
	"Content-Security-Policy-Report-Only",
	"Strict-Transport-Security",
	"Public-Key-Pins",
	"Alt-Svc",
}

func (s *Service) modifyResponse(resp *http.Response) error {
	if cs := resp.Cookies(); len(cs) > 0 {
		s.jar.SetCookies(resp.Request.URL, cs)
	}
	resp.Header.Del("Set-Cookie")
	for _, h := range strippedResponseHeaders {
		resp.Header.Del(h)
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		resp.Header.Set("Location", s.rewriteLocation(resp.Request.URL, loc))
	}

	return s.rewriter.rewriteBody(resp, s.localBase, s.injection())
}

func (s *Service) rewriteLocation(from *url.URL, loc string) string {
	u, err := url.Parse(loc)
	if err != nil {
		return loc
	}
	if u.IsAbs() {
		if local, ok := s.LocalURL(loc); ok {
			return local
		}
		return loc
	}
	if strings.HasPrefix(loc, "//") {
		if local, ok := s.LocalURL(from.Scheme + ":" + loc); ok {
			return local
		}
		return loc
	}
	if strings.HasPrefix(loc, "/") && !strings.EqualFold(from.Host, s.upstream.Host) {
		return s.localBase(from.Host) + loc
	}
	return loc
}

func (s *Service) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Warning("page proxy upstream error for %s: %v", r.URL.Path, err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprint(w, unreachablePage)
}

const unreachablePage = `<!doctype html><html><head><meta charset="utf-8"><title>Offline</title></head>
<body style="font-family:-apple-system,Segoe UI,sans-serif;text-align:center;padding-top:20vh;color:#555">
<h2>Cannot reach the drive</h2><p>Check your connection. Retrying&hellip;</p>
<script>setTimeout(function(){location.reload()},5000)</script></body></html>`
