package proxy

import (
	"errors"
	"net/http"
	"strings"
)

var (
	errForeignHost   = errors.New("request host is not the proxy address")
	errForeignOrigin = errors.New("request origin is not the proxy origin")
	errCrossSite     = errors.New("cross-site request")
)

// checkSender lets through only requests of the page loaded from the proxy.
// The Host check defeats DNS rebinding. The Origin and Sec-Fetch-Site checks
// keep other local pages from riding on the session, except for plain
// top-level navigations such as the one leaving the splash screen.
func (s *Service) checkSender(r *http.Request) error {
	if s.listener == nil || !strings.EqualFold(r.Host, s.listener.Addr().String()) {
		return errForeignHost
	}
	if origin := r.Header.Get("Origin"); origin != "" && !strings.EqualFold(origin, s.base) {
		return errForeignOrigin
	}
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
		return nil
	}
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		return nil
	}
	return errCrossSite
}
