package proxy

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/OpenNHP/opennhp/nhp/log"

	"github.com/drivedesk/DriveDesk/common"
)

func (s *Service) serveControl(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case common.ProxyHealthPath:
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	case common.ProxyOpenPath:
		s.serveOpen(w, r)
	default:
		http.NotFound(w, r)
	}
}

// serveOpen implements the page's new-window requests: the target is shown
// in the system browser, never inside the application window.
func (s *Service) serveOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	token := r.URL.Query().Get("t")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" || target == common.BlockedPopupURL {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	target = s.RemoteURL(target)
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "mailto") {
		log.Warning("refusing to open %q externally", target)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if s.opener != nil {
		log.Info("opening %s in the system browser", target)
		s.opener.OpenURL(target)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Token is the per-session secret the injected page hook sends with control requests.
func (s *Service) Token() string {
	return s.token
}
