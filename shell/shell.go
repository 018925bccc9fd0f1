package shell

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/OpenNHP/opennhp/nhp/log"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/cookies"
	"github.com/drivedesk/DriveDesk/display"
)

// Window is the native application window as seen by the shell. It is
// implemented on top of the GUI framework runtime.
type Window interface {
	Show()
	Hide()
	IsMinimised() bool
	Unminimise()
	Focus()
	Bounds() display.Rect
	SetBounds(r display.Rect)
	Navigate(url string)
	Quit()
}

// KV is the persistent key-value store used for window bounds and flags.
type KV interface {
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
	Delete(key string) error
}

// URLMapper translates a remote page URL to the URL the window loads.
type URLMapper interface {
	LocalURL(remote string) (string, bool)
}

type Options struct {
	Store          KV
	Persister      *cookies.Persister
	Displays       display.Provider
	DefaultSize    display.Size
	Scheme         string
	HomeURL        string
	Mapper         URLMapper
	AuthCookieName string
	PrimaryDomain  string
	LaunchAtLogin  bool
	// LoginItem registers (or removes) the application as a login item.
	LoginItem func(enabled bool) error
}

// App holds the application state shared by the window, the tray and the
// cookie store. The window is nil before the GUI has started and after it
// has shut down.
type App struct {
	opts Options

	mu        sync.Mutex
	win       Window
	visible   bool
	quitting  bool
	loginDone bool

	dispatch func(func())
}

func New(opts Options) *App {
	if opts.AuthCookieName == "" {
		opts.AuthCookieName = common.AuthCookieName
	}
	if opts.Scheme == "" {
		opts.Scheme = common.DefaultScheme
	}
	return &App{
		opts:     opts,
		dispatch: func(fn func()) { go fn() },
	}
}

// Attach binds the window once the GUI is up. The window starts visible.
func (a *App) Attach(w Window) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.win = w
	a.visible = w != nil
}

// Detach forgets the window on shutdown.
func (a *App) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.win = nil
	a.visible = false
}

func (a *App) window() Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.win
}

func (a *App) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

func (a *App) Quitting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quitting
}

// BeforeClose handles the window close button. Unless a quit was requested
// the window is hidden to the tray and the close is prevented.
func (a *App) BeforeClose() bool {
	a.mu.Lock()
	w, quitting := a.win, a.quitting
	a.mu.Unlock()

	if quitting || w == nil {
		return false
	}
	a.SaveBounds()
	w.Hide()
	a.setVisible(false)
	log.Debug("window hidden to tray")
	return true
}

// ToggleVisible is the tray icon click: hide a visible window, show a hidden one.
func (a *App) ToggleVisible() {
	w := a.window()
	if w == nil {
		log.Debug("tray click ignored, no window")
		return
	}
	if a.Visible() {
		a.SaveBounds()
		w.Hide()
		a.setVisible(false)
		return
	}
	a.Show()
}

// Show restores, shows and focuses the window.
func (a *App) Show() {
	w := a.window()
	if w == nil {
		log.Debug("show ignored, no window")
		return
	}
	if w.IsMinimised() {
		w.Unminimise()
	}
	w.Show()
	w.Focus()
	a.setVisible(true)
}

// SecondInstance activates the running window when the application is
// launched again. A URL of the application scheme in args navigates the
// window to the page it names.
func (a *App) SecondInstance(args []string) {
	w := a.window()
	if w == nil {
		log.Warning("second instance launched before the window is ready")
		return
	}
	if w.IsMinimised() {
		w.Unminimise()
	}
	if !a.Visible() {
		w.Show()
		a.setVisible(true)
	}
	w.Focus()

	for _, arg := range args {
		target, ok := a.SchemeTarget(arg)
		if !ok {
			continue
		}
		log.Info("navigating to %s for %s", target, arg)
		w.Navigate(target)
		return
	}
}

// SchemeTarget maps "<scheme>://open/<path>" to the URL of <path> on the
// primary host.
func (a *App) SchemeTarget(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Scheme, a.opts.Scheme) {
		return "", false
	}
	if !strings.EqualFold(u.Host, "open") {
		return "", false
	}
	home, err := url.Parse(a.opts.HomeURL)
	if err != nil || home.Host == "" {
		return "", false
	}

	remote := *home
	if p := strings.TrimLeft(u.EscapedPath(), "/"); p != "" {
		remote = url.URL{Scheme: home.Scheme, Host: home.Host}
		ref, err := url.Parse("/" + p)
		if err != nil {
			return "", false
		}
		remote.Path, remote.RawPath = ref.Path, ref.RawPath
		remote.RawQuery = u.RawQuery
		remote.Fragment = u.Fragment
	}

	if a.opts.Mapper == nil {
		return remote.String(), true
	}
	return a.opts.Mapper.LocalURL(remote.String())
}

// Quit saves state and exits the GUI loop.
func (a *App) Quit() {
	a.mu.Lock()
	a.quitting = true
	w := a.win
	a.mu.Unlock()

	if w != nil && a.Visible() {
		a.saveBounds(w, false)
	}
	a.FlushCookies()
	if w != nil {
		w.Quit()
	}
}

// FlushCookies writes the shared cookie file now.
func (a *App) FlushCookies() {
	if a.opts.Persister == nil {
		return
	}
	_ = a.opts.Persister.Flush()
}

// RestoreBounds applies the saved window bounds if they are still on an
// attached display.
func (a *App) RestoreBounds(ctx context.Context) (display.Rect, bool) {
	var saved *display.Rect
	if a.opts.Store != nil {
		var r display.Rect
		found, err := a.opts.Store.Get(common.KeyWindowBounds, &r)
		if err != nil {
			log.Warning("load window bounds fail: %v", err)
		} else if found {
			saved = &r
		}
	}

	var displays []display.Rect
	if saved != nil && a.opts.Displays != nil {
		var err error
		displays, err = a.opts.Displays.Displays(ctx)
		if err != nil {
			log.Warning("list displays fail: %v", err)
		}
	}

	rect, ok := display.Fit(saved, displays, a.opts.DefaultSize)
	if !ok {
		if saved != nil {
			log.Info("saved window bounds %+v are off screen, using default size", *saved)
		}
		return rect, false
	}
	if w := a.window(); w != nil {
		w.SetBounds(rect)
	}
	return rect, true
}

// SaveBounds stores the current window bounds in the background.
func (a *App) SaveBounds() {
	w := a.window()
	if w == nil {
		return
	}
	a.saveBounds(w, true)
}

func (a *App) saveBounds(w Window, async bool) {
	if a.opts.Store == nil || w.IsMinimised() {
		return
	}
	r := w.Bounds()
	if r.Empty() {
		return
	}
	put := func() {
		if err := a.opts.Store.Put(common.KeyWindowBounds, r); err != nil {
			log.Warning("save window bounds fail: %v", err)
		}
	}
	if async {
		a.dispatch(put)
		return
	}
	put()
}

// CookieChanged is the jar listener. Tracked cookies schedule a save of the
// shared file; the first sign-in registers the login item.
func (a *App) CookieChanged(ch cookies.Change) {
	p := a.opts.Persister
	if p != nil && p.Tracks(ch.Record.Domain) {
		p.Schedule()
	}

	if ch.Removed || ch.Record.Name != a.opts.AuthCookieName || !a.opts.LaunchAtLogin {
		return
	}
	if a.opts.PrimaryDomain != "" && !cookies.DomainMatches(ch.Record.Domain, a.opts.PrimaryDomain) {
		return
	}

	a.mu.Lock()
	done := a.loginDone
	a.loginDone = true
	a.mu.Unlock()
	if done {
		return
	}
	a.dispatch(a.registerLoginItem)
}

func (a *App) registerLoginItem() {
	if a.opts.LoginItem == nil {
		return
	}
	if a.opts.Store != nil {
		var registered bool
		if found, err := a.opts.Store.Get(common.KeyLoginItemSet, &registered); err == nil && found && registered {
			log.Debug("login item already registered")
			return
		}
	}
	if err := a.opts.LoginItem(true); err != nil {
		log.Warning("register login item fail: %v", err)
		return
	}
	log.Info("registered %s to launch at login", common.AppName)
	if a.opts.Store != nil {
		if err := a.opts.Store.Put(common.KeyLoginItemSet, true); err != nil {
			log.Warning("save login item flag fail: %v", err)
		}
	}
}

func (a *App) setVisible(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.visible = v
}
