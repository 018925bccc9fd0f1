package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/wailsapp/wails/v2/pkg/options"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/config"
	"github.com/drivedesk/DriveDesk/cookies"
	"github.com/drivedesk/DriveDesk/display"
	"github.com/drivedesk/DriveDesk/logging"
	"github.com/drivedesk/DriveDesk/netcheck"
	"github.com/drivedesk/DriveDesk/platform"
	"github.com/drivedesk/DriveDesk/proxy"
	"github.com/drivedesk/DriveDesk/shell"
	"github.com/drivedesk/DriveDesk/store"
	"github.com/drivedesk/DriveDesk/tray"
	"github.com/drivedesk/DriveDesk/update"
	"github.com/drivedesk/DriveDesk/version"
)

const (
	eventStatus       = "drive:status"
	firstUpdateDelay  = 30 * time.Second
	netcheckInterval  = 3 * time.Second
	restoreBoundsWait = 5 * time.Second
)

// App wires the window, tray, page proxy and cookie store together. The
// wails lifecycle hooks are its methods.
type App struct {
	ctx    context.Context
	ctxMu  sync.RWMutex
	bg     context.Context
	cancel context.CancelFunc
	splash *Splash

	conf      *config.Manager
	store     *store.Store
	jar       *cookies.Jar
	persister *cookies.Persister
	proxy     *proxy.Service
	shell     *shell.App
	tray      *tray.Manager
	platform  *platform.Manager
	checker   *update.Checker
	prober    *netcheck.Prober

	launchArgs []string
}

// NewApp restores the session and starts the page proxy. Nothing is shown
// until Run hands the app to wails.
func NewApp(conf *config.Manager, st *store.Store, launchArgs []string) (*App, error) {
	c := conf.Get()
	a := &App{
		conf:       conf,
		store:      st,
		platform:   platform.NewManager(""),
		checker:    update.NewChecker(c.UpdateURL, version.Version),
		prober:     netcheck.NewProber(c.DNSServer),
		splash:     &Splash{},
		launchArgs: launchArgs,
	}
	a.checker.UserAgent = common.AppName + "/" + version.Version

	a.jar, a.persister = NewSession(c)
	a.persister.Restore(context.Background())

	p, err := proxy.NewService(proxy.Options{
		StartURL:       c.StartURL,
		UserAgent:      c.UserAgent,
		Locale:         c.Locale,
		TrackedDomains: c.TrackedDomains,
		Jar:            a.jar,
		Opener:         proxy.OpenerFunc(a.openExternal),
	})
	if err != nil {
		return nil, err
	}
	if err := p.Start(); err != nil {
		return nil, err
	}
	a.proxy = p

	a.shell = shell.New(shell.Options{
		Store:          st,
		Persister:      a.persister,
		Displays:       display.Chain{display.System(), screenProvider{ctx: a.context}},
		DefaultSize:    display.Size{Width: c.Width, Height: c.Height},
		Scheme:         c.URLScheme,
		HomeURL:        c.StartURL,
		Mapper:         p,
		AuthCookieName: c.AuthCookieName,
		PrimaryDomain:  c.PrimaryDomain(),
		LaunchAtLogin:  c.LaunchAtLogin,
		LoginItem:      a.platform.SetLoginItem,
	})
	// registered after the restore so restored cookies do not count as a sign-in
	a.jar.OnChange(a.shell.CookieChanged)

	a.tray = tray.NewManager(trayIcon, tray.Actions{
		Toggle:      a.shell.ToggleVisible,
		Show:        a.shell.Show,
		CheckUpdate: func() { go a.checkUpdateNow() },
		Quit:        a.shell.Quit,
	})

	conf.OnChange(a.configChanged)
	return a, nil
}

func (a *App) context() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	return a.ctx
}

// startup is called when the application starts
func (a *App) startup(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()

	bg, cancel := context.WithCancel(context.Background())
	a.bg, a.cancel = bg, cancel

	a.shell.Attach(&window{ctx: ctx})
	restoreCtx, done := context.WithTimeout(bg, restoreBoundsWait)
	a.shell.RestoreBounds(restoreCtx)
	done()

	a.tray.Run()

	c := a.conf.Get()
	go a.platform.RegisterAll(c.URLScheme)
	if c.CheckUpdates {
		go a.checker.Run(bg, firstUpdateDelay, c.UpdateInterval(), a.promptUpdate)
	}
	log.Info("%s %s started", common.AppName, version.String())
}

// load waits for the network behind the splash screen, then moves the
// window onto the page proxy.
func (a *App) load(ctx context.Context, c config.Config) {
	target, err := a.proxy.StartURL()
	if err != nil {
		log.Error("page proxy not ready: %v", err)
		return
	}
	for _, arg := range a.launchArgs {
		if t, ok := a.shell.SchemeTarget(arg); ok {
			target = t
			break
		}
	}

	if c.Splash {
		host := primaryHost(c.StartURL)
		err := a.prober.Wait(ctx, host, netcheckInterval, func(err error) {
			a.emitStatus("offline", err.Error())
			a.tray.SetTooltip(common.AppName + " (offline)")
		})
		if err != nil {
			return
		}
		a.tray.SetTooltip(common.AppName)
		a.emitStatus("loading", "")
	}

	log.Info("loading %s", target)
	if ctx := a.context(); ctx != nil {
		wailsRuntime.WindowExecJS(ctx, navigateJS(target))
	}
}

func primaryHost(startURL string) string {
	u, err := url.Parse(startURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (a *App) emitStatus(state, detail string) {
	a.splash.set(state, detail)
	if ctx := a.context(); ctx != nil {
		wailsRuntime.EventsEmit(ctx, eventStatus, state, detail)
	}
}

// onDomReady is called when the DOM is ready. The first one is the splash
// page, which is only then able to receive status events and be navigated.
func (a *App) onDomReady(ctx context.Context) {
	log.Debug("DOM ready")
	a.splash.ready(func() {
		go a.load(a.bg, a.conf.Get())
	})
}

// beforeClose hides to the tray unless a quit was requested.
func (a *App) beforeClose(ctx context.Context) bool {
	return a.shell.BeforeClose()
}

func (a *App) onSecondInstanceLaunch(data options.SecondInstanceData) {
	log.Info("second instance launched with %v", data.Args)
	a.shell.SecondInstance(data.Args)
}

// shutdown is called when the application closes
func (a *App) shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.shell.FlushCookies()
	a.shell.Detach()
	a.tray.Stop()
	a.proxy.Stop()
	a.conf.StopWatch()

	a.ctxMu.Lock()
	a.ctx = nil
	a.ctxMu.Unlock()
	log.Info("%s closed", common.AppName)
}

func (a *App) openExternal(u string) {
	ctx := a.context()
	if ctx == nil {
		log.Warning("cannot open %s, window not ready", u)
		return
	}
	wailsRuntime.BrowserOpenURL(ctx, u)
}

func (a *App) configChanged(old, cur config.Config) {
	if old.LogLevel != cur.LogLevel {
		logging.SetLevel(cur.LogLevel)
		log.Info("log level changed to %d", cur.LogLevel)
	}
	if old.UserAgent != cur.UserAgent {
		a.proxy.SetUserAgent(cur.UserAgent)
		log.Info("user agent changed")
	}
	if old.Locale != cur.Locale {
		a.proxy.SetLocale(cur.Locale)
	}
	if strings.Join(old.TrackedDomains, ",") != strings.Join(cur.TrackedDomains, ",") || old.StartURL != cur.StartURL {
		log.Warning("StartURL and TrackedDomains changes take effect after a restart")
	}
}

func (a *App) promptUpdate(r update.Result) {
	ctx := a.context()
	if ctx == nil || !r.Available {
		return
	}
	choice, err := wailsRuntime.MessageDialog(ctx, wailsRuntime.MessageDialogOptions{
		Type:          wailsRuntime.QuestionDialog,
		Title:         "Update available",
		Message:       fmt.Sprintf("%s %s is available (you have %s). Download it now?", common.AppName, r.Latest, r.Current),
		Buttons:       []string{"Download", "Later"},
		DefaultButton: "Download",
		CancelButton:  "Later",
	})
	if err != nil {
		log.Warning("update dialog fail: %v", err)
		return
	}
	if choice == "Download" || choice == "Yes" {
		wailsRuntime.BrowserOpenURL(ctx, r.Release.HTMLURL)
	}
}

// checkUpdateNow is the tray menu entry; unlike the background check it
// also reports when no update exists.
func (a *App) checkUpdateNow() {
	ctx := a.context()
	if ctx == nil {
		return
	}
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	r, err := a.checker.Check(checkCtx)
	if err != nil {
		log.Warning("update check fail: %v", err)
		_, _ = wailsRuntime.MessageDialog(ctx, wailsRuntime.MessageDialogOptions{
			Type:    wailsRuntime.WarningDialog,
			Title:   "Check for Updates",
			Message: "Could not reach the update server.",
		})
		return
	}
	if r.Available {
		a.promptUpdate(r)
		return
	}
	_, _ = wailsRuntime.MessageDialog(ctx, wailsRuntime.MessageDialogOptions{
		Type:    wailsRuntime.InfoDialog,
		Title:   "Check for Updates",
		Message: fmt.Sprintf("%s %s is the latest version.", common.AppName, r.Current),
	})
}

// Quit requests a full exit, e.g. on SIGTERM.
func (a *App) Quit() {
	if a.context() == nil {
		a.shell.FlushCookies()
		return
	}
	a.shell.Quit()
}
