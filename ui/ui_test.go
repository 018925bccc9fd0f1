package ui

import (
	"path/filepath"
	"testing"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/drivedesk/DriveDesk/config"
	"github.com/drivedesk/DriveDesk/display"
	"github.com/drivedesk/DriveDesk/shell"
)

func TestNavigateJSQuotes(t *testing.T) {
	got := navigateJS(`http://127.0.0.1:5000/a?b="c"&d=</script>`)
	want := `window.location.replace("http://127.0.0.1:5000/a?b=\"c\"\u0026d=\u003c/script\u003e");`
	if got != want {
		t.Fatalf("navigateJS = %s", got)
	}
}

func TestLayoutScreens(t *testing.T) {
	rects := layoutScreens([]wailsRuntime.Screen{
		{Width: 1280, Height: 1024},
		{IsPrimary: true, Width: 2560, Height: 1440},
		{Width: 0, Height: 0},
	})
	want := []display.Rect{
		{X: 0, Y: 0, Width: 2560, Height: 1440},
		{X: 2560, Y: 0, Width: 1280, Height: 1024},
	}
	if len(rects) != len(want) {
		t.Fatalf("rects = %+v", rects)
	}
	for i := range want {
		if rects[i] != want[i] {
			t.Errorf("rect %d = %+v, want %+v", i, rects[i], want[i])
		}
	}
}

func TestWailsLevel(t *testing.T) {
	tests := map[int]logger.LogLevel{0: logger.ERROR, 1: logger.ERROR, 2: logger.INFO, 3: logger.INFO, 4: logger.DEBUG, 5: logger.TRACE}
	for in, want := range tests {
		if got := wailsLevel(in); got != want {
			t.Errorf("wailsLevel(%d) = %v, want %v", in, got, want)
		}
	}
}

func TestPrimaryHost(t *testing.T) {
	if h := primaryHost("https://www.icloud.com/iclouddrive"); h != "www.icloud.com" {
		t.Fatalf("primaryHost = %q", h)
	}
	if h := primaryHost("::"); h != "" {
		t.Fatalf("primaryHost of garbage = %q", h)
	}
}

func TestCookieFileSealing(t *testing.T) {
	conf := config.Default()
	conf.CookieFile = filepath.Join(t.TempDir(), "cookies.json")
	if f := CookieFile(conf); f.Vault != nil || f.Path != conf.CookieFile {
		t.Fatalf("plain file = %+v", f)
	}
	conf.EncryptCookies = true
	if f := CookieFile(conf); f.Vault == nil {
		t.Fatalf("vault missing with encryption on")
	}
}

func TestSplashStartsLoadOnce(t *testing.T) {
	s := &Splash{}
	if got := s.Status(); got[0] != "connecting" {
		t.Fatalf("initial status %v", got)
	}
	starts := 0
	for i := 0; i < 3; i++ {
		s.ready(func() { starts++ })
	}
	if starts != 1 {
		t.Fatalf("load started %d times", starts)
	}
	s.set("offline", "no route to host")
	if got := s.Status(); got[0] != "offline" || got[1] != "no route to host" {
		t.Fatalf("status after set %v", got)
	}
}

func TestAppMenuQuitsThroughShell(t *testing.T) {
	a := &App{shell: shell.New(shell.Options{})}
	m := createAppMenu(a)

	var quits []*menu.MenuItem
	var walk func(items []*menu.MenuItem)
	walk = func(items []*menu.MenuItem) {
		for _, item := range items {
			if item.Role == menu.AppMenuRole {
				t.Error("stock app menu quits through the close hook")
			}
			if item.Accelerator != nil && item.Accelerator.Key == "q" {
				quits = append(quits, item)
			}
			if item.SubMenu != nil {
				walk(item.SubMenu.Items)
			}
		}
	}
	walk(m.Items)

	if len(quits) != 1 {
		t.Fatalf("%d items bound to Cmd+Q", len(quits))
	}
	quits[0].Click(&menu.CallbackData{MenuItem: quits[0]})
	if !a.shell.Quitting() {
		t.Fatal("Quit did not go through the shell")
	}
}
