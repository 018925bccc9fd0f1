package ui

import (
	"embed"
	"runtime"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/version"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/appicon.png
var icon []byte

// Run shows the window and blocks until the application quits. A second
// launch hands its arguments to the running instance and returns.
func Run(app *App) error {
	c := app.conf.Get()

	opts := &options.App{
		Title:     common.AppName,
		Width:     c.Width,
		Height:    c.Height,
		MinWidth:  common.MinWidth,
		MinHeight: common.MinHeight,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		OnDomReady:       app.onDomReady,
		OnBeforeClose:    app.beforeClose,
		Bind:             []interface{}{app.splash},
		Logger:           wailsLogger{},
		LogLevel:         wailsLevel(c.LogLevel),
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               common.AppID,
			OnSecondInstanceLaunch: app.onSecondInstanceLaunch,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
		Mac: &mac.Options{
			TitleBar: mac.TitleBarDefault(),
			About: &mac.AboutInfo{
				Title:   common.AppName,
				Message: aboutText(),
				Icon:    icon,
			},
		},
		Linux: &linux.Options{
			Icon:                icon,
			WindowIsTranslucent: false,
			ProgramName:         common.AppName,
		},
	}
	// Other platforms keep the page chrome-free, like the page in a browser tab.
	if runtime.GOOS == "darwin" {
		opts.Menu = createAppMenu(app)
	}
	return wails.Run(opts)
}

// createAppMenu creates the macOS application menu, which also carries the
// clipboard shortcuts of the page. The app submenu is built by hand because
// the stock one quits through the close hook, which only hides the window.
func createAppMenu(app *App) *menu.Menu {
	appMenu := menu.NewMenu()

	appSub := appMenu.AddSubmenu(common.AppName)
	appSub.AddText("About "+common.AppName, nil, func(cd *menu.CallbackData) {
		app.showAbout()
	})
	appSub.AddSeparator()
	appSub.AddText("Hide "+common.AppName, keys.CmdOrCtrl("h"), func(cd *menu.CallbackData) {
		app.shell.BeforeClose()
	})
	appSub.AddSeparator()
	appSub.AddText("Quit "+common.AppName, keys.CmdOrCtrl("q"), func(cd *menu.CallbackData) {
		app.shell.Quit()
	})

	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Show Window", keys.CmdOrCtrl("0"), func(cd *menu.CallbackData) {
		app.shell.Show()
	})
	fileMenu.AddText("Reload", keys.CmdOrCtrl("r"), func(cd *menu.CallbackData) {
		if ctx := app.context(); ctx != nil {
			wailsRuntime.WindowExecJS(ctx, "window.location.reload();")
		}
	})
	fileMenu.AddText("Close Window", keys.CmdOrCtrl("w"), func(cd *menu.CallbackData) {
		app.shell.BeforeClose()
	})

	appMenu.Append(menu.EditMenu())
	appMenu.Append(menu.WindowMenu())
	return appMenu
}

func (a *App) showAbout() {
	ctx := a.context()
	if ctx == nil {
		return
	}
	_, _ = wailsRuntime.MessageDialog(ctx, wailsRuntime.MessageDialogOptions{
		Type:    wailsRuntime.InfoDialog,
		Title:   common.AppName,
		Message: aboutText(),
		Icon:    icon,
	})
}

func aboutText() string {
	return "iCloud Drive in its own window\nVersion " + version.Detail()
}
