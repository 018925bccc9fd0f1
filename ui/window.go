package ui

import (
	"context"
	"encoding/json"
	"fmt"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/drivedesk/DriveDesk/display"
)

// window adapts the wails runtime to shell.Window.
type window struct {
	ctx context.Context
}

func (w *window) Show() {
	wailsRuntime.WindowShow(w.ctx)
}

func (w *window) Hide() {
	wailsRuntime.WindowHide(w.ctx)
}

func (w *window) IsMinimised() bool {
	return wailsRuntime.WindowIsMinimised(w.ctx)
}

func (w *window) Unminimise() {
	wailsRuntime.WindowUnminimise(w.ctx)
}

// Focus raises the window above others; toggling always-on-top is the
// portable way to take focus with wails.
func (w *window) Focus() {
	wailsRuntime.WindowSetAlwaysOnTop(w.ctx, true)
	wailsRuntime.WindowSetAlwaysOnTop(w.ctx, false)
}

func (w *window) Bounds() display.Rect {
	x, y := wailsRuntime.WindowGetPosition(w.ctx)
	width, height := wailsRuntime.WindowGetSize(w.ctx)
	return display.Rect{X: x, Y: y, Width: width, Height: height}
}

func (w *window) SetBounds(r display.Rect) {
	wailsRuntime.WindowSetSize(w.ctx, r.Width, r.Height)
	wailsRuntime.WindowSetPosition(w.ctx, r.X, r.Y)
}

func (w *window) Navigate(url string) {
	wailsRuntime.WindowExecJS(w.ctx, navigateJS(url))
}

func (w *window) Quit() {
	wailsRuntime.Quit(w.ctx)
}

func navigateJS(url string) string {
	quoted, _ := json.Marshal(url)
	return fmt.Sprintf("window.location.replace(%s);", quoted)
}
