package tray

import (
	"sync"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/energye/systray"

	"github.com/drivedesk/DriveDesk/common"
)

// Actions are the handlers behind the tray icon and its menu.
type Actions struct {
	Toggle      func()
	Show        func()
	CheckUpdate func()
	Quit        func()
}

// Item is one entry of the tray menu. A zero Title is a separator.
type Item struct {
	Title   string
	Tooltip string
	OnClick func()
}

// MenuItems lists the context menu in display order.
func MenuItems(name string, a Actions) []Item {
	return []Item{
		{Title: "Show " + name, Tooltip: "Show the " + name + " window", OnClick: a.Show},
		{Title: "Check for Updates…", Tooltip: "Look for a newer release", OnClick: a.CheckUpdate},
		{},
		{Title: "Quit", Tooltip: "Quit " + name, OnClick: a.Quit},
	}
}

// Manager owns the system tray icon. It runs on its own loop next to the
// GUI framework's loop.
type Manager struct {
	icon    []byte
	tooltip string
	actions Actions

	mu      sync.Mutex
	end     func()
	running bool
}

func NewManager(icon []byte, actions Actions) *Manager {
	return &Manager{
		icon:    icon,
		tooltip: common.AppName,
		actions: actions,
	}
}

// Run starts the tray loop without blocking.
func (t *Manager) Run() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	start, end := systray.RunWithExternalLoop(t.onReady, t.onExit)
	t.end = end
	t.running = true
	start()
}

func (t *Manager) onReady() {
	if len(t.icon) > 0 {
		systray.SetIcon(t.icon)
	}
	systray.SetTooltip(t.tooltip)

	systray.SetOnClick(func(menu systray.IMenu) {
		safe("toggle", t.actions.Toggle)
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		if err := menu.ShowMenu(); err != nil {
			log.Debug("tray show menu fail: %v", err)
		}
	})

	for _, item := range MenuItems(common.AppName, t.actions) {
		if item.Title == "" {
			systray.AddSeparator()
			continue
		}
		mi := systray.AddMenuItem(item.Title, item.Tooltip)
		title, fn := item.Title, item.OnClick
		mi.Click(func() {
			safe(title, fn)
		})
	}
	log.Info("tray icon ready")
}

func (t *Manager) onExit() {
	log.Debug("tray loop exited")
}

// SetTooltip updates the hover text, e.g. while offline.
func (t *Manager) SetTooltip(text string) {
	t.mu.Lock()
	t.tooltip = text
	running := t.running
	t.mu.Unlock()
	if running {
		systray.SetTooltip(text)
	}
}

func (t *Manager) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	if t.end != nil {
		t.end()
	}
	systray.Quit()
}

func safe(name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("tray action %q panicked: %v", name, r)
		}
	}()
	fn()
}
