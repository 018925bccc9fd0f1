package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/OpenNHP/opennhp/nhp/log"
)

var errUnsupported = errors.New("not supported on this operating system")

type Manager struct {
	handler Handler
	exe     string
}

// NewManager creates the handler of the current OS for the given
// executable. An empty exe means the running executable.
func NewManager(exe string) *Manager {
	if exe == "" {
		exe = executable()
	}
	return &Manager{handler: newHandler(), exe: exe}
}

func executable() string {
	exe, err := os.Executable()
	if err != nil {
		log.Warning("get executable path fail: %v", err)
		return os.Args[0]
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe
}

func (m *Manager) Executable() string {
	return m.exe
}

func (m *Manager) RegisterScheme(scheme string) bool {
	log.Debug("start register %s:// url scheme...", scheme)
	if err := m.handler.RegisterScheme(scheme, m.exe); err != nil {
		log.Error("register url scheme %s fail: %v", scheme, err)
		return false
	}
	log.Info("registered url scheme %s:// for %s", scheme, m.exe)
	return true
}

func (m *Manager) SetLoginItem(enabled bool) error {
	if err := m.handler.SetLoginItem(enabled, m.exe); err != nil {
		return err
	}
	log.Info("launch at login set to %v", enabled)
	return nil
}

func (m *Manager) SetJumpList(tasks []Task) bool {
	if err := m.handler.SetJumpList(tasks, m.exe); err != nil {
		if errors.Is(err, errUnsupported) {
			log.Debug("jump list: %v", err)
			return false
		}
		log.Error("set jump list fail: %v", err)
		return false
	}
	log.Debug("jump list set with %d tasks", len(tasks))
	return true
}

// RegisterAll performs every registration that is safe to repeat on each start.
func (m *Manager) RegisterAll(scheme string) {
	m.RegisterScheme(scheme)
	m.SetJumpList(DefaultTasks(scheme))
}
