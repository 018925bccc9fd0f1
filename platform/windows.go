//go:build windows

package platform

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/drivedesk/DriveDesk/common"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

type WindowsHandler struct {
	root registry.Key
}

func newHandler() Handler {
	return &WindowsHandler{root: registry.CURRENT_USER}
}

// RegisterScheme writes HKCU\Software\Classes\<scheme> so the shell starts
// the executable with the URL as its argument.
func (h *WindowsHandler) RegisterScheme(scheme, exe string) error {
	base := `Software\Classes\` + scheme
	values := []struct {
		path, name, value string
	}{
		{base, "", "URL:" + common.AppName + " Protocol"},
		{base, "URL Protocol", ""},
		{base + `\DefaultIcon`, "", `"` + exe + `",0`},
		{base + `\shell\open\command`, "", `"` + exe + `" "%1"`},
	}
	for _, v := range values {
		if err := h.setString(v.path, v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}

func (h *WindowsHandler) SetLoginItem(enabled bool, exe string) error {
	if enabled {
		return h.setString(runKey, common.AppName, `"`+exe+`"`)
	}
	k, err := registry.OpenKey(h.root, runKey, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return err
	}
	defer k.Close()
	if err := k.DeleteValue(common.AppName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("delete run value: %w", err)
	}
	return nil
}

func (h *WindowsHandler) SetJumpList(tasks []Task, exe string) error {
	return setJumpList(tasks, exe)
}

func (h *WindowsHandler) setString(path, name, value string) error {
	k, _, err := registry.CreateKey(h.root, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create registry key %s: %w", path, err)
	}
	defer k.Close()
	if err := k.SetStringValue(name, value); err != nil {
		return fmt.Errorf("set registry value %s\\%s: %w", path, name, err)
	}
	return nil
}
