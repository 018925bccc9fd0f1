//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/go-ini/ini"

	"github.com/drivedesk/DriveDesk/common"
)

const (
	desktopEntry  = "Desktop Entry"
	actionPrefix  = "Desktop Action "
	desktopFileID = "drivedesk.desktop"
)

func init() {
	// desktop files want "Key=Value"
	ini.PrettyFormat = false
}

type LinuxHandler struct {
	appsDir      string
	autostartDir string
	run          func(name string, args ...string) error
}

func newHandler() Handler {
	return NewLinuxHandler("", "")
}

// NewLinuxHandler writes desktop files under the XDG data and config
// homes unless other directories are given.
func NewLinuxHandler(appsDir, autostartDir string) *LinuxHandler {
	if appsDir == "" {
		appsDir = filepath.Join(xdgDir("XDG_DATA_HOME", ".local/share"), "applications")
	}
	if autostartDir == "" {
		autostartDir = filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "autostart")
	}
	return &LinuxHandler{
		appsDir:      appsDir,
		autostartDir: autostartDir,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

func (h *LinuxHandler) desktopFile() string {
	return filepath.Join(h.appsDir, desktopFileID)
}

func (h *LinuxHandler) autostartFile() string {
	return filepath.Join(h.autostartDir, desktopFileID)
}

func (h *LinuxHandler) RegisterScheme(scheme, exe string) error {
	mime := "x-scheme-handler/" + scheme
	err := h.editDesktopFile(exe, func(cfg *ini.File) {
		entry := cfg.Section(desktopEntry)
		entry.Key("Exec").SetValue(execLine(exe, "%u"))
		entry.Key("MimeType").SetValue(addListItem(entry.Key("MimeType").String(), mime))
	})
	if err != nil {
		return err
	}
	if err := h.run("xdg-mime", "default", desktopFileID, mime); err != nil {
		log.Warning("xdg-mime default %s fail: %v", mime, err)
	}
	if err := h.run("update-desktop-database", h.appsDir); err != nil {
		log.Debug("update-desktop-database fail: %v", err)
	}
	return nil
}

func (h *LinuxHandler) SetLoginItem(enabled bool, exe string) error {
	file := h.autostartFile()
	if !enabled {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove autostart entry: %w", err)
		}
		return nil
	}
	cfg := newDesktopConfig()
	entry := cfg.Section(desktopEntry)
	fillEntry(entry, exe)
	entry.Key("Exec").SetValue(execLine(exe))
	entry.Key("X-GNOME-Autostart-enabled").SetValue("true")
	return saveDesktop(cfg, file)
}

// SetJumpList writes the tasks as desktop actions of the application entry.
func (h *LinuxHandler) SetJumpList(tasks []Task, exe string) error {
	return h.editDesktopFile(exe, func(cfg *ini.File) {
		for _, name := range cfg.SectionStrings() {
			if strings.HasPrefix(name, actionPrefix) {
				cfg.DeleteSection(name)
			}
		}
		ids := make([]string, 0, len(tasks))
		for _, t := range tasks {
			sec := cfg.Section(actionPrefix + t.ID)
			sec.Key("Name").SetValue(t.Title)
			sec.Key("Exec").SetValue(execLine(exe, t.Arguments))
			ids = append(ids, t.ID)
		}
		entry := cfg.Section(desktopEntry)
		if len(ids) == 0 {
			entry.DeleteKey("Actions")
			return
		}
		entry.Key("Actions").SetValue(strings.Join(ids, ";") + ";")
	})
}

func (h *LinuxHandler) editDesktopFile(exe string, edit func(cfg *ini.File)) error {
	file := h.desktopFile()
	cfg, err := ini.LoadSources(desktopLoadOptions(), file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warning("desktop file %s unreadable, rewriting: %v", file, err)
		}
		cfg = newDesktopConfig()
	}
	entry := cfg.Section(desktopEntry)
	fillEntry(entry, exe)
	if !entry.HasKey("Exec") {
		entry.Key("Exec").SetValue(execLine(exe, "%u"))
	}
	edit(cfg)
	return saveDesktop(cfg, file)
}

func desktopLoadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
	}
}

func newDesktopConfig() *ini.File {
	return ini.Empty(desktopLoadOptions())
}

func fillEntry(entry *ini.Section, exe string) {
	entry.Key("Type").SetValue("Application")
	entry.Key("Name").SetValue(common.AppName)
	entry.Key("Comment").SetValue("iCloud Drive in its own window")
	entry.Key("Icon").SetValue(strings.ToLower(common.AppName))
	entry.Key("Terminal").SetValue("false")
	entry.Key("Categories").SetValue("Network;FileTransfer;")
	entry.Key("StartupWMClass").SetValue(common.AppName)
	entry.Key("TryExec").SetValue(exe)
}

func saveDesktop(cfg *ini.File, file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	if err := cfg.SaveTo(file); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}

// execLine quotes the executable for an Exec key.
func execLine(exe string, args ...string) string {
	parts := []string{quoteExec(exe)}
	for _, a := range args {
		if a != "" {
			parts = append(parts, quoteExec(a))
		}
	}
	return strings.Join(parts, " ")
}

func quoteExec(s string) string {
	if s == "%u" || !strings.ContainsAny(s, " \t\"'\\`$<>~|&;*?#()") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

func addListItem(list, item string) string {
	for _, v := range strings.Split(list, ";") {
		if v == item {
			return list
		}
	}
	list = strings.TrimSuffix(list, ";")
	if list != "" {
		list += ";"
	}
	return list + item + ";"
}
