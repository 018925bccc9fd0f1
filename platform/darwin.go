//go:build darwin

package platform

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/OpenNHP/opennhp/nhp/log"
	"howett.net/plist"

	"github.com/drivedesk/DriveDesk/common"
)

const lsregister = "/System/Library/Frameworks/CoreServices.framework/Frameworks/LaunchServices.framework/Support/lsregister"

var errNotBundled = errors.New("executable is not inside an .app bundle")

type MacHandler struct {
	agentsDir string
}

func newHandler() Handler {
	return NewMacHandler("")
}

func NewMacHandler(agentsDir string) *MacHandler {
	if agentsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "~"
		}
		agentsDir = filepath.Join(home, "Library", "LaunchAgents")
	}
	return &MacHandler{agentsDir: agentsDir}
}

type launchAgent struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	ProcessType      string   `plist:"ProcessType"`
}

func (h *MacHandler) agentFile() string {
	return filepath.Join(h.agentsDir, common.AppID+".plist")
}

func (h *MacHandler) SetLoginItem(enabled bool, exe string) error {
	file := h.agentFile()
	if !enabled {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove launch agent: %w", err)
		}
		return nil
	}
	data, err := plist.MarshalIndent(launchAgent{
		Label:            common.AppID,
		ProgramArguments: []string{exe},
		RunAtLoad:        true,
		ProcessType:      "Interactive",
	}, plist.XMLFormat, "\t")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(h.agentsDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

// RegisterScheme adds the scheme to CFBundleURLTypes of the enclosing
// bundle's Info.plist and asks LaunchServices to re-read the bundle.
func (h *MacHandler) RegisterScheme(scheme, exe string) error {
	bundle, err := bundleDir(exe)
	if err != nil {
		return err
	}
	infoFile := filepath.Join(bundle, "Contents", "Info.plist")
	if err := addURLScheme(infoFile, scheme); err != nil {
		return err
	}
	if out, err := exec.Command(lsregister, "-f", bundle).CombinedOutput(); err != nil {
		log.Warning("lsregister %s fail: %v, %s", bundle, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SetJumpList has no macOS counterpart without a dock menu.
func (h *MacHandler) SetJumpList(tasks []Task, exe string) error {
	return errUnsupported
}

func bundleDir(exe string) (string, error) {
	dir := filepath.Dir(exe)
	if filepath.Base(dir) != "MacOS" {
		return "", errNotBundled
	}
	contents := filepath.Dir(dir)
	if filepath.Base(contents) != "Contents" {
		return "", errNotBundled
	}
	app := filepath.Dir(contents)
	if filepath.Ext(app) != ".app" {
		return "", errNotBundled
	}
	return app, nil
}

func addURLScheme(infoFile, scheme string) error {
	data, err := os.ReadFile(infoFile)
	if err != nil {
		return err
	}
	var info map[string]interface{}
	format, err := plist.Unmarshal(data, &info)
	if err != nil {
		return fmt.Errorf("parse %s: %w", infoFile, err)
	}
	if !setURLScheme(info, scheme) {
		return nil
	}
	var buf bytes.Buffer
	enc := plist.NewEncoderForFormat(&buf, format)
	if format == plist.XMLFormat {
		enc.Indent("\t")
	}
	if err := enc.Encode(info); err != nil {
		return err
	}
	return os.WriteFile(infoFile, buf.Bytes(), 0o644)
}

// setURLScheme reports whether info was changed.
func setURLScheme(info map[string]interface{}, scheme string) bool {
	types, _ := info["CFBundleURLTypes"].([]interface{})
	for _, t := range types {
		entry, ok := t.(map[string]interface{})
		if !ok {
			continue
		}
		schemes, _ := entry["CFBundleURLSchemes"].([]interface{})
		for _, s := range schemes {
			if str, ok := s.(string); ok && strings.EqualFold(str, scheme) {
				return false
			}
		}
	}
	types = append(types, map[string]interface{}{
		"CFBundleURLName":    common.AppID,
		"CFBundleURLSchemes": []interface{}{scheme},
	})
	info["CFBundleURLTypes"] = types
	return true
}
