//go:build darwin

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"

	"github.com/drivedesk/DriveDesk/common"
)

func TestMacLoginItem(t *testing.T) {
	h := NewMacHandler(t.TempDir())
	if err := h.SetLoginItem(true, "/Applications/DriveDesk.app/Contents/MacOS/DriveDesk"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(h.agentFile())
	if err != nil {
		t.Fatal(err)
	}
	var agent launchAgent
	if _, err := plist.Unmarshal(data, &agent); err != nil {
		t.Fatal(err)
	}
	if agent.Label != common.AppID || !agent.RunAtLoad || len(agent.ProgramArguments) != 1 {
		t.Fatalf("agent = %+v", agent)
	}
	if err := h.SetLoginItem(false, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(h.agentFile()); !os.IsNotExist(err) {
		t.Fatalf("agent not removed")
	}
}

func TestAddURLScheme(t *testing.T) {
	file := filepath.Join(t.TempDir(), "Info.plist")
	data, _ := plist.Marshal(map[string]interface{}{"CFBundleIdentifier": common.AppID}, plist.XMLFormat)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := addURLScheme(file, "iclouddrive"); err != nil {
			t.Fatal(err)
		}
	}
	data, _ = os.ReadFile(file)
	var info map[string]interface{}
	if _, err := plist.Unmarshal(data, &info); err != nil {
		t.Fatal(err)
	}
	types, _ := info["CFBundleURLTypes"].([]interface{})
	if len(types) != 1 {
		t.Fatalf("CFBundleURLTypes = %v", info["CFBundleURLTypes"])
	}
	if info["CFBundleIdentifier"] != common.AppID {
		t.Fatalf("existing keys lost")
	}
}

func TestBundleDir(t *testing.T) {
	if dir, err := bundleDir("/Applications/DriveDesk.app/Contents/MacOS/DriveDesk"); err != nil || dir != "/Applications/DriveDesk.app" {
		t.Fatalf("bundleDir = %q %v", dir, err)
	}
	if _, err := bundleDir("/usr/local/bin/drivedesk"); err == nil {
		t.Fatalf("loose binary treated as bundle")
	}
}
