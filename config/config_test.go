package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drivedesk/DriveDesk/common"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		DataDir:    filepath.Join(dir, "data"),
		SharedDir:  filepath.Join(dir, "shared"),
		ConfigFile: filepath.Join(dir, "data", "config.toml"),
		StateFile:  filepath.Join(dir, "data", "state.db"),
		LogDir:     filepath.Join(dir, "data", "logs"),
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	paths := testPaths(t)
	m := NewManager(paths)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	defer m.StopWatch()

	c := m.Get()
	if c.StartURL != common.DefaultStartURL || c.UserAgent != common.DefaultUserAgent {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.CookieFile != paths.DefaultCookieFile() {
		t.Fatalf("CookieFile = %q", c.CookieFile)
	}
	if c.PrimaryDomain() != ".icloud.com" {
		t.Fatalf("PrimaryDomain = %q", c.PrimaryDomain())
	}
	saved, err := os.ReadFile(paths.ConfigFile)
	if err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
	if parsed, err := Parse(saved); err != nil || parsed.StartURL != common.DefaultStartURL {
		t.Fatalf("written defaults unreadable: %v", err)
	}
}

func TestReloadsEditedFile(t *testing.T) {
	paths := testPaths(t)
	m := NewManager(paths)
	changed := make(chan Config, 16)
	m.OnChange(func(old, cur Config) {
		select {
		case changed <- cur:
		default:
		}
	})
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	defer m.StopWatch()

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		// rewritten on every tick in case the first write raced the watcher setup
		if err := os.WriteFile(paths.ConfigFile, []byte("UserAgent = \"Edited/1.0\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case cur := <-changed:
			if cur.UserAgent == "Edited/1.0" && m.Get().UserAgent == "Edited/1.0" {
				return
			}
		case <-tick.C:
		case <-deadline:
			t.Fatal("edit of config.toml not picked up")
		}
	}
}

func TestParseOverridesAndFills(t *testing.T) {
	c, err := Parse([]byte(`
UserAgent = "Custom/1.0"
URLScheme = "MyDrive://"
TrackedDomains = [".example.com"]
Width = 100
UpdateIntervalHours = 6
Unknown = "ignored"
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.UserAgent != "Custom/1.0" {
		t.Errorf("UserAgent = %q", c.UserAgent)
	}
	if c.URLScheme != "mydrive" {
		t.Errorf("URLScheme = %q", c.URLScheme)
	}
	if len(c.TrackedDomains) != 1 || c.TrackedDomains[0] != ".example.com" {
		t.Errorf("TrackedDomains = %v", c.TrackedDomains)
	}
	if c.Width != common.DefaultWidth {
		t.Errorf("Width below minimum kept: %d", c.Width)
	}
	if c.UpdateInterval() != 6*time.Hour {
		t.Errorf("UpdateInterval = %v", c.UpdateInterval())
	}
	if c.StartURL != common.DefaultStartURL {
		t.Errorf("StartURL = %q", c.StartURL)
	}
}

func TestParseRejectsBadToml(t *testing.T) {
	if _, err := Parse([]byte("Width = [")); err == nil {
		t.Fatal("bad toml accepted")
	}
}

func TestSaveThenLoad(t *testing.T) {
	paths := testPaths(t)
	m := NewManager(paths)
	conf := Default()
	conf.UserAgent = "Saved/2.0"
	conf.LogLevel = 4
	conf.CookieFile = filepath.Join(paths.SharedDir, "other.json")
	if err := m.Save(conf); err != nil {
		t.Fatal(err)
	}

	var changes int
	m.OnChange(func(old, cur Config) {
		changes++
		if old.UserAgent != common.DefaultUserAgent || cur.UserAgent != "Saved/2.0" {
			t.Errorf("change %q -> %q", old.UserAgent, cur.UserAgent)
		}
	})
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	defer m.StopWatch()

	c := m.Get()
	if c.UserAgent != "Saved/2.0" || c.LogLevel != 4 || c.CookieFile != conf.CookieFile {
		t.Fatalf("loaded %+v", c)
	}
	if changes != 1 {
		t.Fatalf("OnChange called %d times", changes)
	}

	data, err := os.ReadFile(paths.ConfigFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[0] != '#' {
		t.Fatalf("config file lacks comment header")
	}
}

func TestLoadReportsBadFile(t *testing.T) {
	paths := testPaths(t)
	if err := os.MkdirAll(paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.ConfigFile, []byte("StartURL = "), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(paths)
	if err := m.Load(); err == nil {
		t.Fatal("broken config accepted")
	}
	if m.Get().StartURL != common.DefaultStartURL {
		t.Fatalf("defaults lost after a bad load")
	}
}

func TestResolvePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")
	p, err := ResolvePaths(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.DataDir != dir || p.ConfigFile != filepath.Join(dir, "config.toml") || p.LogDir != filepath.Join(dir, "logs") {
		t.Fatalf("paths = %+v", p)
	}
	if filepath.Base(p.SharedDir) != common.SharedName {
		t.Fatalf("SharedDir = %q", p.SharedDir)
	}
	if err := p.Ensure(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p.LogDir); err != nil {
		t.Fatal(err)
	}
}
