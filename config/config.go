package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/OpenNHP/opennhp/nhp/utils"
	"github.com/pelletier/go-toml/v2"

	"github.com/drivedesk/DriveDesk/common"
)

var errLoadConfig = fmt.Errorf("drive config load error")

type Config struct {
	StartURL            string   `toml:"StartURL"`
	UserAgent           string   `toml:"UserAgent"`
	Locale              string   `toml:"Locale"`
	TrackedDomains      []string `toml:"TrackedDomains"`
	AuthCookieName      string   `toml:"AuthCookieName"`
	CookieFile          string   `toml:"CookieFile"`
	EncryptCookies      bool     `toml:"EncryptCookies"`
	URLScheme           string   `toml:"URLScheme"`
	Splash              bool     `toml:"Splash"`
	LaunchAtLogin       bool     `toml:"LaunchAtLogin"`
	CheckUpdates        bool     `toml:"CheckUpdates"`
	UpdateURL           string   `toml:"UpdateURL"`
	UpdateIntervalHours int      `toml:"UpdateIntervalHours"`
	DNSServer           string   `toml:"DNSServer"`
	Width               int      `toml:"Width"`
	Height              int      `toml:"Height"`
	LogLevel            int      `toml:"LogLevel"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		StartURL:            common.DefaultStartURL,
		UserAgent:           common.DefaultUserAgent,
		Locale:              common.DefaultLocale,
		TrackedDomains:      append([]string(nil), common.DefaultTrackedDomains...),
		AuthCookieName:      common.AuthCookieName,
		URLScheme:           common.DefaultScheme,
		Splash:              true,
		LaunchAtLogin:       true,
		CheckUpdates:        true,
		UpdateURL:           common.DefaultUpdateURL,
		UpdateIntervalHours: 24,
		Width:               common.DefaultWidth,
		Height:              common.DefaultHeight,
		LogLevel:            2,
	}
}

// UpdateInterval is the period between background update checks.
func (c *Config) UpdateInterval() time.Duration {
	if c.UpdateIntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.UpdateIntervalHours) * time.Hour
}

// PrimaryDomain is the first tracked cookie domain, the one the auth cookie lives in.
func (c *Config) PrimaryDomain() string {
	if len(c.TrackedDomains) == 0 {
		return ""
	}
	return c.TrackedDomains[0]
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.StartURL == "" {
		c.StartURL = def.StartURL
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if len(c.TrackedDomains) == 0 {
		c.TrackedDomains = def.TrackedDomains
	}
	if c.AuthCookieName == "" {
		c.AuthCookieName = def.AuthCookieName
	}
	if c.URLScheme == "" {
		c.URLScheme = def.URLScheme
	}
	c.URLScheme = strings.TrimSuffix(strings.ToLower(c.URLScheme), "://")
	if c.UpdateURL == "" {
		c.UpdateURL = def.UpdateURL
	}
	if c.Width < common.MinWidth {
		c.Width = def.Width
	}
	if c.Height < common.MinHeight {
		c.Height = def.Height
	}
}

// Parse decodes a TOML document on top of the defaults.
func Parse(content []byte) (Config, error) {
	conf := Default()
	if err := toml.Unmarshal(content, &conf); err != nil {
		return Default(), err
	}
	conf.fillDefaults()
	return conf, nil
}

// Manager owns the live configuration and reloads it when the file changes.
type Manager struct {
	mu       sync.RWMutex
	paths    Paths
	config   Config
	watch    io.Closer
	onChange []func(old, cur Config)
}

func NewManager(paths Paths) *Manager {
	return &Manager{paths: paths, config: Default()}
}

// Load reads config.toml and watches it for changes. A missing file is
// written with the defaults so that later edits are picked up too.
func (m *Manager) Load() error {
	if err := m.update(m.paths.ConfigFile); err != nil {
		return err
	}
	if _, err := os.Stat(m.paths.ConfigFile); errors.Is(err, os.ErrNotExist) {
		m.mu.RLock()
		conf := m.config
		m.mu.RUnlock()
		if err := m.Save(conf); err != nil {
			log.Warning("cannot write default drive config: %v", err)
			return nil
		}
		log.Info("wrote default drive config to %s", m.paths.ConfigFile)
	}
	m.watch = utils.WatchFile(m.paths.ConfigFile, func() {
		log.Info("drive config: %s has been updated", m.paths.ConfigFile)
		_ = m.update(m.paths.ConfigFile)
	})
	return nil
}

func (m *Manager) update(file string) (err error) {
	defer utils.CatchPanicThenRun(func() {
		err = errLoadConfig
	})

	content, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("no drive config at %s, using defaults", file)
		return nil
	}
	if err != nil {
		log.Error("failed to read drive config: %v", err)
		return err
	}

	conf, err := Parse(content)
	if err != nil {
		log.Error("failed to unmarshal drive config: %v", err)
		return err
	}
	if m.paths.SharedDir != "" && conf.CookieFile == "" {
		conf.CookieFile = m.paths.DefaultCookieFile()
	}

	m.mu.Lock()
	old := m.config
	m.config = conf
	listeners := append([]func(old, cur Config){}, m.onChange...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(old, conf)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.config
	if c.CookieFile == "" {
		c.CookieFile = m.paths.DefaultCookieFile()
	}
	return c
}

// OnChange registers fn to run after every successful reload.
func (m *Manager) OnChange(fn func(old, cur Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Save writes conf to config.toml with a comment header.
func (m *Manager) Save(conf Config) error {
	data, err := toml.Marshal(conf)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %v", err)
	}
	header := `# DriveDesk config
# StartURL: page shown in the window.
# UserAgent: User-Agent header sent with every request of the page.
# TrackedDomains: cookie domains saved to the shared cookie file, first one holds the auth cookie.
# CookieFile: shared cookie file, empty means the default shared location.
# EncryptCookies: seal the cookie file with a key kept in the OS keyring.
# LogLevel: 0: silent, 1: error, 2: info, 3: audit, 4: debug, 5: trace.
`
	if err := os.MkdirAll(filepath.Dir(m.paths.ConfigFile), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(m.paths.ConfigFile, []byte(header+string(data)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	return nil
}

func (m *Manager) StopWatch() {
	if m.watch != nil {
		m.watch.Close()
	}
}
