package config

import (
	"os"
	"path/filepath"

	"github.com/drivedesk/DriveDesk/common"
)

// Paths are the on-disk locations used by the application.
type Paths struct {
	DataDir    string
	SharedDir  string
	ConfigFile string
	StateFile  string
	LogDir     string
}

// ResolvePaths lays out the data directory. An empty dataDir selects the
// per-user config directory. The shared directory is a sibling named the
// same for every packaged variant, which is what lets them share a session.
func ResolvePaths(dataDir string) (Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		if dataDir == "" {
			return Paths{}, err
		}
		base = filepath.Dir(dataDir)
	}
	if dataDir == "" {
		dataDir = filepath.Join(base, common.AppName)
	}
	return Paths{
		DataDir:    dataDir,
		SharedDir:  filepath.Join(base, common.SharedName),
		ConfigFile: filepath.Join(dataDir, "config.toml"),
		StateFile:  filepath.Join(dataDir, "state.db"),
		LogDir:     filepath.Join(dataDir, "logs"),
	}, nil
}

func (p Paths) DefaultCookieFile() string {
	return filepath.Join(p.SharedDir, "cookies.json")
}

// Ensure creates the data and log directories.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.DataDir, p.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
