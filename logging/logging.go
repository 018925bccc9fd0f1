package logging

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/OpenNHP/opennhp/nhp/log"

	"github.com/drivedesk/DriveDesk/common"
)

var (
	mu      sync.Mutex
	current *log.Logger
)

// Setup creates the application file logger under dir and installs it as
// the global logger. Level: 0 silent, 1 error, 2 info, 3 audit, 4 debug, 5 trace.
func Setup(dir string, level int, name string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	current = log.NewLogger(common.AppName, level, dir, name)
	log.SetGlobalLogger(current)
	return current
}

// SetLevel changes the level of the installed logger.
func SetLevel(level int) {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		current.SetLogLevel(level)
	}
}

// Silent installs a logger that drops everything. Used by tests and
// one-shot commands that must not create log files next to user data.
func Silent() {
	dir := filepath.Join(os.TempDir(), common.AppName+"-silent")
	Setup(dir, 0, "silent")
}

// Close flushes and closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		log.Close()
		current = nil
	}
}
