package ui

import (
	"os"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/drivedesk/DriveDesk/logging"
)

// wailsLogger forwards framework messages to the application log.
type wailsLogger struct{}

var _ logger.Logger = wailsLogger{}

func (wailsLogger) Print(message string)   { log.Info("[wails] %s", message) }
func (wailsLogger) Trace(message string)   { log.Debug("[wails] %s", message) }
func (wailsLogger) Debug(message string)   { log.Debug("[wails] %s", message) }
func (wailsLogger) Info(message string)    { log.Info("[wails] %s", message) }
func (wailsLogger) Warning(message string) { log.Warning("[wails] %s", message) }
func (wailsLogger) Error(message string)   { log.Error("[wails] %s", message) }

func (wailsLogger) Fatal(message string) {
	log.Error("[wails] fatal: %s", message)
	logging.Close()
	os.Exit(1)
}

// wailsLevel maps the application log level onto the framework's.
func wailsLevel(level int) logger.LogLevel {
	switch {
	case level >= 5:
		return logger.TRACE
	case level >= 4:
		return logger.DEBUG
	case level >= 2:
		return logger.INFO
	default:
		return logger.ERROR
	}
}
