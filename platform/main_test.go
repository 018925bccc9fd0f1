package platform

import (
	"os"
	"testing"

	"github.com/drivedesk/DriveDesk/logging"
)

func TestMain(m *testing.M) {
	logging.Silent()
	code := m.Run()
	logging.Close()
	os.Exit(code)
}
