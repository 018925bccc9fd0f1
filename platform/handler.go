package platform

import (
	"strings"

	"github.com/drivedesk/DriveDesk/common"
)

// Task is one entry of the jump list (Windows), desktop actions (Linux)
// or quick actions elsewhere. Arguments are passed to the executable.
type Task struct {
	ID          string
	Title       string
	Description string
	Arguments   string
}

// Handler performs the per-OS shell integration.
type Handler interface {
	RegisterScheme(scheme, exe string) error
	SetLoginItem(enabled bool, exe string) error
	SetJumpList(tasks []Task, exe string) error
}

// DefaultTasks are the quick entries into the drive, each one a scheme URL
// handled by the running instance.
func DefaultTasks(scheme string) []Task {
	open := strings.TrimSuffix(scheme, "://") + "://open/iclouddrive"
	return []Task{
		{ID: "browse", Title: "Browse", Description: "Open " + common.AppName, Arguments: open},
		{ID: "recents", Title: "Recents", Description: "Recently opened files", Arguments: open + "/recents"},
		{ID: "shared", Title: "Shared", Description: "Files shared with you", Arguments: open + "/shared"},
		{ID: "deleted", Title: "Recently Deleted", Description: "Deleted files", Arguments: open + "/recently-deleted"},
	}
}
