package platform

import (
	"errors"
	"strings"
	"testing"
)

type fakeHandler struct {
	scheme  string
	login   []bool
	tasks   []Task
	jumpErr error
}

func (h *fakeHandler) RegisterScheme(scheme, exe string) error {
	h.scheme = scheme
	return nil
}

func (h *fakeHandler) SetLoginItem(enabled bool, exe string) error {
	h.login = append(h.login, enabled)
	return nil
}

func (h *fakeHandler) SetJumpList(tasks []Task, exe string) error {
	h.tasks = tasks
	return h.jumpErr
}

func TestDefaultTasksUseScheme(t *testing.T) {
	for _, scheme := range []string{"iclouddrive", "iclouddrive://"} {
		tasks := DefaultTasks(scheme)
		if len(tasks) == 0 {
			t.Fatalf("no tasks")
		}
		seen := map[string]bool{}
		for _, task := range tasks {
			if !strings.HasPrefix(task.Arguments, "iclouddrive://open/") {
				t.Errorf("task %s arguments %q", task.ID, task.Arguments)
			}
			if seen[task.ID] {
				t.Errorf("duplicate task id %s", task.ID)
			}
			seen[task.ID] = true
		}
	}
}

func TestManagerRegisterAll(t *testing.T) {
	h := &fakeHandler{}
	m := &Manager{handler: h, exe: "/opt/drivedesk/drivedesk"}
	m.RegisterAll("iclouddrive")
	if h.scheme != "iclouddrive" || len(h.tasks) != len(DefaultTasks("iclouddrive")) {
		t.Fatalf("scheme=%q tasks=%d", h.scheme, len(h.tasks))
	}
	if err := m.SetLoginItem(true); err != nil || len(h.login) != 1 || !h.login[0] {
		t.Fatalf("login item: %v %v", err, h.login)
	}

	h.jumpErr = errUnsupported
	if m.SetJumpList(nil) {
		t.Fatalf("unsupported jump list reported as set")
	}
	h.jumpErr = errors.New("boom")
	if m.SetJumpList(nil) {
		t.Fatalf("failed jump list reported as set")
	}
}
