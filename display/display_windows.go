//go:build windows

package display

import (
	"context"
	"syscall"
	"unsafe"

	"github.com/OpenNHP/opennhp/nhp/log"
	"github.com/StackExchange/wmi"
	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfo struct {
	Size    uint32
	Monitor winRect
	Work    winRect
	Flags   uint32
}

type DesktopMonitor struct {
	ScreenWidth  uint32 `wmi:"ScreenWidth"`
	ScreenHeight uint32 `wmi:"ScreenHeight"`
}

func systemDisplays(ctx context.Context) ([]Rect, error) {
	rects, err := enumMonitors()
	if err == nil && len(rects) > 0 {
		return rects, nil
	}
	log.Debug("EnumDisplayMonitors failed (%v), falling back to WMI", err)
	return wmiMonitors()
}

func enumMonitors() ([]Rect, error) {
	if err := procEnumDisplayMonitors.Find(); err != nil {
		return nil, err
	}
	var rects []Rect
	cb := syscall.NewCallback(func(hMonitor, hdc, lprc, lparam uintptr) uintptr {
		info := monitorInfo{Size: uint32(unsafe.Sizeof(monitorInfo{}))}
		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&info)))
		if ret != 0 {
			m := info.Monitor
			rects = append(rects, Rect{
				X:      int(m.Left),
				Y:      int(m.Top),
				Width:  int(m.Right - m.Left),
				Height: int(m.Bottom - m.Top),
			})
		}
		return 1
	})
	ret, _, callErr := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return nil, callErr
	}
	return rects, nil
}

// WMI has no monitor origins; only the primary display at (0,0) is reported.
func wmiMonitors() ([]Rect, error) {
	var monitors []DesktopMonitor
	if err := wmi.Query("SELECT ScreenWidth, ScreenHeight FROM Win32_DesktopMonitor", &monitors); err != nil {
		return nil, err
	}
	for _, m := range monitors {
		if m.ScreenWidth > 0 && m.ScreenHeight > 0 {
			return []Rect{{Width: int(m.ScreenWidth), Height: int(m.ScreenHeight)}}, nil
		}
	}
	return nil, ErrNoDisplays
}
