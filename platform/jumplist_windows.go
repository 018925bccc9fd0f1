//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

var (
	clsidDestinationList      = ole.NewGUID("{77f10cf0-3db5-4966-b520-b7c54fd35ed6}")
	clsidEnumerableObjectColl = ole.NewGUID("{2d3468c1-36a7-43b6-ac24-d3f02fd9607a}")
	clsidShellLink            = ole.NewGUID("{00021401-0000-0000-C000-000000000046}")
	iidICustomDestinationList = ole.NewGUID("{6332debf-87b5-4670-90c0-5e57b408a49e}")
	iidIObjectCollection      = ole.NewGUID("{5632b1a4-e38a-400a-928a-d4cd63230295}")
	iidIObjectArray           = ole.NewGUID("{92ca9dcd-5622-4bba-a805-5e9f541bd8c9}")
	iidIShellLinkW            = ole.NewGUID("{000214F9-0000-0000-C000-000000000046}")
	iidIPropertyStore         = ole.NewGUID("{886d8eeb-8cf2-4446-8d02-cdba1dbdcf99}")
	fmtidTitle                = ole.NewGUID("{F29F85E0-4FF9-1068-AB91-08002B27B3D9}")
)

// vtable slots
const (
	destBeginList    = 4
	destAddUserTasks = 7
	destCommitList   = 8

	collAddObject = 5

	linkSetDescription  = 7
	linkSetArguments    = 11
	linkSetIconLocation = 17
	linkSetPath         = 20

	storeSetValue = 6
	storeCommit   = 7
)

const vtLPWSTR = 31

type propertyKey struct {
	fmtid ole.GUID
	pid   uint32
}

type propVariant struct {
	vt       uint16
	reserved [3]uint16
	val      uintptr
	pad      uintptr
}

// comCall invokes method slot of the COM object obj.
func comCall(obj *ole.IUnknown, slot int, args ...uintptr) error {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(unsafe.Pointer(obj))}, args...)...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

func utf16(s string) *uint16 {
	p, _ := windows.UTF16PtrFromString(s)
	return p
}

// setJumpList replaces the Tasks category of the taskbar jump list.
func setJumpList(tasks []Task, exe string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 { // S_FALSE: already initialised
			return fmt.Errorf("CoInitializeEx: %w", err)
		}
	}
	defer ole.CoUninitialize()

	list, err := ole.CreateInstance(clsidDestinationList, iidICustomDestinationList)
	if err != nil {
		return fmt.Errorf("create destination list: %w", err)
	}
	defer list.Release()

	var minSlots uint32
	var removed *ole.IUnknown
	if err := comCall(list, destBeginList, uintptr(unsafe.Pointer(&minSlots)),
		uintptr(unsafe.Pointer(iidIObjectArray)), uintptr(unsafe.Pointer(&removed))); err != nil {
		return fmt.Errorf("BeginList: %w", err)
	}
	if removed != nil {
		removed.Release()
	}

	coll, err := ole.CreateInstance(clsidEnumerableObjectColl, iidIObjectCollection)
	if err != nil {
		return fmt.Errorf("create object collection: %w", err)
	}
	defer coll.Release()

	for _, t := range tasks {
		link, err := newShellLink(t, exe)
		if err != nil {
			return err
		}
		err = comCall(coll, collAddObject, uintptr(unsafe.Pointer(link)))
		link.Release()
		if err != nil {
			return fmt.Errorf("AddObject %s: %w", t.ID, err)
		}
	}

	if err := comCall(list, destAddUserTasks, uintptr(unsafe.Pointer(coll))); err != nil {
		return fmt.Errorf("AddUserTasks: %w", err)
	}
	if err := comCall(list, destCommitList); err != nil {
		return fmt.Errorf("CommitList: %w", err)
	}
	return nil
}

func newShellLink(t Task, exe string) (*ole.IUnknown, error) {
	link, err := ole.CreateInstance(clsidShellLink, iidIShellLinkW)
	if err != nil {
		return nil, fmt.Errorf("create shell link: %w", err)
	}
	path, args, desc := utf16(exe), utf16(t.Arguments), utf16(t.Description)
	steps := []struct {
		slot int
		args []uintptr
	}{
		{linkSetPath, []uintptr{uintptr(unsafe.Pointer(path))}},
		{linkSetArguments, []uintptr{uintptr(unsafe.Pointer(args))}},
		{linkSetDescription, []uintptr{uintptr(unsafe.Pointer(desc))}},
		{linkSetIconLocation, []uintptr{uintptr(unsafe.Pointer(path)), 0}},
	}
	for _, s := range steps {
		if err := comCall(link, s.slot, s.args...); err != nil {
			link.Release()
			return nil, fmt.Errorf("shell link %s: %w", t.ID, err)
		}
	}
	runtime.KeepAlive(path)
	runtime.KeepAlive(args)
	runtime.KeepAlive(desc)

	disp, err := link.QueryInterface(iidIPropertyStore)
	if err != nil {
		link.Release()
		return nil, fmt.Errorf("shell link property store: %w", err)
	}
	props := (*ole.IUnknown)(unsafe.Pointer(disp))
	defer props.Release()

	title := utf16(t.Title)
	key := propertyKey{fmtid: *fmtidTitle, pid: 2}
	value := propVariant{vt: vtLPWSTR, val: uintptr(unsafe.Pointer(title))}
	if err := comCall(props, storeSetValue, uintptr(unsafe.Pointer(&key)), uintptr(unsafe.Pointer(&value))); err != nil {
		link.Release()
		return nil, fmt.Errorf("set title %s: %w", t.ID, err)
	}
	runtime.KeepAlive(title)
	if err := comCall(props, storeCommit); err != nil {
		link.Release()
		return nil, fmt.Errorf("commit title %s: %w", t.ID, err)
	}
	return link, nil
}
