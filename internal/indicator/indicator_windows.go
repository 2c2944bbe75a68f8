//go:build windows

package indicator

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"
)

var (
	clsidTaskbarList = ole.NewGUID("{56FDF344-FD6D-11d0-958A-006097C9A090}")
	iidTaskbarList3  = ole.NewGUID("{EA1AFB91-9E28-4B86-90E9-9E9F8A5EEFAF}")
)

// TBPFLAG values, see shobjidl.h.
const (
	tbpfNoProgress    = 0x0
	tbpfIndeterminate = 0x1
	tbpfNormal        = 0x2
	tbpfError         = 0x4
)

// iTaskbarList3Vtbl lays out the COM vtable slots this package calls.
// IUnknown's three slots come first, then ITaskbarList/ITaskbarList2's
// slots through MarkFullscreenWindow (unused but kept so the offsets of
// SetProgressValue/SetProgressState below line up with the real
// interface), then the two methods actually used.
type iTaskbarList3Vtbl struct {
	queryInterface       uintptr
	addRef               uintptr
	release              uintptr
	hrInit               uintptr
	addTab               uintptr
	deleteTab            uintptr
	activateTab          uintptr
	setActiveAlt         uintptr
	markFullscreenWindow uintptr
	setProgressValue     uintptr
	setProgressState     uintptr
}

type iTaskbarList3 struct {
	vtbl *iTaskbarList3Vtbl
}

func (tb *iTaskbarList3) call(method uintptr, args ...uintptr) uintptr {
	a := append([]uintptr{uintptr(unsafe.Pointer(tb))}, args...)
	ret, _, _ := syscall.SyscallN(method, a...)
	return ret
}

func (tb *iTaskbarList3) hrInitCall() {
	tb.call(tb.vtbl.hrInit)
}

func (tb *iTaskbarList3) setProgressValueCall(hwnd uintptr, completed, total uint64) {
	tb.call(tb.vtbl.setProgressValue, hwnd, uintptr(completed), uintptr(total))
}

func (tb *iTaskbarList3) setProgressStateCall(hwnd uintptr, flags uint32) {
	tb.call(tb.vtbl.setProgressState, hwnd, uintptr(flags))
}

func (tb *iTaskbarList3) release() {
	tb.call(tb.vtbl.release)
}

var (
	user32               = syscall.NewLazyDLL("user32.dll")
	procEnumWindows      = user32.NewProc("EnumWindows")
	procGetWindowThread  = user32.NewProc("GetWindowThreadProcessId")
)

// findOwnWindow enumerates top-level windows looking for one owned by
// this process, caching nothing since the window may not exist yet at
// New time.
func findOwnWindow() uintptr {
	pid := uint32(os.Getpid())
	var found uintptr

	cb := syscall.NewCallback(func(hwnd syscall.Handle, lparam uintptr) uintptr {
		var owner uint32
		procGetWindowThread.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&owner)))
		if owner == pid {
			found = uintptr(hwnd)
			return 0
		}
		return 1
	})
	procEnumWindows.Call(cb, 0)
	return found
}

// windowsIndicator drives the Windows taskbar progress overlay.
type windowsIndicator struct {
	notifier
	taskbar *iTaskbarList3
}

// New returns the platform Indicator.
func New(appID, iconPath string, log zerolog.Logger) Indicator {
	w := &windowsIndicator{
		notifier: notifier{appID: appID, iconPath: iconPath, log: log},
	}
	if err := ole.CoInitialize(0); err != nil {
		log.Debug().Err(err).Msg("CoInitialize (likely already initialized on this thread)")
	}
	unknown, err := ole.CreateInstance(clsidTaskbarList, iidTaskbarList3)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create ITaskbarList3 instance, taskbar progress disabled")
		return w
	}
	tb := (*iTaskbarList3)(unsafe.Pointer(unknown))
	tb.hrInitCall()
	w.taskbar = tb
	return w
}

func (w *windowsIndicator) SetProgress(fraction float64, errorTint bool) {
	if w.taskbar == nil {
		return
	}
	hwnd := findOwnWindow()
	if hwnd == 0 {
		return
	}

	state := uint32(tbpfNormal)
	if errorTint {
		state = tbpfError
	}
	w.taskbar.setProgressStateCall(hwnd, state)

	const scale = 1000
	completed := uint64(fraction * scale)
	if completed > scale {
		completed = scale
	}
	w.taskbar.setProgressValueCall(hwnd, completed, scale)
}

func (w *windowsIndicator) Clear() {
	if w.taskbar == nil {
		return
	}
	if hwnd := findOwnWindow(); hwnd != 0 {
		w.taskbar.setProgressStateCall(hwnd, tbpfNoProgress)
	}
}
