package kernel

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// A precondition violation inside the scheduler corrupts every other
// subsystem, so there is no recoverable error path here: the kernel records
// what happened and halts.

// PanicInfo contains details about a kernel halt.
type PanicInfo struct {
	ThreadID int
	Reason   string
	Stack    []byte
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)
)

// InPanicMode reports whether the kernel has hit a fatal condition.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide halt handler.
//
// The handler is invoked at most once (on the first violation). It must not
// panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		info.Stack = debug.Stack()
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

// assertf halts the kernel unless cond holds.
func (k *Kernel) assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	id := -1
	if k.currentThread != nil {
		id = k.currentThread.id
	}
	triggerPanic(PanicInfo{ThreadID: id, Reason: msg})
	panic("kernel: " + msg)
}
