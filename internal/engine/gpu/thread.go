package gpu

// ThreadGuard remembers the OS thread that owns a GPU context.
//
// The owning goroutine must have called runtime.LockOSThread before the guard
// is created, otherwise the scheduler may move it and Check will fire.
type ThreadGuard struct {
	owner int
}

// NewThreadGuard binds a guard to the calling OS thread.
func NewThreadGuard() ThreadGuard {
	return ThreadGuard{owner: currentThreadID()}
}

// OnOwner reports whether the caller runs on the owning thread. On platforms
// without a thread id it always reports true.
func (g ThreadGuard) OnOwner() bool {
	if g.owner == 0 {
		return true
	}
	return currentThreadID() == g.owner
}

// Check panics with a *UsageError when called off the owning thread.
func (g ThreadGuard) Check(op string) {
	if !g.OnOwner() {
		Usagef(op, "called from thread %d, context owned by thread %d", currentThreadID(), g.owner)
	}
}
