package base

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// admissionController decides which connections become served channels.
//
// It applies two limits:
//   - per address: at most maxPerAddr channels (queued or served) may originate
//     from the same address, additional connections are rejected
//   - global: at most cap(active) channels are served at the same time,
//     additional admitted channels wait in acquire until a slot frees up
//
// There is no ordering between waiting channels.
type admissionController struct {
	maxPerAddr int
	perAddr    *xsync.MapOf[string, int]
	active     chan struct{} // counting semaphore, nil if the global limit is disabled
}

// newAdmissionController creates a controller, a limit <= 0 disables the corresponding check
func newAdmissionController(maxPerAddr, maxActive int) *admissionController {
	a := &admissionController{
		maxPerAddr: maxPerAddr,
		perAddr:    xsync.NewMapOf[string, int](),
	}
	if maxActive > 0 {
		a.active = make(chan struct{}, maxActive)
	}
	return a
}

// tryAdmit registers a new channel for addr.
// It returns false (and registers nothing) if addr already has maxPerAddr channels.
func (a *admissionController) tryAdmit(addr string) bool {
	admitted := false
	a.perAddr.Compute(addr, func(open int, loaded bool) (int, bool) {
		if a.maxPerAddr > 0 && open >= a.maxPerAddr {
			return open, false
		}
		admitted = true
		return open + 1, false
	})
	return admitted
}

// leave unregisters a channel that was admitted for addr
func (a *admissionController) leave(addr string) {
	a.perAddr.Compute(addr, func(open int, loaded bool) (int, bool) {
		if open <= 1 {
			return 0, true
		}
		return open - 1, false
	})
}

// acquire blocks until a served slot is free or done is closed.
// It returns false if done was closed first.
func (a *admissionController) acquire(done <-chan struct{}) bool {
	if a.active == nil {
		return true
	}
	select {
	case a.active <- struct{}{}:
		return true
	case <-done:
		return false
	}
}

// release frees a served slot taken by acquire
func (a *admissionController) release() {
	if a.active == nil {
		return
	}
	<-a.active
}

// open returns the number of admitted channels for addr
func (a *admissionController) open(addr string) int {
	n, _ := a.perAddr.Load(addr)
	return n
}

// served returns the number of channels currently holding a served slot
func (a *admissionController) served() int {
	return len(a.active)
}
