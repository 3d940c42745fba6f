package duality

import "sync/atomic"

// CriticalOverride is a single-slot flag that forces the next duality roll
// to resolve as a critical.
//
// One override is shared by every roll resolved through the engines it is
// passed to. It expects a single writer: only the caller that armed it is
// expected to roll next. Concurrent rolls never both consume it.
type CriticalOverride struct {
	armed atomic.Bool
}

// Arm sets the flag. Arming an armed override is a no-op.
func (o *CriticalOverride) Arm() {
	if o == nil {
		return
	}
	o.armed.Store(true)
}

// Disarm clears the flag without consuming a roll.
func (o *CriticalOverride) Disarm() {
	if o == nil {
		return
	}
	o.armed.Store(false)
}

// Armed reports whether the next roll will be forced.
func (o *CriticalOverride) Armed() bool {
	if o == nil {
		return false
	}
	return o.armed.Load()
}

// consume disarms the flag and reports whether it was armed.
func (o *CriticalOverride) consume() bool {
	if o == nil {
		return false
	}
	return o.armed.CompareAndSwap(true, false)
}
