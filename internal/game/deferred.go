package game

// Deferred is a single delayed action advanced by the tick loop.
// Scheduling while an action is pending replaces it.
type Deferred struct {
	remaining float64
	action    func()
	pending   bool
}

// Schedule arms fn to run once delay seconds of ticks have elapsed.
func (d *Deferred) Schedule(delay float64, fn func()) {
	d.remaining = delay
	d.action = fn
	d.pending = true
}

// Cancel drops the pending action, if any.
func (d *Deferred) Cancel() {
	d.pending = false
	d.action = nil
	d.remaining = 0
}

func (d *Deferred) Pending() bool { return d.pending }

func (d *Deferred) Remaining() float64 { return d.remaining }

// Advance consumes dt and runs the action when its delay has elapsed.
// Returns true if the action fired.
func (d *Deferred) Advance(dt float64) bool {
	if !d.pending {
		return false
	}
	d.remaining -= dt
	if d.remaining > 0 {
		return false
	}
	fn := d.action
	d.Cancel()
	if fn != nil {
		fn()
	}
	return true
}
