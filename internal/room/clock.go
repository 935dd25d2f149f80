package room

import "time"

// countdown is a cancellable one-shot timer owned by the room goroutine.
// Every arm bumps the generation; an expiry carrying a stale generation is
// dropped by the run loop, which makes cancellation O(1) and idempotent.
type countdown struct {
	timer *time.Timer
	gen   uint64
}

// arm schedules fire(gen) after d, replacing any pending expiry.
func (that *countdown) arm(d time.Duration, fire func(gen uint64)) {
	that.cancel()

	gen := that.gen
	that.timer = time.AfterFunc(d, func() { fire(gen) })
}

// cancel stops the pending expiry, if any. Safe to call repeatedly.
func (that *countdown) cancel() {
	that.gen++
	if that.timer != nil {
		that.timer.Stop()
		that.timer = nil
	}
}

// current reports whether gen is the live generation.
func (that *countdown) current(gen uint64) bool {
	return that.timer != nil && gen == that.gen
}
