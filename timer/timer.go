// timer/timer.go
package timer

import (
	"sync"
	"time"
)

// Clock supplies the current time. Rooms take one so tests can drive time by hand.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

func (c *ManualClock) Set(t time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = t
}

// Countdown is a single phase deadline. Pausing freezes the remaining time
// instead of cancelling anything; the owner compares against it on every tick.
type Countdown struct {
	Execute time.Time
	paused  bool
	left    time.Duration
}

// Set arms the countdown to fire d after now and clears any pause.
func (c *Countdown) Set(now time.Time, d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.Execute = now.Add(d)
	c.paused = false
	c.left = 0
}

// Expire moves the deadline to now. A paused countdown is left with nothing remaining.
func (c *Countdown) Expire(now time.Time) {
	c.Execute = now
	if c.paused {
		c.left = 0
	}
}

// Freeze stops the countdown at now without pausing it (terminal states).
func (c *Countdown) Freeze(now time.Time) {
	c.Execute = now
	c.paused = false
	c.left = 0
}

func (c *Countdown) Reset() {
	*c = Countdown{}
}

func (c *Countdown) Paused() bool { return c.paused }

func (c *Countdown) Pause(now time.Time) {
	if c.paused {
		return
	}
	c.left = c.Execute.Sub(now)
	if c.left < 0 {
		c.left = 0
	}
	c.paused = true
}

func (c *Countdown) Resume(now time.Time) {
	if !c.paused {
		return
	}
	c.Execute = now.Add(c.left)
	c.left = 0
	c.paused = false
}

// Remaining never goes negative.
func (c *Countdown) Remaining(now time.Time) time.Duration {
	if c.paused {
		return c.left
	}
	if c.Execute.IsZero() {
		return 0
	}
	left := c.Execute.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the deadline has passed. Paused countdowns never expire.
func (c *Countdown) Expired(now time.Time) bool {
	if c.paused {
		return false
	}
	return !now.Before(c.Execute)
}
