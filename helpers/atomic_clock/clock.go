// Package atomic_clock is an atomic int64 wall clock.
// Safe to read from status handlers while the control loop updates it.
// Do not use where time zone matters.
package atomic_clock

import (
	"sync/atomic"
	"time"
)

type Clock struct{ v int64 }

func source() int64 { return time.Now().UnixNano() }

func (c *Clock) get() int64    { return atomic.LoadInt64(&c.v) }
func (c *Clock) set(new int64) { atomic.StoreInt64(&c.v, new) }

func (c *Clock) IsZero() bool { return c.get() == 0 }

func (c *Clock) SetNow()            { c.set(source()) }
func (c *Clock) SetTime(t time.Time) { c.set(t.UnixNano()) }

// Time returns zero time.Time for zero clock.
func (c *Clock) Time() time.Time {
	v := c.get()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}

func (c *Clock) UnixNano() int64 { return c.get() }

// Age relative to now, zero clock is infinitely old.
func (c *Clock) Age(now time.Time) time.Duration {
	v := c.get()
	if v == 0 {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(now.UnixNano() - v)
}

func Now() *Clock { c := &Clock{}; c.SetNow(); return c }

func Since(begin *Clock) time.Duration { return time.Duration(source() - begin.get()) }
