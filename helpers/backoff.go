package helpers

import "time"

// Limited exponential backoff for retry delays.
// First Next() returns Min, each following call multiplies previous delay by K.
// Not safe for concurrent use, keep one per retry loop.
type Backoff struct {
	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms

	next time.Duration
}

func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Min
	} else {
		b.next = time.Duration(float32(b.next) * b.K)
	}
	b.next = b.limit(b.next)
	return b.next
}

func (b *Backoff) Reset() { b.next = 0 }

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = time.Millisecond
	}
	return d / res * res
}
