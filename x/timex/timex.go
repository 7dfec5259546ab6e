package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// SinceMs returns whole milliseconds elapsed since t.
func SinceMs(t time.Time) int64 { return time.Since(t).Milliseconds() }

// ResetTimer re-arms a timer that may or may not have fired, draining a
// pending tick so the next receive sees only the new deadline.
func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
