package viewer

import "time"

const (
	clickInterval = 400 * time.Millisecond
	clickDistance = 1
)

// clickTracker counts consecutive clicks close in time and space.
type clickTracker struct {
	maxTime     time.Duration
	maxDistance int

	lastRow, lastCol int
	lastTime         time.Time
	count            int
}

func newClickTracker() clickTracker {
	return clickTracker{maxTime: clickInterval, maxDistance: clickDistance}
}

// record registers a click and returns 1, 2 or 3. A fourth click starts a
// new sequence.
func (t *clickTracker) record(row, col int, now time.Time) int {
	if t.continues(row, col, now) {
		t.count++
		if t.count > 3 {
			t.count = 1
		}
	} else {
		t.count = 1
	}
	t.lastRow, t.lastCol, t.lastTime = row, col, now
	return t.count
}

func (t *clickTracker) continues(row, col int, now time.Time) bool {
	if t.count == 0 || t.lastTime.IsZero() {
		return false
	}
	elapsed := now.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}
	return abs(row-t.lastRow)+abs(col-t.lastCol) <= t.maxDistance
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
