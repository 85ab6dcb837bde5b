package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
)

// lastValues is the FIFO of recent immediate-mode results, newest last.
type lastValues struct {
	vals    []object.Value
	size    int
	tracker *tracker.Tracker
}

func newLastValues(size int, t *tracker.Tracker) *lastValues {
	return &lastValues{size: size, tracker: t}
}

func (l *lastValues) push(v object.Value) {
	if l.size <= 0 {
		return
	}
	if len(l.vals) == l.size {
		if l.vals[0].HasHeap() {
			l.tracker.Free(tracker.LastValueStrings)
		}
		l.vals = append(l.vals[:0], l.vals[1:]...)
	}
	if v.HasHeap() {
		l.tracker.Alloc(tracker.LastValueStrings)
	}
	l.vals = append(l.vals, v)
}

// get returns the n-th most recent value, starting at 1.
func (l *lastValues) get(n int) (object.Value, bool) {
	if n < 1 || n > len(l.vals) {
		return object.Value{}, false
	}
	return l.vals[len(l.vals)-n], true
}

func (l *lastValues) len() int { return len(l.vals) }

func (l *lastValues) heapCount() int {
	n := 0
	for _, v := range l.vals {
		if v.HasHeap() {
			n++
		}
	}
	return n
}

func (l *lastValues) clear() {
	l.tracker.FreeN(tracker.LastValueStrings, l.heapCount())
	l.vals = nil
}
