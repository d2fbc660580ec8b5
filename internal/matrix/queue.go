package matrix

import (
	"errors"

	"github.com/rook-computer/rainmaker/internal/column"
)

// ErrQueueFull is returned by Push when the queue is at capacity.
var ErrQueueFull = errors.New("frame queue full")

// FrameQueue is a bounded FIFO of frames waiting to be painted.
// It is owned by the coordinator goroutine and is not safe for concurrent use.
type FrameQueue struct {
	frames []column.Frame
	max    int
}

func NewFrameQueue(max int) *FrameQueue {
	if max < 1 {
		max = 1
	}
	return &FrameQueue{frames: make([]column.Frame, 0, max), max: max}
}

func (q *FrameQueue) Len() int   { return len(q.frames) }
func (q *FrameQueue) Cap() int   { return q.max }
func (q *FrameQueue) Full() bool { return len(q.frames) >= q.max }

// Push appends f, refusing to grow past capacity.
func (q *FrameQueue) Push(f column.Frame) error {
	if q.Full() {
		return ErrQueueFull
	}
	q.frames = append(q.frames, f)
	return nil
}

// Pop removes and returns the oldest frame.
func (q *FrameQueue) Pop() (column.Frame, bool) {
	if len(q.frames) == 0 {
		return nil, false
	}
	f := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	return f, true
}
