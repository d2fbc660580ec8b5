package column

import "context"

// Update asks a column for its next frame. Cycle is echoed back in the reply.
type Update struct {
	Cycle uint64
}

// Reply carries one frame back to the coordinator.
type Reply struct {
	Column int
	Cycle  uint64
	Frame  Frame
}

// Run serves update requests until ctx is done or requests is closed.
// Every request gets exactly one reply.
func (a *Animator) Run(ctx context.Context, requests <-chan Update, replies chan<- Reply) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			reply := Reply{Column: a.index, Cycle: req.Cycle, Frame: a.Advance()}
			select {
			case replies <- reply:
			case <-ctx.Done():
				return
			}
		}
	}
}
