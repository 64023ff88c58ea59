package engine

// ResizeQueue carries framebuffer resize notifications from the windowing
// side to the render loop. Only the latest extent is kept. Post and Poll
// never block and may be called from different goroutines.
type ResizeQueue struct {
	latest chan Extent2D
}

func NewResizeQueue() *ResizeQueue {
	return &ResizeQueue{latest: make(chan Extent2D, 1)}
}

// Post replaces any undelivered extent with extent.
func (q *ResizeQueue) Post(extent Extent2D) {
	for {
		select {
		case q.latest <- extent:
			return
		default:
		}

		select {
		case <-q.latest:
		default:
		}
	}
}

// Poll returns the latest posted extent, if one arrived since the last Poll.
func (q *ResizeQueue) Poll() (Extent2D, bool) {
	select {
	case extent := <-q.latest:
		return extent, true
	default:
		return Extent2D{}, false
	}
}
