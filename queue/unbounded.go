package queue

// NewUnbounded creates a Queue whose Send never blocks on capacity (only
// on ctx/closure). This is the "max_size <= 0 means unbounded" case from
// the pipeline data model: internally it runs a single forwarding
// goroutine backed by a growable slice buffer, the standard Go idiom for
// an unbounded channel, since a native Go channel has no infinite-capacity
// mode.
func NewUnbounded[T any]() *Queue[T] {
	in := make(chan T)
	out := make(chan T)
	done := make(chan struct{})
	q := &Queue[T]{ch: out, sendCh: in, done: done}

	go func() {
		var buf []T
		for {
			if len(buf) == 0 {
				select {
				case item := <-in:
					buf = append(buf, item)
				case <-done:
					return
				}
				continue
			}

			select {
			case item := <-in:
				buf = append(buf, item)
			case out <- buf[0]:
				buf = buf[1:]
			case <-done:
				// Drain whatever remains before exiting, so items
				// already buffered at Close are not lost — they are
				// handed off to whichever Receive calls come next.
				for _, pending := range buf {
					out <- pending
				}
				return
			}
		}
	}()

	return q
}
