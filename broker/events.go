package broker

import "github.com/flowforge/pipeline/queue"

// event is the tagged union of control messages the dispatch loop
// consumes, directly mirroring the original's registration_message /
// pipeline_message / goodbye_message namedtuples.
type event interface {
	isEvent()
}

// registerEvent installs name -> relay in the directory. relay is the
// manager-backed queue RegisterQueue already allocated (and already handed
// to a relay goroutine) before this event was enqueued; the dispatch loop
// itself never touches the registering pipeline's own head queue.
type registerEvent struct {
	name  string
	relay *queue.Queue[any]
}

type sendEvent struct {
	dest    string
	payload any
}

type forgetEvent struct {
	name string
}

type shutdownEvent struct{}

func (registerEvent) isEvent() {}
func (sendEvent) isEvent()     {}
func (forgetEvent) isEvent()   {}
func (shutdownEvent) isEvent() {}
