package pipeline

import "github.com/moyoez/reelpost/types"

// Observer receives run events. Calls for one run are serialized; implementations must not block for long.
type Observer interface {
	OnRunEvent(event types.RunEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event types.RunEvent)

func (f ObserverFunc) OnRunEvent(event types.RunEvent) {
	f(event)
}

// MultiObserver fans events out in order.
type MultiObserver []Observer

func (m MultiObserver) OnRunEvent(event types.RunEvent) {
	for _, o := range m {
		if o != nil {
			o.OnRunEvent(event)
		}
	}
}
