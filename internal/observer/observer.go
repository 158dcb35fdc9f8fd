package observer

import "github.com/roach88/rxcore/internal/event"

// Observer is a sink for values followed by one terminal signal.
type Observer[T, E any] interface {
	// OnNext delivers one value. Never called after OnTerminal.
	OnNext(value T)

	// OnTerminal delivers the final signal. The observer is consumed.
	OnTerminal(terminal event.Terminal[E])
}

// Funcs builds an Observer out of plain functions.
// Nil fields are treated as no-ops.
type Funcs[T, E any] struct {
	Next     func(T)
	Terminal func(event.Terminal[E])
}

// OnNext calls f.Next if set.
func (f Funcs[T, E]) OnNext(value T) {
	if f.Next != nil {
		f.Next(value)
	}
}

// OnTerminal calls f.Terminal if set.
func (f Funcs[T, E]) OnTerminal(terminal event.Terminal[E]) {
	if f.Terminal != nil {
		f.Terminal(terminal)
	}
}

// Func adapts a single event handler into an Observer.
type Func[T, E any] func(event.Event[T, E])

// OnNext forwards the value as a Next event.
func (f Func[T, E]) OnNext(value T) {
	f(event.Next[T, E](value))
}

// OnTerminal forwards the terminal as a terminal event.
func (f Func[T, E]) OnTerminal(terminal event.Terminal[E]) {
	f(event.Terminated[T](terminal))
}

// Emit dispatches ev to the matching method of o.
func Emit[T, E any](o Observer[T, E], ev event.Event[T, E]) {
	if v, ok := ev.Value(); ok {
		o.OnNext(v)
		return
	}
	t, _ := ev.Terminal()
	o.OnTerminal(t)
}
