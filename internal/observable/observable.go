// Package observable defines the producing side of the event protocol and
// a few leaf producers built on it.
package observable

import (
	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/subscription"
)

// Observable is a source of values followed by one terminal signal.
//
// Subscribe starts delivery to o, synchronously or asynchronously, and
// returns a handle that stops delivery to o when disposed. Disposing one
// Subscription never affects other subscribers. Observables that can be
// subscribed more than once produce an independent delivery sequence per
// call.
type Observable[T, E any] interface {
	Subscribe(o observer.Observer[T, E]) *subscription.Subscription
}

// Func implements Observable with a function.
//
// This provides a way of creating observables without introducing a type:
//
//	var ones observable.Observable[int, error] = observable.Func[int, error](
//		func(o observer.Observer[int, error]) *subscription.Subscription {
//			o.OnNext(1)
//			o.OnTerminal(event.Completed[error]())
//			return subscription.Disposed()
//		})
type Func[T, E any] func(observer.Observer[T, E]) *subscription.Subscription

// Subscribe calls f.
func (f Func[T, E]) Subscribe(o observer.Observer[T, E]) *subscription.Subscription {
	return f(o)
}

// Create builds an Observable from a subscribe handler.
//
// For every Subscribe call, onSubscribe receives the observer wrapped in an
// observer.Safe and may emit on it from any goroutine. It returns an
// optional teardown that runs on disposal. The returned Subscription
// delivers Cancelled to the observer if it is disposed before the handler
// terminated it.
func Create[T, E any](onSubscribe func(o *observer.Safe[T, E]) func()) Observable[T, E] {
	return Func[T, E](func(o observer.Observer[T, E]) *subscription.Subscription {
		safe := observer.NewSafe(o)
		sub := subscription.Guarding(safe, nil)
		if teardown := onSubscribe(safe); teardown != nil {
			sub.Prepend(teardown)
		}
		return sub
	})
}

// Just emits each value in order, then Completed.
func Just[T, E any](values ...T) Observable[T, E] {
	return Create(func(o *observer.Safe[T, E]) func() {
		for _, v := range values {
			if !o.TryNext(v) {
				return nil
			}
		}
		o.TryTerminal(event.Completed[E]())
		return nil
	})
}

// Throw emits a single Error terminal.
func Throw[T, E any](err E) Observable[T, E] {
	return Create(func(o *observer.Safe[T, E]) func() {
		o.TryTerminal(event.Errored(err))
		return nil
	})
}

// Empty emits Completed and nothing else.
func Empty[T, E any]() Observable[T, E] {
	return Create(func(o *observer.Safe[T, E]) func() {
		o.TryTerminal(event.Completed[E]())
		return nil
	})
}

// Never emits nothing. Its subscribers only terminate when they dispose
// their Subscription, which delivers Cancelled.
func Never[T, E any]() Observable[T, E] {
	return Create(func(*observer.Safe[T, E]) func() { return nil })
}

// SubscribeFuncs subscribes plain functions to source.
// Either function may be nil.
func SubscribeFuncs[T, E any](
	source Observable[T, E],
	onNext func(T),
	onTerminal func(event.Terminal[E]),
) *subscription.Subscription {
	return source.Subscribe(observer.Funcs[T, E]{Next: onNext, Terminal: onTerminal})
}
