package operator

import (
	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observable"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/subscription"
)

// Map applies f to every value from source. Terminals pass through.
func Map[T, T2, E any](source observable.Observable[T, E], f func(T) T2) observable.Observable[T2, E] {
	return observable.Func[T2, E](func(o observer.Observer[T2, E]) *subscription.Subscription {
		down := observer.NewSafe(o)
		upstream := source.Subscribe(observer.Funcs[T, E]{
			Next:     func(v T) { down.OnNext(f(v)) },
			Terminal: down.OnTerminal,
		})
		return subscription.Guarding(down, upstream.Unsubscribe, subscription.WithID(upstream.ID()))
	})
}

// MapErr applies f to the error of an Error terminal. Values, Completed
// and Cancelled pass through.
func MapErr[T, E, E2 any](source observable.Observable[T, E], f func(E) E2) observable.Observable[T, E2] {
	return observable.Func[T, E2](func(o observer.Observer[T, E2]) *subscription.Subscription {
		down := observer.NewSafe(o)
		upstream := source.Subscribe(observer.Funcs[T, E]{
			Next: down.OnNext,
			Terminal: func(t event.Terminal[E]) {
				down.OnTerminal(event.MapTerminal(t, f))
			},
		})
		return subscription.Guarding(down, upstream.Unsubscribe, subscription.WithID(upstream.ID()))
	})
}
