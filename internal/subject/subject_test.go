package subject

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/testutil"
)

func quiet[T any]() []Option[T] {
	return []Option[T]{
		WithLogger[T](slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator[T](testutil.NewSequentialIDGenerator("sub")),
	}
}

func recoverProtocolError(t *testing.T, fn func()) *observer.ProtocolError {
	t.Helper()
	var pe *observer.ProtocolError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a panic")
			err, ok := r.(error)
			require.True(t, ok, "panic value should be an error")
			require.True(t, errors.As(err, &pe))
		}()
		fn()
	}()
	return pe
}

func TestSubject_MulticastFanOut(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	a := testutil.NewRecorder[int, string]()
	b := testutil.NewRecorder[int, string]()

	s.Subscribe(a)
	s.Subscribe(b)
	assert.Equal(t, 2, s.ObserverCount())

	s.OnNext(1)
	s.OnNext(2)
	s.OnTerminal(event.Completed[string]())

	want := []string{"next:1", "next:2", "completed"}
	assert.Equal(t, want, a.Log())
	assert.Equal(t, want, b.Log())
	assert.True(t, s.Terminated())
	assert.Equal(t, 0, s.ObserverCount(), "terminal clears the registry")
}

func TestSubject_LateSubscriberSeesOnlyLaterEvents(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	early := testutil.NewRecorder[int, string]()
	late := testutil.NewRecorder[int, string]()

	s.Subscribe(early)
	s.OnNext(1)
	s.Subscribe(late)
	s.OnNext(2)
	s.OnTerminal(event.Errored("boom"))

	assert.Equal(t, []string{"next:1", "next:2", "error:boom"}, early.Log())
	assert.Equal(t, []string{"next:2", "error:boom"}, late.Log())
}

func TestSubject_SubscribeAfterTerminal(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	s.OnTerminal(event.Completed[string]())

	rec := testutil.NewRecorder[int, string]()
	sub := s.Subscribe(rec)

	assert.True(t, sub.IsDisposed(), "late subscription is already disposed")
	assert.Equal(t, 0, rec.Len(), "nothing is replayed")
	assert.Equal(t, 0, s.ObserverCount())

	sub.Unsubscribe()
	assert.Equal(t, 0, rec.Len(), "disposing the late subscription sends nothing")
}

func TestSubject_UnsubscribeCancelsOnlyThatObserver(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	a := testutil.NewRecorder[int, string]()
	b := testutil.NewRecorder[int, string]()

	subA := s.Subscribe(a)
	s.Subscribe(b)

	s.OnNext(1)
	subA.Unsubscribe()
	s.OnNext(2)
	s.OnTerminal(event.Completed[string]())

	assert.Equal(t, []string{"next:1", "cancelled"}, a.Log())
	assert.Equal(t, []string{"next:1", "next:2", "completed"}, b.Log())
}

func TestSubject_SameObserverTwice(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	var mu sync.Mutex
	var got []string
	obs := observer.Funcs[int, string]{
		Next: func(v int) {
			mu.Lock()
			got = append(got, event.Next[int, string](v).String())
			mu.Unlock()
		},
	}

	first := s.Subscribe(obs)
	s.Subscribe(obs)
	require.Equal(t, 2, s.ObserverCount())

	first.Unsubscribe()
	assert.Equal(t, 1, s.ObserverCount(), "only the first registration is removed")

	s.OnNext(7)
	assert.Equal(t, []string{"next:7"}, got)
}

func TestSubject_UnsubscribeInsideCallback(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	var log []string
	var sub interface{ Unsubscribe() }

	sub = s.Subscribe(observer.Funcs[int, string]{
		Next: func(v int) {
			log = append(log, "next")
			sub.Unsubscribe()
		},
		Terminal: func(t event.Terminal[string]) {
			log = append(log, t.String())
		},
	})

	s.OnNext(1)
	s.OnNext(2)

	assert.Equal(t, []string{"next", "cancelled"}, log)
	assert.Equal(t, 0, s.ObserverCount())
}

func TestSubject_SubscribeInsideCallback(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	inner := testutil.NewRecorder[int, string]()
	once := sync.Once{}

	s.Subscribe(observer.Funcs[int, string]{
		Next: func(int) {
			once.Do(func() { s.Subscribe(inner) })
		},
	})

	s.OnNext(1)
	s.OnNext(2)

	assert.Equal(t, []string{"next:2"}, inner.Log(), "registration made during fan-out sees the next event")
}

func TestSubject_Chaining(t *testing.T) {
	a := New[int, string](quiet[int]()...)
	b := New[int, string](quiet[int]()...)
	rec := testutil.NewRecorder[int, string]()

	a.Subscribe(b)
	b.Subscribe(rec)

	a.OnNext(1)
	a.OnTerminal(event.Completed[string]())

	assert.Equal(t, []string{"next:1", "completed"}, rec.Log())
	assert.True(t, b.Terminated())
}

func TestSubject_DisposingChainCancelsDownstreamSubject(t *testing.T) {
	a := New[int, string](quiet[int]()...)
	b := New[int, string](quiet[int]()...)
	rec := testutil.NewRecorder[int, string]()

	link := a.Subscribe(b)
	b.Subscribe(rec)

	a.OnNext(1)
	link.Unsubscribe()
	a.OnNext(2)

	assert.Equal(t, []string{"next:1", "cancelled"}, rec.Log())
}

func TestSubject_ProtocolViolations(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	s.OnTerminal(event.Completed[string]())

	pe := recoverProtocolError(t, func() { s.OnNext(1) })
	assert.Equal(t, observer.ErrCodeNextAfterTerminal, pe.Code)
	assert.Equal(t, "subject.Subject", pe.Component)

	pe = recoverProtocolError(t, func() { s.OnTerminal(event.Completed[string]()) })
	assert.Equal(t, observer.ErrCodeDoubleTerminal, pe.Code)

	pe = recoverProtocolError(t, func() { New[int, string](quiet[int]()...).OnTerminal(event.Terminal[string]{}) })
	assert.Equal(t, observer.ErrCodeInvalidTerminal, pe.Code)
}

func TestSubject_NotifyDropsAfterTerminal(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	rec := testutil.NewRecorder[int, string]()
	s.Subscribe(rec)

	assert.True(t, s.Notify(event.Next[int, string](1)))
	assert.True(t, s.Notify(event.Terminated[int](event.Errored("x"))))
	assert.False(t, s.Notify(event.Next[int, string](2)))
	assert.False(t, s.Notify(event.Terminated[int](event.Completed[string]())))

	assert.Equal(t, []string{"next:1", "error:x"}, rec.Log())
}

// Random event sequences through a Subject never yield more than one
// terminal per observer, and nothing follows it.
func TestSubject_AtMostOneTerminal(t *testing.T) {
	for seed := uint64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		s := New[int, string](quiet[int]()...)

		var recs []*testutil.Recorder[int, string]
		var subs []interface{ Unsubscribe() }
		steps := 5 + rng.IntN(40)
		for i := 0; i < steps; i++ {
			switch rng.IntN(6) {
			case 0:
				r := testutil.NewRecorder[int, string]()
				recs = append(recs, r)
				subs = append(subs, s.Subscribe(r))
			case 1:
				if len(subs) > 0 {
					subs[rng.IntN(len(subs))].Unsubscribe()
				}
			case 2:
				s.Notify(event.Terminated[int](randomTerminal(rng)))
			default:
				s.Notify(event.Next[int, string](i))
			}
		}
		s.Notify(event.Terminated[int](event.Completed[string]()))

		for i, r := range recs {
			terminals := 0
			for _, ev := range r.Events() {
				if ev.IsTerminal() {
					terminals++
				}
			}
			assert.LessOrEqual(t, terminals, 1, "seed %d recorder %d", seed, i)
			if terminals == 1 {
				evs := r.Events()
				assert.True(t, evs[len(evs)-1].IsTerminal(), "seed %d recorder %d: terminal is last", seed, i)
			}
		}
	}
}

func randomTerminal(rng *rand.Rand) event.Terminal[string] {
	switch rng.IntN(3) {
	case 0:
		return event.Completed[string]()
	case 1:
		return event.Errored("e")
	default:
		return event.Cancelled[string]()
	}
}

func TestSubject_ConcurrentSubscribeAndEmit(t *testing.T) {
	s := New[int, string](quiet[int]()...)
	const subscribers = 50

	recs := make([]*testutil.Recorder[int, string], subscribers)
	var wg sync.WaitGroup
	for i := range recs {
		recs[i] = testutil.NewRecorder[int, string]()
		wg.Add(1)
		go func(r *testutil.Recorder[int, string]) {
			defer wg.Done()
			sub := s.Subscribe(r)
			if r == recs[0] {
				return
			}
			sub.Unsubscribe()
		}(recs[i])
	}

	for i := 0; i < 100; i++ {
		s.OnNext(i)
	}
	wg.Wait()
	s.OnTerminal(event.Completed[string]())

	for _, r := range recs {
		require.True(t, r.Terminated(), "every observer ends with exactly one terminal")
		vals := r.Values()
		for j := 1; j < len(vals); j++ {
			assert.Less(t, vals[j-1], vals[j], "values arrive in emission order")
		}
	}
	assert.True(t, recs[0].IsCompleted())
}
