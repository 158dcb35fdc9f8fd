package operator

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observable"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/scheduler"
	"github.com/roach88/rxcore/internal/subject"
	"github.com/roach88/rxcore/internal/testutil"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSubject() *subject.Subject[int, string] {
	return subject.New[int, string](
		subject.WithLogger[int](quietLogger),
		subject.WithIDGenerator[int](testutil.NewSequentialIDGenerator("sub")),
	)
}

func TestDelay_ValuesArriveAfterDelay(t *testing.T) {
	start := time.Now()
	rec := testutil.NewRecorder[int, string]()

	Delay(observable.Just[int, string](1), 50*time.Millisecond, scheduler.NewGoroutine(),
		WithDelayLogger(quietLogger)).Subscribe(rec)

	require.True(t, rec.WaitTerminal(time.Second), "delayed stream did not complete")
	assert.Equal(t, []string{"next:1", "completed"}, rec.Log())

	times := rec.Times()
	assert.GreaterOrEqual(t, times[0].Sub(start), 50*time.Millisecond, "value is not delivered early")
}

func TestDelay_ErrorBypassesDelay(t *testing.T) {
	var emitted time.Time
	source := observable.Create(func(o *observer.Safe[int, string]) func() {
		emitted = time.Now()
		o.OnNext(1)
		timer := time.AfterFunc(10*time.Millisecond, func() {
			o.TryTerminal(event.Errored("e"))
		})
		return func() { timer.Stop() }
	})

	rec := testutil.NewRecorder[int, string]()
	Delay(source, 50*time.Millisecond, scheduler.NewGoroutine(), WithDelayLogger(quietLogger)).Subscribe(rec)

	require.True(t, rec.WaitTerminal(time.Second))
	assert.Less(t, rec.Times()[0].Sub(emitted), 50*time.Millisecond, "error is not delayed")

	// The value that was still waiting must never follow the error.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{"error:e"}, rec.Log())
}

func TestDelay_VirtualTimeOrdering(t *testing.T) {
	v := scheduler.NewVirtual()
	rec := testutil.NewRecorder[int, string]()

	Delay(observable.Just[int, string](1, 2, 3), 10*time.Millisecond, v,
		WithDelayLogger(quietLogger)).Subscribe(rec)

	v.Advance(9 * time.Millisecond)
	assert.Equal(t, 0, rec.Len(), "nothing before the delay elapses")

	v.Advance(time.Millisecond)
	assert.Equal(t, []string{"next:1", "next:2", "next:3", "completed"}, rec.Log())
	assert.Equal(t, 0, v.Pending())
}

func TestDelay_StaggeredUpstream(t *testing.T) {
	v := scheduler.NewVirtual()
	src := newSubject()
	rec := testutil.NewRecorder[int, string]()

	Delay[int, string](src, 10*time.Millisecond, v, WithDelayLogger(quietLogger)).Subscribe(rec)

	src.OnNext(1)
	v.Advance(5 * time.Millisecond)
	src.OnNext(2)
	v.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"next:1"}, rec.Log())

	v.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"next:1", "next:2"}, rec.Log())

	src.OnNext(3)
	src.OnTerminal(event.Errored("late"))
	assert.Equal(t, []string{"next:1", "next:2", "error:late"}, rec.Log(), "error overtakes the pending value")
	assert.Equal(t, 0, v.Pending(), "pending delivery was cancelled")

	v.Advance(time.Second)
	assert.Equal(t, 3, rec.Len())
}

func TestDelay_DisposeCancelsPending(t *testing.T) {
	v := scheduler.NewVirtual()
	src := newSubject()
	rec := testutil.NewRecorder[int, string]()

	sub := Delay[int, string](src, 10*time.Millisecond, v, WithDelayLogger(quietLogger)).Subscribe(rec)
	src.OnNext(1)
	src.OnNext(2)
	require.Equal(t, 2, v.Pending())

	sub.Unsubscribe()

	assert.Equal(t, 0, v.Pending())
	assert.Equal(t, 0, src.ObserverCount(), "upstream registration removed")
	assert.Equal(t, []string{"cancelled"}, rec.Log())

	v.Advance(time.Second)
	assert.Equal(t, 1, rec.Len())
}

func TestDelay_UpstreamCancelledIsImmediate(t *testing.T) {
	v := scheduler.NewVirtual()
	src := newSubject()
	rec := testutil.NewRecorder[int, string]()

	Delay[int, string](src, 10*time.Millisecond, v, WithDelayLogger(quietLogger)).Subscribe(rec)
	src.OnNext(1)
	src.OnTerminal(event.Cancelled[string]())

	assert.Equal(t, []string{"cancelled"}, rec.Log())
	assert.Equal(t, 0, v.Pending())
}

func TestDelay_CompletedIsDelayed(t *testing.T) {
	v := scheduler.NewVirtual()
	rec := testutil.NewRecorder[int, string]()

	Delay(observable.Empty[int, string](), 20*time.Millisecond, v, WithDelayLogger(quietLogger)).Subscribe(rec)

	v.Advance(19 * time.Millisecond)
	assert.False(t, rec.Terminated())
	v.Advance(time.Millisecond)
	assert.True(t, rec.IsCompleted())
}

// reverseScheduler runs collected tasks in reverse scheduling order.
type reverseScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (r *reverseScheduler) Schedule(task func(), _ time.Duration) scheduler.CancelFunc {
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.mu.Unlock()
	return func() {}
}

func (r *reverseScheduler) runAll() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()
	for i := len(tasks) - 1; i >= 0; i-- {
		tasks[i]()
	}
}

func TestDelay_OrderRestoredWhenSchedulerReorders(t *testing.T) {
	sched := &reverseScheduler{}
	rec := testutil.NewRecorder[int, string]()

	Delay(observable.Just[int, string](1, 2, 3), time.Millisecond, sched,
		WithDelayLogger(quietLogger)).Subscribe(rec)
	sched.runAll()

	assert.Equal(t, []string{"next:1", "next:2", "next:3", "completed"}, rec.Log())
}

func TestDelay_ConcurrentTasksKeepOrder(t *testing.T) {
	const values = 200
	rec := testutil.NewRecorder[int, string]()
	source := observable.Create(func(o *observer.Safe[int, string]) func() {
		for i := 0; i < values; i++ {
			o.OnNext(i)
		}
		o.OnTerminal(event.Completed[string]())
		return nil
	})

	Delay(source, 0, scheduler.NewGoroutine(), WithDelayLogger(quietLogger)).Subscribe(rec)

	require.True(t, rec.WaitTerminal(2*time.Second))
	vals := rec.Values()
	require.Len(t, vals, values)
	for i, v := range vals {
		assert.Equal(t, i, v)
	}
	assert.True(t, rec.IsCompleted())
}

func TestDelay_SerialScheduler(t *testing.T) {
	sched := scheduler.NewSerial(scheduler.WithSerialLogger(quietLogger))
	rec := testutil.NewRecorder[int, string]()

	Delay(observable.Just[int, string](1, 2), 5*time.Millisecond, sched,
		WithDelayLogger(quietLogger)).Subscribe(rec)

	done := make(chan error, 1)
	go func() { done <- sched.Run(t.Context()) }()

	require.True(t, rec.WaitTerminal(time.Second))
	sched.Stop()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"next:1", "next:2", "completed"}, rec.Log())
}
