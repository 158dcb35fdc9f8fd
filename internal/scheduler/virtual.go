package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a scheduler driven by manual virtual time.
//
// Nothing runs until Advance is called. Advance runs every task that is
// due within the window, in (due time, scheduling order) order, on the
// calling goroutine. Tasks scheduled by running tasks are picked up in the
// same Advance call if they fall inside the window.
//
// Thread-safety: all methods are safe for concurrent use. Tasks run
// outside the internal lock, so they may call Schedule and Now.
type Virtual struct {
	mu    sync.Mutex
	now   time.Duration
	clock Clock
	tasks virtualHeap
}

// NewVirtual creates a Virtual scheduler at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Schedule implements Scheduler. A delay <= 0 makes the task due now; it
// runs on the next Advance (including Advance(0)).
func (v *Virtual) Schedule(fn func(), delay time.Duration) CancelFunc {
	if delay < 0 {
		delay = 0
	}

	v.mu.Lock()
	vt := &virtualTask{
		task: newTask(v.clock.Next(), fn),
		due:  v.now + delay,
	}
	heap.Push(&v.tasks, vt)
	v.mu.Unlock()

	return func() {
		if !vt.cancel() {
			return
		}
		v.mu.Lock()
		if vt.index >= 0 {
			heap.Remove(&v.tasks, vt.index)
		}
		v.mu.Unlock()
	}
}

// Advance moves virtual time forward by d, running due tasks.
// Returns the number of tasks that ran.
func (v *Virtual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()
	return v.AdvanceTo(target)
}

// AdvanceTo moves virtual time to target (never backwards), running due
// tasks. Returns the number of tasks that ran.
func (v *Virtual) AdvanceTo(target time.Duration) int {
	ran := 0
	for {
		v.mu.Lock()
		if target < v.now {
			target = v.now
		}
		if len(v.tasks) == 0 || v.tasks[0].due > target {
			v.now = target
			v.mu.Unlock()
			return ran
		}
		next := heap.Pop(&v.tasks).(*virtualTask)
		v.now = next.due
		v.mu.Unlock()

		if next.run() {
			ran++
		}
	}
}

// Flush runs every task due at the current virtual time.
func (v *Virtual) Flush() int {
	return v.Advance(0)
}

// Pending returns the number of scheduled tasks that have not run or been
// cancelled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tasks)
}

type virtualTask struct {
	*task
	due   time.Duration
	index int
}

// virtualHeap orders tasks by due time, then by scheduling sequence.
type virtualHeap []*virtualTask

func (h virtualHeap) Len() int { return len(h) }

func (h virtualHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h virtualHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *virtualHeap) Push(x any) {
	vt := x.(*virtualTask)
	vt.index = len(*h)
	*h = append(*h, vt)
}

func (h *virtualHeap) Pop() any {
	old := *h
	n := len(old)
	vt := old[n-1]
	old[n-1] = nil
	vt.index = -1
	*h = old[:n-1]
	return vt
}
