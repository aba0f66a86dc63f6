package agent

import "sync"

// Resume is what a suspended routine learns when it wakes up.
type Resume int

const (
	Continue  Resume = iota // still our turn, carry on
	AbortTurn               // turn lost or task stopped: unwind without new input
)

func (r Resume) String() string {
	if r == Continue {
		return "continue"
	}
	return "abort"
}

// Task runs a routine cooperatively with the simulation loop. The routine
// lives on its own goroutine but only executes between a Step call and its
// next Yield, so the simulation and the routine never run at the same time.
type Task struct {
	resume chan struct{}
	yield  chan struct{}
	done   chan struct{}
	stop   chan struct{}

	clock    func() float64
	stopOnce sync.Once
	finished bool
}

// NewTask prepares fn to run on the first Step. clock reports simulation
// time in seconds.
func NewTask(clock func() float64, fn func(t *Task)) *Task {
	t := &Task{
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		clock:  clock,
	}
	go func() {
		defer close(t.done)
		select {
		case <-t.resume:
		case <-t.stop:
			return
		}
		fn(t)
	}()
	return t
}

// Now returns the current simulation time.
func (t *Task) Now() float64 { return t.clock() }

// Step resumes the routine and blocks until it yields or returns. It reports
// whether the routine is still alive afterwards.
func (t *Task) Step() bool {
	if t.finished {
		return false
	}
	select {
	case t.resume <- struct{}{}:
	case <-t.done:
		t.finished = true
		return false
	}
	select {
	case <-t.yield:
		return true
	case <-t.done:
		t.finished = true
		return false
	}
}

// Yield parks the routine until the next Step. It returns false once the task
// has been stopped; the routine must then unwind.
func (t *Task) Yield() bool {
	select {
	case t.yield <- struct{}{}:
	case <-t.stop:
		return false
	}
	select {
	case <-t.resume:
		return true
	case <-t.stop:
		return false
	}
}

// Stop abandons the routine and waits for it to unwind. Only call it while
// the routine is parked (between Steps).
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
	t.finished = true
}

// Done reports whether the routine has returned.
func (t *Task) Done() bool { return t.finished }
