package agent

import "testing"

func TestTask_Lockstep(t *testing.T) {
	now := 0.0
	var seen []float64
	task := NewTask(func() float64 { return now }, func(tk *Task) {
		for i := 0; i < 3; i++ {
			seen = append(seen, tk.Now())
			if !tk.Yield() {
				return
			}
		}
	})
	steps := 0
	for task.Step() {
		steps++
		now += 1
	}
	if steps != 3 {
		t.Fatalf("expected 3 yields, got %d", steps)
	}
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1 || seen[2] != 2 {
		t.Fatalf("routine should observe the clock between steps, got %v", seen)
	}
	if !task.Done() {
		t.Fatal("task should be done after its routine returns")
	}
	if task.Step() {
		t.Fatal("stepping a finished task should report false")
	}
}

func TestTask_StopUnwinds(t *testing.T) {
	released := false
	task := NewTask(func() float64 { return 0 }, func(tk *Task) {
		defer func() { released = true }()
		for tk.Yield() {
		}
	})
	task.Step()
	task.Step()
	task.Stop()
	if !released {
		t.Fatal("deferred cleanup should run when the task is stopped")
	}
	if !task.Done() {
		t.Fatal("stopped task should be done")
	}
}

func TestTask_StopBeforeStart(t *testing.T) {
	ran := false
	task := NewTask(func() float64 { return 0 }, func(*Task) { ran = true })
	task.Stop()
	if ran {
		t.Fatal("routine should never run if stopped before the first step")
	}
}
