package editor

import "testing"

func TestSchedulerCancelledTimerNeverFires(t *testing.T) {
	s := NewScheduler()
	id := s.Start(TimerDragDelay, at(100))

	if !s.Cancel(id) {
		t.Fatal("Expected pending timer to cancel")
	}
	if s.Cancel(id) {
		t.Error("Cancelling twice should report false")
	}
	if due := s.Due(at(1000)); len(due) != 0 {
		t.Errorf("Cancelled timer fired: %+v", due)
	}
}

func TestSchedulerDueOrderAndRemoval(t *testing.T) {
	s := NewScheduler()
	late := s.Start(TimerConnectionTimeout, at(3000))
	early := s.Start(TimerDragDelay, at(120))

	next, ok := s.Next()
	if !ok || !next.Equal(at(120)) {
		t.Errorf("Next() = %v, %v; want %v", next, ok, at(120))
	}

	if due := s.Due(at(119)); len(due) != 0 {
		t.Fatalf("Nothing should be due yet, got %+v", due)
	}

	due := s.Due(at(5000))
	if len(due) != 2 || due[0].ID != early || due[1].ID != late {
		t.Fatalf("Expected early then late, got %+v", due)
	}
	if s.Len() != 0 {
		t.Error("Fired timers must be removed")
	}
	if due := s.Due(at(6000)); len(due) != 0 {
		t.Errorf("Timers fired twice: %+v", due)
	}
}
