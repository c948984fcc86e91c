package editor

import (
	"sort"
	"time"
)

// TimerID identifies a started timer.
type TimerID uint64

// TimerKind says what a timer is for.
type TimerKind int

const (
	TimerDragDelay TimerKind = iota + 1
	TimerConnectionTimeout
)

// Fired is a timer whose deadline has passed.
type Fired struct {
	ID       TimerID
	Kind     TimerKind
	Deadline time.Time
}

// Scheduler keeps fire-once timers against event time. Cancelling removes a
// timer outright, so a cancelled timer can never be returned by Due.
type Scheduler struct {
	next   TimerID
	timers map[TimerID]Fired
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[TimerID]Fired)}
}

// Start registers a timer firing at deadline.
func (s *Scheduler) Start(kind TimerKind, deadline time.Time) TimerID {
	s.next++
	s.timers[s.next] = Fired{ID: s.next, Kind: kind, Deadline: deadline}
	return s.next
}

// Cancel removes a timer. It reports whether the timer was still pending.
func (s *Scheduler) Cancel(id TimerID) bool {
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return true
}

// CancelAll removes every pending timer.
func (s *Scheduler) CancelAll() {
	clear(s.timers)
}

// Due removes and returns the timers whose deadline is at or before now,
// earliest first.
func (s *Scheduler) Due(now time.Time) []Fired {
	var due []Fired
	for id, t := range s.timers {
		if !t.Deadline.After(now) {
			due = append(due, t)
			delete(s.timers, id)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Deadline.Equal(due[j].Deadline) {
			return due[i].ID < due[j].ID
		}
		return due[i].Deadline.Before(due[j].Deadline)
	})
	return due
}

// Next returns the earliest pending deadline so a front end can schedule
// its next Tick.
func (s *Scheduler) Next() (time.Time, bool) {
	var next time.Time
	found := false
	for _, t := range s.timers {
		if !found || t.Deadline.Before(next) {
			next = t.Deadline
			found = true
		}
	}
	return next, found
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	return len(s.timers)
}
