// Package state records bridge lifecycle milestones as an append-only trail
// of steps, surfaced to the operator for troubleshooting. Dispatch logic
// never reads the trail back.
package state

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status of a recorded step.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Element is a read-only snapshot of one step.
type Element struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}

// Listener is notified after every trail mutation.
type Listener func()

// Trail is an append-only sequence of named steps. Safe for concurrent use.
type Trail struct {
	mu        sync.Mutex
	steps     []*Step
	listeners []Listener
}

// Step is a single in-flight or finished milestone.
type Step struct {
	trail     *Trail
	name      string
	startedAt time.Time

	mu     sync.Mutex
	status Status
}

// NewTrail creates an empty trail.
func NewTrail() *Trail {
	return &Trail{}
}

// Start appends a pending step and returns its handle.
func (t *Trail) Start(name string) *Step {
	s := &Step{trail: t, name: name, startedAt: time.Now(), status: StatusPending}

	t.mu.Lock()
	t.steps = append(t.steps, s)
	t.mu.Unlock()

	t.notify()
	return s
}

// Subscribe registers a listener called after every mutation.
func (t *Trail) Subscribe(l Listener) {
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()
}

func (t *Trail) notify() {
	t.mu.Lock()
	ls := make([]Listener, len(t.listeners))
	copy(ls, t.listeners)
	t.mu.Unlock()

	for _, l := range ls {
		l()
	}
}

// Elements returns a snapshot of all steps in append order.
func (t *Trail) Elements() []Element {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Element, 0, len(t.steps))
	for _, s := range t.steps {
		s.mu.Lock()
		out = append(out, Element{Name: s.name, Status: s.status, StartedAt: s.startedAt})
		s.mu.Unlock()
	}
	return out
}

// Summary renders the trail as one line per step.
func (t *Trail) Summary() string {
	var b strings.Builder
	for _, e := range t.Elements() {
		fmt.Fprintf(&b, "%s %s\n", marker(e.Status), e.Name)
	}
	return b.String()
}

func marker(s Status) string {
	switch s {
	case StatusSuccess:
		return "[ok]"
	case StatusFailed:
		return "[!!]"
	default:
		return "[..]"
	}
}

// Complete marks the step successful. Completing a finished step is a no-op.
func (s *Step) Complete() {
	s.finish(StatusSuccess)
}

// Fail marks the step failed. Failing a finished step is a no-op.
func (s *Step) Fail() {
	s.finish(StatusFailed)
}

// Name returns the step's description.
func (s *Step) Name() string { return s.name }

func (s *Step) finish(st Status) {
	s.mu.Lock()
	if s.status != StatusPending {
		s.mu.Unlock()
		return
	}
	s.status = st
	s.mu.Unlock()

	s.trail.notify()
}
