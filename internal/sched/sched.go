// Package sched implements the three interchangeable CPU scheduling
// policies — FCFS, Round-Robin, and Priority — sharing a single ready queue
// (spec §4.7). Grounded on original_source/src/scheduler.c.
package sched

import (
	"github.com/procsim/procsim/internal/pcb"
	"github.com/procsim/procsim/internal/queue"
)

// Policy selects the scheduling discipline.
type Policy int

const (
	FCFS Policy = iota
	RoundRobin
	Priority
)

func (p Policy) String() string {
	switch p {
	case FCFS:
		return "fcfs"
	case RoundRobin:
		return "rr"
	case Priority:
		return "priority"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a CLI algorithm name to a Policy, falling back to FCFS
// for anything unrecognized (spec §6: "Unknown algorithm -> fall back to
// FCFS").
func ParsePolicy(name string) Policy {
	switch name {
	case "rr":
		return RoundRobin
	case "priority":
		return Priority
	default:
		return FCFS
	}
}

// Scheduler holds one ready queue and a policy tag. Unlike the ready/wait
// queues elsewhere in the module, Scheduler also tracks the currently
// running PCB and Round-Robin's quantum bookkeeping, because get_next's
// dispatch protocol needs them (spec §4.7).
type Scheduler struct {
	policy  Policy
	ready   *queue.PCB
	quantum int

	current             *pcb.PCB
	totalContextSwitches int
}

// New creates a Scheduler for the given policy with the given Round-Robin
// quantum (ignored by FCFS and Priority).
func New(policy Policy, quantum int) *Scheduler {
	return &Scheduler{
		policy:  policy,
		ready:   queue.NewPCBQueue(),
		quantum: quantum,
	}
}

// Policy reports the scheduler's configured discipline.
func (s *Scheduler) Policy() Policy { return s.policy }

// Current returns the PCB presently marked RUNNING by this scheduler, or
// nil.
func (s *Scheduler) Current() *pcb.PCB { return s.current }

// ReadyLen reports how many PCBs are waiting in the ready queue (excludes
// the currently running PCB).
func (s *Scheduler) ReadyLen() int { return s.ready.Size() }

// TotalContextSwitches reports the global context-switch counter
// incremented once per dispatch (spec §4.7 step 3).
func (s *Scheduler) TotalContextSwitches() int { return s.totalContextSwitches }

// Add inserts p into the ready queue according to policy (spec §4.7):
//   - FCFS/RR append to the tail.
//   - Priority performs a stable insertion sort descending by Priority,
//     walking until the current element's priority is strictly less than
//     p's, and inserting before it.
func (s *Scheduler) Add(p *pcb.PCB) {
	if s.policy != Priority {
		s.ready.Enqueue(p)
		return
	}
	s.insertByPriority(p)
}

func (s *Scheduler) insertByPriority(p *pcb.PCB) {
	// The generic Queue type doesn't expose positional insertion, so the
	// priority ordering is rebuilt by draining and re-enqueueing — the
	// queue never grows past MaxPCBs (spec §6), so this stays cheap.
	var buf []*pcb.PCB
	inserted := false
	for {
		v, ok := s.ready.Dequeue()
		if !ok {
			break
		}
		if !inserted && v.Priority < p.Priority {
			buf = append(buf, p)
			inserted = true
		}
		buf = append(buf, v)
	}
	if !inserted {
		buf = append(buf, p)
	}
	for _, v := range buf {
		s.ready.Enqueue(v)
	}
}

// Next implements the dispatch protocol of spec §4.7, generalized per
// policy so that a still-runnable current PCB only yields the CPU when
// its own policy says it should:
//
//  1. RR continues the current PCB unchanged while it still has quantum
//     and remaining work.
//  2. FCFS continues the current PCB unchanged for as long as it's
//     still RUNNING with work left — FCFS never preempts mid-burst, no
//     matter what arrives behind it.
//  3. Priority continues the current PCB unless the ready queue's head
//     now outranks it, in which case it falls through to step 4 and is
//     preempted by admission.
//  4. Otherwise the ready queue's head is dequeued. A prior running PCB
//     distinct from the new one, if it still has work left, is
//     explicitly returned to StateReady and re-enqueued, counting a
//     context switch on it.
//  5. The new PCB becomes current, its quantum resets, it's marked
//     RUNNING, StartTime is set if unset, and the global context-switch
//     counter increments.
//
// original_source/src/scheduler.c's get_next only ever special-cases
// continuation for RR; under FCFS or Priority a non-empty ready queue
// would unconditionally displace a still-running PCB, orphaning it
// forever (re-enqueue there is also RR-only) — the exact bug spec §9
// flags for Priority ("may dequeue the current running PCB ... without
// explicitly returning the displaced process to READY"). Making the
// state transition explicit (the redesign direction spec §9 asks for)
// only has an observable effect once the displaced PCB is actually
// re-enqueued somewhere it can be dispatched from again, so this
// generalizes re-enqueue-on-displacement to every policy rather than
// just RR: FCFS never triggers it (it never yields its own current PCB
// to a mere arrival), and Priority needs it to let a preempted PCB
// resume after the process that displaced it finishes (spec §8's S3).
func (s *Scheduler) Next(now int) *pcb.PCB {
	if s.current != nil && s.current.RemainingTime > 0 && s.current.State == pcb.StateRunning {
		switch s.policy {
		case RoundRobin:
			if s.current.QuantumRemaining > 0 {
				return s.current
			}
		case FCFS:
			return s.current
		case Priority:
			if headPriority, ok := s.HeadPriority(); !ok || headPriority <= s.current.Priority {
				return s.current
			}
		}
	}

	next, ok := s.ready.Dequeue()
	if !ok {
		if s.current != nil && s.current.RemainingTime > 0 && s.current.State == pcb.StateRunning {
			return s.current
		}
		return nil
	}

	if prev := s.current; prev != nil && prev != next && prev.State == pcb.StateRunning {
		if prev.RemainingTime > 0 {
			prev.SetState(pcb.StateReady)
			s.Add(prev)
		}
		prev.ContextSwitches++
	}

	s.current = next
	next.QuantumRemaining = s.quantum
	next.SetState(pcb.StateRunning)
	if next.StartTime == pcb.NoTime {
		next.StartTime = now
	}
	s.totalContextSwitches++

	return next
}

// Preempt returns the current PCB to the ready queue when its Round-Robin
// quantum has been exhausted but it still has work left (spec §4.7). It is
// a no-op for any other policy, or if the quantum hasn't expired.
func (s *Scheduler) Preempt() {
	if s.policy != RoundRobin || s.current == nil {
		return
	}
	if s.current.QuantumRemaining <= 0 && s.current.RemainingTime > 0 {
		p := s.current
		p.SetState(pcb.StateReady)
		s.Add(p)
		s.current = nil
	}
}

// ClearCurrent detaches the scheduler's notion of the running PCB without
// touching the ready queue — used by the tick driver when a PCB terminates
// or blocks mid-slice, both of which leave the ready queue untouched.
func (s *Scheduler) ClearCurrent() {
	s.current = nil
}

// HeadPriority returns the priority of the ready queue's head, used by
// property tests asserting the Priority invariant (spec §8.7).
func (s *Scheduler) HeadPriority() (priority int, ok bool) {
	head, found := s.ready.Peek()
	if !found {
		return 0, false
	}
	return head.Priority, true
}
