// Package pcb defines the process control block: the per-process record
// carrying every bit of state the scheduler, I/O manager, and sync
// primitives need to see and mutate.
package pcb

import (
	"fmt"

	"github.com/rs/zerolog"
)

// State is one position in the PCB lifecycle.
type State int

const (
	StateNew State = iota
	StateReady
	StateRunning
	StateBlocked
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateBlocked:
		return "BLOCKED"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// NoDevice, NoTime and NoSemaphore are the explicit absence markers for the
// resource back-references the source models with -1. The sentinel values
// are kept, but named, rather than replaced by an optional type.
const (
	NoDevice    = -1
	NoTime      = -1
	NoSemaphore = -1
)

// PID identifies a PCB within the roster. PIDs are positive and assigned in
// registration order.
type PID int

// MutexRef is the minimal view of a mutex a PCB needs to hold as a
// back-reference, without internal/pcb importing internal/syncprim (which
// itself references *PCB). Concrete mutexes in internal/syncprim satisfy
// this via their ID.
type MutexRef struct {
	ID int
}

// PCB is the per-process control block. All fields are exported because the
// scheduler, I/O manager, and sync primitives all need to read and mutate
// them directly — this is the shared substrate spec.md describes, not a
// general-purpose type meant to encapsulate its own invariants.
type PCB struct {
	PID      PID
	State    State
	Priority int // 1..5, higher is more urgent

	ArrivalTime   int
	StartTime     int // NoTime until first RUNNING
	FinishTime    int // NoTime until TERMINATED
	TotalTime     int
	RemainingTime int
	WaitTime      int // accumulated ticks spent READY
	BlockedTime   int // accumulated ticks spent BLOCKED

	IODevice    int // NoDevice if none
	IOEndTime   int // NoTime if none
	Mutex       *MutexRef
	SemaphoreID int // NoSemaphore if none

	ContextSwitches int
	LastRunTime     int

	// QuantumRemaining is scratch state the Round-Robin scheduler owns; it
	// lives here because the scheduler never holds a PCB-specific struct of
	// its own, only references into the roster (see internal/sched).
	QuantumRemaining int

	// Stack is a reserved per-process scratch region of fixed size, carried
	// over from the original simulator's pcb_create. Not read by the core;
	// kept for future context-save experiments.
	Stack [4096]byte
}

// New creates a PCB in state StateNew with RemainingTime initialized to
// totalTime and every sentinel cleared.
func New(pid PID, priority, totalTime int) *PCB {
	return &PCB{
		PID:           pid,
		State:         StateNew,
		Priority:      priority,
		StartTime:     NoTime,
		FinishTime:    NoTime,
		TotalTime:     totalTime,
		RemainingTime: totalTime,
		IODevice:      NoDevice,
		IOEndTime:     NoTime,
		SemaphoreID:   NoSemaphore,
	}
}

// SetState mutates State with no side effects; transition legality is
// enforced by callers (the scheduler, I/O manager, and sync primitives),
// exactly as original_source/src/pcb.c's pcb_set_state does.
func (p *PCB) SetState(s State) {
	p.State = s
}

func (p *PCB) String() string {
	return fmt.Sprintf("PCB[pid=%d state=%s priority=%d remaining=%d wait=%d]",
		p.PID, p.State, p.Priority, p.RemainingTime, p.WaitTime)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler, so a PCB can
// be attached to a structured log line with e.g. event.Object("pcb", p)
// instead of falling back to String()'s flat text.
func (p *PCB) MarshalZerologObject(e *zerolog.Event) {
	e.Int("pid", int(p.PID)).
		Str("state", p.State.String()).
		Int("priority", p.Priority).
		Int("remaining", p.RemainingTime).
		Int("wait", p.WaitTime).
		Int("arrival", p.ArrivalTime)
}
