// Package syncprim implements the mutex and counting semaphore primitives
// PCBs block on (spec §4.5, §4.6): direct-hand-off mutexes and counting
// semaphores, each with their own FIFO wait queue of blocked PCBs.
package syncprim

import (
	"github.com/procsim/procsim/internal/pcb"
	"github.com/procsim/procsim/internal/queue"
)

// Mutex is a simulated lock: locked ⟺ owner != nil (spec §3).
type Mutex struct {
	ID        int
	locked    bool
	owner     *pcb.PCB
	waitQueue *queue.PCB
}

// NewMutex creates an unlocked mutex identified by id.
func NewMutex(id int) *Mutex {
	return &Mutex{ID: id, waitQueue: queue.NewPCBQueue()}
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool { return m.locked }

// Owner returns the current holder, or nil if unlocked.
func (m *Mutex) Owner() *pcb.PCB { return m.owner }

// WaitQueueLen reports how many PCBs are blocked on this mutex.
func (m *Mutex) WaitQueueLen() int { return m.waitQueue.Size() }

// Lock attempts to acquire the mutex on behalf of p. If the mutex is free,
// p becomes the owner immediately and Lock returns true. Otherwise p is
// enqueued on the wait queue, moved to StateBlocked, and Lock returns false.
func (m *Mutex) Lock(p *pcb.PCB) bool {
	if !m.locked {
		m.locked = true
		m.owner = p
		p.Mutex = &pcb.MutexRef{ID: m.ID}
		return true
	}
	m.waitQueue.Enqueue(p)
	p.SetState(pcb.StateBlocked)
	return false
}

// Unlock releases the mutex. If a waiter exists it receives the lock by
// direct hand-off — it becomes the new owner without re-contending — is
// moved to StateReady here, and is returned so the caller can put it back
// onto the scheduler's ready queue and trace the transition (spec §9's open
// question on emitting a READY event: this module sets the state and also
// hands the recipient back, the same as Semaphore.Signal).
//
// Unlock returns false, with no state change, if the mutex was already
// unlocked (spec §7).
func (m *Mutex) Unlock() (handedOffTo *pcb.PCB, ok bool) {
	if !m.locked {
		return nil, false
	}
	if m.owner != nil {
		m.owner.Mutex = nil
	}
	m.owner = nil
	m.locked = false

	if next, got := m.waitQueue.Dequeue(); got {
		m.locked = true
		m.owner = next
		next.Mutex = &pcb.MutexRef{ID: m.ID}
		next.SetState(pcb.StateReady)
		return next, true
	}
	return nil, true
}
