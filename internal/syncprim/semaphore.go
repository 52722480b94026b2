package syncprim

import (
	"github.com/procsim/procsim/internal/pcb"
	"github.com/procsim/procsim/internal/queue"
)

// Semaphore is a simulated counting semaphore: 0 <= count <= maxCount, and
// the wait queue is nonempty only when count == 0 (spec §3).
type Semaphore struct {
	ID        int
	count     int
	maxCount  int
	waitQueue *queue.PCB
}

// NewSemaphore creates a semaphore with the given initial and max count.
func NewSemaphore(id, initialCount int) *Semaphore {
	return &Semaphore{
		ID:        id,
		count:     initialCount,
		maxCount:  initialCount,
		waitQueue: queue.NewPCBQueue(),
	}
}

// Count returns the current token count.
func (s *Semaphore) Count() int { return s.count }

// MaxCount returns the ceiling tokens may never exceed.
func (s *Semaphore) MaxCount() int { return s.maxCount }

// WaitQueueLen reports how many PCBs are blocked on this semaphore.
func (s *Semaphore) WaitQueueLen() int { return s.waitQueue.Size() }

// Wait attempts to acquire a token for p. If a token is available it is
// consumed and Wait returns true. Otherwise p is enqueued, moved to
// StateBlocked, and Wait returns false.
func (s *Semaphore) Wait(p *pcb.PCB) bool {
	if s.count > 0 {
		s.count--
		p.SemaphoreID = s.ID
		return true
	}
	s.waitQueue.Enqueue(p)
	p.SetState(pcb.StateBlocked)
	p.SemaphoreID = s.ID
	return false
}

// Signal releases a token. If a waiter exists it is released directly back
// to StateReady (the returned PCB — the tick driver re-adds it to the
// scheduler and traces the transition, same decision as Mutex.Unlock).
// Otherwise the count is incremented, capped at maxCount.
func (s *Semaphore) Signal() (released *pcb.PCB) {
	if next, ok := s.waitQueue.Dequeue(); ok {
		next.SetState(pcb.StateReady)
		next.SemaphoreID = pcb.NoSemaphore
		return next
	}
	if s.count < s.maxCount {
		s.count++
	}
	return nil
}
