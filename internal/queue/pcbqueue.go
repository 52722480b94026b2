package queue

import "github.com/procsim/procsim/internal/pcb"

// PCB is the concrete queue type used for every ready/wait queue in the
// simulator: a FIFO of non-owning *pcb.PCB references.
type PCB = Queue[*pcb.PCB]

// NewPCBQueue creates an empty PCB queue.
func NewPCBQueue() *PCB {
	return New[*pcb.PCB]()
}

// FindByPID locates the first queued PCB with the given pid without
// removing it, per spec §4.1's find_by_pid(pid) -> pcb?.
func FindByPID(q *PCB, pid pcb.PID) (*pcb.PCB, bool) {
	return q.FindBy(func(p *pcb.PCB) bool { return p.PID == pid })
}
