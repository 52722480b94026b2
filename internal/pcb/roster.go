package pcb

// Roster is the master arena that owns every PCB for the lifetime of a
// simulation run. Every queue and device slot elsewhere in the module holds
// a *PCB obtained from a Roster; none of them own it, so dropping a queue
// reference never invalidates the PCB and two queues can never alias a
// PCB incorrectly (spec §9, "pointer-heavy data structures → ownership
// discipline").
type Roster struct {
	procs []*PCB
	byPID map[PID]*PCB
}

// NewRoster creates an empty roster with room for n processes.
func NewRoster(n int) *Roster {
	return &Roster{
		procs: make([]*PCB, 0, n),
		byPID: make(map[PID]*PCB, n),
	}
}

// Register adds p to the roster. p.PID must be unique within the roster.
func (r *Roster) Register(p *PCB) {
	r.procs = append(r.procs, p)
	r.byPID[p.PID] = p
}

// All returns every PCB in registration order. The returned slice aliases
// roster-owned storage and must not be mutated by the caller.
func (r *Roster) All() []*PCB {
	return r.procs
}

// Lookup returns the PCB for pid, or nil if unknown.
func (r *Roster) Lookup(pid PID) *PCB {
	return r.byPID[pid]
}

// Len reports how many PCBs the roster owns.
func (r *Roster) Len() int {
	return len(r.procs)
}

// Live reports how many PCBs have not reached StateTerminated.
func (r *Roster) Live() int {
	n := 0
	for _, p := range r.procs {
		if p.State != StateTerminated {
			n++
		}
	}
	return n
}
