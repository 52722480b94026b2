// Package sim wires every subsystem — scheduler, allocator, I/O manager,
// synchronization primitives, trace recorder, and workload generator —
// into the single-threaded discrete-time tick loop (spec §4.8). Grounded
// on original_source/src/main.c's simulation loop and, for the Go idiom
// of a single owning loop advancing by discrete steps under
// context.Context cancellation, on _examples/socket515-gaio/watcher.go's
// loop().
package sim

import (
	"context"
	"fmt"

	"github.com/procsim/procsim/internal/alloc"
	"github.com/procsim/procsim/internal/iodev"
	"github.com/procsim/procsim/internal/pcb"
	"github.com/procsim/procsim/internal/sched"
	"github.com/procsim/procsim/internal/syncprim"
	"github.com/procsim/procsim/internal/trace"
	"github.com/procsim/procsim/internal/workload"
)

// Default constants from spec §6.
const (
	DefaultHeapSize       = 1 << 20 // 1 MiB
	MaxPCBs               = 20
	DefaultQuantum        = 5
	DefaultMaxTime        = 100
	DefaultMutexCount     = 3
	DefaultSemaphoreCount = 2
	DefaultSemaphoreInit  = 2
	DefaultDeviceCount    = 4
)

// Config configures one simulation run. Zero-valued fields fall back to
// the spec's documented defaults via New, the same way main.c's CLI
// parsing clamps invalid numerics back to its DEFAULT_* constants
// instead of rejecting them.
type Config struct {
	Policy         sched.Policy
	Quantum        int
	MaxTime        int
	ProcessCount   int
	Seed           uint64
	HeapSize       int
	DeviceCount    int
	MutexCount     int
	SemaphoreCount int
}

func (c Config) withDefaults() Config {
	if c.Quantum < 1 {
		c.Quantum = DefaultQuantum
	}
	if c.MaxTime < 1 {
		c.MaxTime = DefaultMaxTime
	}
	if c.ProcessCount < 1 {
		c.ProcessCount = 5
	}
	if c.ProcessCount > MaxPCBs {
		c.ProcessCount = MaxPCBs
	}
	if c.HeapSize < 1 {
		c.HeapSize = DefaultHeapSize
	}
	if c.DeviceCount < 1 {
		c.DeviceCount = DefaultDeviceCount
	}
	if c.MutexCount < 1 {
		c.MutexCount = DefaultMutexCount
	}
	if c.SemaphoreCount < 1 {
		c.SemaphoreCount = DefaultSemaphoreCount
	}
	return c
}

// Driver owns every subsystem instance for one simulation run and steps
// them together, tick by tick.
type Driver struct {
	cfg Config

	roster  *pcb.Roster
	sched   *sched.Scheduler
	heap    *alloc.Allocator
	io      *iodev.Manager
	mutexes []*syncprim.Mutex
	sems    []*syncprim.Semaphore
	tracer  *trace.Recorder
	gen     *workload.Generator

	now    int
	active int
}

// New builds a Driver with a fresh roster of ProcessCount generated PCBs
// and every supporting subsystem, ready to Run. tracer may be nil — the
// driver still accumulates records in memory even with no backing file.
func New(cfg Config, tracer *trace.Recorder) *Driver {
	cfg = cfg.withDefaults()
	if tracer == nil {
		tracer = trace.New(nil, nil)
	}

	gen := workload.New(cfg.Seed)
	specs := gen.Population(cfg.ProcessCount)
	procs := workload.NewPCBs(specs)

	roster := pcb.NewRoster(len(procs))
	for _, p := range procs {
		roster.Register(p)
	}

	mutexes := make([]*syncprim.Mutex, cfg.MutexCount)
	for i := range mutexes {
		mutexes[i] = syncprim.NewMutex(i)
	}
	sems := make([]*syncprim.Semaphore, cfg.SemaphoreCount)
	for i := range sems {
		sems[i] = syncprim.NewSemaphore(i, DefaultSemaphoreInit)
	}

	return &Driver{
		cfg:     cfg,
		roster:  roster,
		sched:   sched.New(cfg.Policy, cfg.Quantum),
		heap:    alloc.New(cfg.HeapSize),
		io:      iodev.New(cfg.DeviceCount),
		mutexes: mutexes,
		sems:    sems,
		tracer:  tracer,
		gen:     gen,
		active:  len(procs),
	}
}

// Roster exposes the PCB roster for post-run reporting.
func (d *Driver) Roster() *pcb.Roster { return d.roster }

// Heap exposes the allocator for post-run reporting.
func (d *Driver) Heap() *alloc.Allocator { return d.heap }

// IO exposes the I/O manager for post-run reporting.
func (d *Driver) IO() *iodev.Manager { return d.io }

// Tracer exposes the trace recorder for post-run reporting.
func (d *Driver) Tracer() *trace.Recorder { return d.tracer }

// Now reports the current simulated tick.
func (d *Driver) Now() int { return d.now }

// Run advances the simulation until max_time is reached, no live PCBs
// remain, or ctx is cancelled — whichever comes first. It returns
// ctx.Err() only on cancellation; a normal end-of-simulation is nil.
func (d *Driver) Run(ctx context.Context) error {
	for d.now < d.cfg.MaxTime && d.active > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.tick()
		d.now++
	}
	d.tracer.Finalize()
	return nil
}

// tick performs one iteration of the driver loop, in the order spec §4.8
// and §5's ordering guarantees require: admission, I/O poll, dispatch,
// execute, post-run bookkeeping, accounting.
func (d *Driver) tick() {
	d.admit()
	d.pollIO()

	cur := d.sched.Next(d.now)
	if cur != nil && cur.State == pcb.StateRunning {
		d.execute(cur)
	}

	d.account()
}

func (d *Driver) admit() {
	for _, p := range d.roster.All() {
		if p.State == pcb.StateNew && p.ArrivalTime <= d.now {
			p.SetState(pcb.StateReady)
			d.sched.Add(p)
			d.tracer.Event(d.now, p.PID, trace.Arrival, p.State, p.RemainingTime, p.WaitTime)
		}
	}
}

func (d *Driver) pollIO() {
	for _, c := range d.io.Tick(d.now) {
		d.sched.Add(c.PCB)
		d.tracer.Event(d.now, c.PCB.PID, trace.IOComplete, c.PCB.State, c.PCB.RemainingTime, c.PCB.WaitTime)
	}
}

// execute runs cur for exactly one tick's worth of work (spec §4.8 step
// 4 and DESIGN.md's decision on per-tick granularity), decrementing the
// Round-Robin quantum in step with it, then rolls the probabilistic
// action and post-run bookkeeping.
func (d *Driver) execute(cur *pcb.PCB) {
	cur.RemainingTime--
	cur.LastRunTime++
	if d.cfg.Policy == sched.RoundRobin {
		cur.QuantumRemaining--
	}

	if cur.RemainingTime > 0 {
		d.rollAction(cur)
	}

	d.tracer.Event(d.now, cur.PID, trace.Execute, cur.State, cur.RemainingTime, cur.WaitTime)

	switch {
	case cur.RemainingTime <= 0:
		cur.SetState(pcb.StateTerminated)
		cur.FinishTime = d.now + 1
		d.active--
		d.tracer.Event(d.now+1, cur.PID, trace.Terminate, cur.State, 0, cur.WaitTime)
		d.sched.ClearCurrent()
	case cur.State == pcb.StateBlocked:
		d.sched.ClearCurrent()
	case d.cfg.Policy == sched.RoundRobin && cur.QuantumRemaining <= 0:
		d.sched.Preempt()
	}
}

// rollAction mirrors simulate_process_execution's weighted dice roll:
// ~20% I/O request, ~10% mutex lock attempt, ~10% semaphore wait, else
// nothing — each gated on a corresponding resource actually existing,
// same as the source's count > 0 guards.
func (d *Driver) rollAction(cur *pcb.PCB) {
	haveDevices := d.io.DeviceCount() > 0
	haveMutexes := len(d.mutexes) > 0
	haveSems := len(d.sems) > 0

	switch d.gen.ChooseAction(haveDevices, haveMutexes, haveSems) {
	case workload.ActionIORequest:
		req := d.gen.ChooseIORequest(d.io.DeviceCount())
		d.io.Request(cur, req.Device, req.Duration, d.now)
		d.tracer.Event(d.now, cur.PID, trace.IORequest, cur.State, cur.RemainingTime, cur.WaitTime)
	case workload.ActionMutexLock:
		id := d.gen.ChooseMutex(len(d.mutexes))
		m := d.mutexes[id]
		if !m.Locked() {
			m.Lock(cur)
			d.tracer.Event(d.now, cur.PID, trace.MutexLock, cur.State, cur.RemainingTime, cur.WaitTime)
		}
	case workload.ActionSemWait:
		id := d.gen.ChooseSemaphore(len(d.sems))
		d.sems[id].Wait(cur)
		d.tracer.Event(d.now, cur.PID, trace.SemWait, cur.State, cur.RemainingTime, cur.WaitTime)
	}
}

// account advances wait_time/blocked_time for every live PCB not
// currently running (spec §4.8 step 6).
func (d *Driver) account() {
	for _, p := range d.roster.All() {
		switch p.State {
		case pcb.StateReady:
			p.WaitTime++
		case pcb.StateBlocked:
			p.BlockedTime++
		}
	}
}

// String reports a one-line run summary, useful for quick CLI logging.
func (d *Driver) String() string {
	return fmt.Sprintf("sim[now=%d active=%d policy=%s]", d.now, d.active, d.cfg.Policy)
}
