// Package workload generates a reproducible synthetic process population
// and drives the per-tick probabilistic event choices (I/O request, mutex
// acquisition attempt, semaphore wait) that original_source/src/main.c's
// create_processes and simulate_process_execution otherwise seed from
// srand(time(NULL)). Spec §9 asks the redesign to accept a seed instead
// of wall-clock time, so every random draw here goes through a single
// seeded source.
package workload

import (
	"math/rand/v2"

	"github.com/procsim/procsim/internal/pcb"
)

// Generator produces PCB descriptions and per-tick action choices from a
// single seeded PRNG, so a run with the same seed and same sequence of
// calls reproduces identical output.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator seeded deterministically from seed. A zero seed
// is a legitimate, reproducible choice, not a "no seed given" sentinel —
// callers that want wall-clock variation should derive seed themselves.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed))}
}

// ProcessSpec is one generated process's static parameters, handed to
// pcb.New by the caller.
type ProcessSpec struct {
	Priority int
	Total    int
	Arrival  int
}

// NextProcess draws one process specification: priority in 1..5, total
// execution time in 10..39, arrival tick in 0..9 — the exact ranges
// create_processes uses.
func (g *Generator) NextProcess() ProcessSpec {
	return ProcessSpec{
		Priority: g.rng.IntN(5) + 1,
		Total:    g.rng.IntN(30) + 10,
		Arrival:  g.rng.IntN(10),
	}
}

// Population generates count process specs in order.
func (g *Generator) Population(count int) []ProcessSpec {
	out := make([]ProcessSpec, count)
	for i := range out {
		out[i] = g.NextProcess()
	}
	return out
}

// Action is the probabilistic per-tick side effect a running PCB may
// trigger after its slice executes (spec §4.8 step 4).
type Action int

const (
	ActionNone Action = iota
	ActionIORequest
	ActionMutexLock
	ActionSemWait
)

// IORequestParams is the device/duration pair drawn for an ActionIORequest.
type IORequestParams struct {
	Device   int
	Duration int
}

// ChooseAction draws the same weighted outcome simulate_process_execution
// does: a uniform 0..99 roll, <20 I/O, 20..29 mutex, 30..39 semaphore,
// else nothing — gated on whether any mutex/semaphore/device actually
// exists, exactly as the source's `mutex_count > 0`/`semaphore_count > 0`
// guards do.
func (g *Generator) ChooseAction(haveDevices, haveMutexes, haveSemaphores bool) Action {
	roll := g.rng.IntN(100)
	switch {
	case roll < 20:
		if haveDevices {
			return ActionIORequest
		}
	case roll < 30:
		if haveMutexes {
			return ActionMutexLock
		}
	case roll < 40:
		if haveSemaphores {
			return ActionSemWait
		}
	}
	return ActionNone
}

// ChooseIORequest draws a random device index in [0,deviceCount) and a
// duration in 5..14.
func (g *Generator) ChooseIORequest(deviceCount int) IORequestParams {
	return IORequestParams{
		Device:   g.rng.IntN(deviceCount),
		Duration: g.rng.IntN(10) + 5,
	}
}

// ChooseMutex picks a uniformly random mutex index in [0,count).
func (g *Generator) ChooseMutex(count int) int { return g.rng.IntN(count) }

// ChooseSemaphore picks a uniformly random semaphore index in [0,count).
func (g *Generator) ChooseSemaphore(count int) int { return g.rng.IntN(count) }

// NewPCBs is a convenience building block tying ProcessSpec generation to
// pcb.New and registration order, the way create_processes assigns pids
// 1..count in generation order.
func NewPCBs(specs []ProcessSpec) []*pcb.PCB {
	out := make([]*pcb.PCB, len(specs))
	for i, s := range specs {
		p := pcb.New(pcb.PID(i+1), s.Priority, s.Total)
		p.ArrivalTime = s.Arrival
		out[i] = p
	}
	return out
}
