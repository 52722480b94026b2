package sched

import (
	"testing"

	"github.com/procsim/procsim/internal/pcb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicyFallsBackToFCFS(t *testing.T) {
	assert.Equal(t, RoundRobin, ParsePolicy("rr"))
	assert.Equal(t, Priority, ParsePolicy("priority"))
	assert.Equal(t, FCFS, ParsePolicy("fcfs"))
	assert.Equal(t, FCFS, ParsePolicy("nonsense"))
}

// S1 — FCFS single process, per spec §8. A lone process keeps being
// dispatched across ticks even though nothing re-enqueues it, because the
// ready queue is empty and it's still runnable.
func TestFCFSSingleProcessStaysCurrentAcrossTicks(t *testing.T) {
	s := New(FCFS, 0)
	p := pcb.New(1, 0, 5)
	p.SetState(pcb.StateReady)
	s.Add(p)

	got := s.Next(0)
	require.Same(t, p, got)
	assert.Equal(t, 0, p.StartTime)

	for tick := 1; tick < 5; tick++ {
		p.RemainingTime--
		got = s.Next(tick)
		require.Same(t, p, got, "lone FCFS process must keep being dispatched at tick %d", tick)
	}
}

// S2 — Round-Robin fairness, per spec §8: three PCBs, arrival=0, total=6,
// quantum=2. Dispatch order is interleaved 1,2,3,1,2,3,1,2,3 and each
// terminates after its third slice.
func TestRoundRobinFairnessInterleaving(t *testing.T) {
	s := New(RoundRobin, 2)
	procs := []*pcb.PCB{
		pcb.New(1, 0, 6),
		pcb.New(2, 0, 6),
		pcb.New(3, 0, 6),
	}
	for _, p := range procs {
		p.SetState(pcb.StateReady)
		s.Add(p)
	}

	var dispatchOrder []pcb.PID
	now := 0
	for remaining := 18; remaining > 0; {
		cur := s.Next(now)
		require.NotNil(t, cur, "dispatch starved at now=%d", now)
		dispatchOrder = append(dispatchOrder, cur.PID)

		for i := 0; i < 2 && cur.RemainingTime > 0; i++ {
			cur.RemainingTime--
			cur.QuantumRemaining--
			cur.LastRunTime++
			remaining--
			now++
		}
		if cur.RemainingTime <= 0 {
			cur.SetState(pcb.StateTerminated)
			cur.FinishTime = now
			s.ClearCurrent()
		} else {
			s.Preempt()
		}
	}

	want := []pcb.PID{1, 2, 3, 1, 2, 3, 1, 2, 3}
	assert.Equal(t, want, dispatchOrder)
	assert.GreaterOrEqual(t, s.TotalContextSwitches(), 8)
	for _, p := range procs {
		assert.Equal(t, pcb.StateTerminated, p.State)
		assert.Greater(t, p.FinishTime, 0)
	}
}

// S3 — Priority preemption-by-admission, per spec §8: a low-priority PCB
// is already running when a higher-priority PCB arrives; the newcomer
// jumps ahead in the ready queue (dispatch only happens at the next
// opportunity — Priority is non-preemptive mid-slice).
func TestPriorityAdmissionOrdersReadyQueue(t *testing.T) {
	s := New(Priority, 0)
	low := pcb.New(1, 1, 10)
	low.SetState(pcb.StateReady)
	s.Add(low)

	cur := s.Next(0)
	require.Same(t, low, cur)

	high := pcb.New(2, 5, 3)
	high.SetState(pcb.StateReady)
	s.Add(high)

	priority, ok := s.HeadPriority()
	require.True(t, ok)
	assert.Equal(t, 5, priority, "higher-priority arrival must sit at the ready queue head")
}

// Invariant §8.7: under Priority, the ready queue's head always holds the
// highest-priority waiter.
func TestPriorityInsertionKeepsDescendingOrder(t *testing.T) {
	s := New(Priority, 0)
	priorities := []int{3, 1, 5, 2, 4}
	for i, pr := range priorities {
		p := pcb.New(pcb.PID(i+1), pr, 10)
		p.SetState(pcb.StateReady)
		s.Add(p)
	}
	head, ok := s.HeadPriority()
	require.True(t, ok)
	assert.Equal(t, 5, head)

	var order []int
	for {
		p := s.Next(0)
		if p == nil {
			break
		}
		order = append(order, p.Priority)
		s.ClearCurrent()
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1}, order)
}

// Invariant §8.8: under RR with quantum Q, a PCB never executes more than
// Q contiguous ticks without being returned to the ready queue.
func TestRoundRobinPreemptReturnsExhaustedPCBToReady(t *testing.T) {
	s := New(RoundRobin, 3)
	p := pcb.New(1, 0, 10)
	p.SetState(pcb.StateReady)
	s.Add(p)

	cur := s.Next(0)
	require.Same(t, p, cur)
	cur.QuantumRemaining = 0
	s.Preempt()

	assert.Nil(t, s.Current())
	assert.Equal(t, pcb.StateReady, p.State)
	assert.Equal(t, 1, s.ReadyLen())
}

func TestPreemptIsNoopForFCFSAndPriority(t *testing.T) {
	for _, pol := range []Policy{FCFS, Priority} {
		s := New(pol, 2)
		p := pcb.New(1, 0, 10)
		p.SetState(pcb.StateReady)
		s.Add(p)
		s.Next(0)
		s.Preempt()
		assert.Same(t, p, s.Current(), "Preempt must be a no-op outside RR")
	}
}
