package iodev

import (
	"testing"

	"github.com/procsim/procsim/internal/pcb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStartsImmediatelyOnFreeDevice(t *testing.T) {
	m := New(2)
	p := pcb.New(1, 1, 10)
	ok := m.Request(p, 0, 5, 10)
	require.True(t, ok)
	assert.True(t, m.IsBusy(0))
	assert.Equal(t, pcb.StateBlocked, p.State)
	assert.Equal(t, 0, p.IODevice)
	assert.Equal(t, 15, p.IOEndTime)
}

func TestRequestInvalidDeviceFails(t *testing.T) {
	m := New(2)
	p := pcb.New(1, 1, 10)
	ok := m.Request(p, 5, 5, 0)
	assert.False(t, ok)
}

func TestRequestQueuesBehindBusyDevice(t *testing.T) {
	m := New(1)
	p1 := pcb.New(1, 1, 10)
	p2 := pcb.New(2, 1, 10)
	require.True(t, m.Request(p1, 0, 5, 0))
	ok := m.Request(p2, 0, 3, 0)
	assert.False(t, ok)
	assert.Equal(t, pcb.StateBlocked, p2.State)
	assert.Equal(t, 1, m.WaitQueueLen())
}

// S6 — I/O completion hand-off, per spec §8: a device finishes, its PCB
// returns to READY, and the next queued PCB targeting that same device
// takes over.
func TestTickCompletesAndHandsOffToNextWaiter(t *testing.T) {
	m := New(1)
	p1 := pcb.New(1, 1, 10)
	p2 := pcb.New(2, 1, 10)
	require.True(t, m.Request(p1, 0, 5, 0))
	require.False(t, m.Request(p2, 0, 3, 0))

	completed := m.Tick(4)
	assert.Empty(t, completed, "device not due yet")

	completed = m.Tick(5)
	require.Len(t, completed, 1)
	assert.Same(t, p1, completed[0].PCB)
	assert.Equal(t, pcb.StateReady, p1.State)
	assert.Equal(t, pcb.NoDevice, p1.IODevice)

	assert.True(t, m.IsBusy(0), "next waiter should now occupy the device")
	assert.Equal(t, pcb.StateBlocked, p2.State, "waiter stays blocked until its own completion")
}

// Preserved-bug scenario (spec §9): a waiter dequeued for a device other
// than the one it actually requested is dropped, left BLOCKED with no
// device attached, rather than requeued.
func TestTickDropsWaiterTargetingDifferentDevice(t *testing.T) {
	m := New(2)
	p1 := pcb.New(1, 1, 10)
	// p2 privately requested device 1 but we enqueue it behind device 0's
	// occupant by constructing the scenario the bug actually requires:
	// p2 is queued on the shared wait queue while IODevice names device 1.
	p2 := pcb.New(2, 1, 10)
	require.True(t, m.Request(p1, 0, 5, 0))
	p2.IODevice = 1
	p2.SetState(pcb.StateBlocked)
	m.waiting.Enqueue(p2)

	completed := m.Tick(5)
	require.Len(t, completed, 1)
	assert.Same(t, p1, completed[0].PCB)

	assert.False(t, m.IsBusy(0), "mismatched waiter must not attach to device 0")
	assert.Equal(t, pcb.StateBlocked, p2.State, "dropped waiter remains blocked forever")
	assert.Equal(t, 0, m.WaitQueueLen(), "waiter was dequeued even though it was dropped")
}

func TestStatusReflectsOccupancy(t *testing.T) {
	m := New(2)
	p := pcb.New(7, 1, 10)
	m.Request(p, 1, 5, 0)
	status := m.Status()
	require.Len(t, status, 2)
	assert.False(t, status[0].Busy)
	assert.True(t, status[1].Busy)
	assert.Equal(t, pcb.PID(7), status[1].PID)
}

func TestNewCapsDeviceCountAtMax(t *testing.T) {
	m := New(MaxDevices + 10)
	assert.Equal(t, MaxDevices, m.DeviceCount())
}
