// Package iodev simulates a small pool of I/O devices sharing a single
// global wait queue (spec §4.4). Grounded on original_source/src/io.c.
package iodev

import (
	"github.com/procsim/procsim/internal/pcb"
	"github.com/procsim/procsim/internal/queue"
)

// MaxDevices caps the device table, mirroring MAX_IO_DEVICES in
// original_source/src/io.h.
const MaxDevices = 4

// device tracks one I/O unit's busy/idle state.
type device struct {
	id      int
	busy    bool
	current *pcb.PCB
	endTime int
}

// Manager owns the device table and the single FIFO wait queue shared by
// every device — a request for a busy device waits behind requests for
// every other device too, exactly as original_source/src/io.c models it.
type Manager struct {
	devices []device
	waiting *queue.PCB
}

// New creates a Manager with the given device count, capped at
// MaxDevices.
func New(deviceCount int) *Manager {
	if deviceCount > MaxDevices {
		deviceCount = MaxDevices
	}
	if deviceCount < 0 {
		deviceCount = 0
	}
	devs := make([]device, deviceCount)
	for i := range devs {
		devs[i] = device{id: i, endTime: pcb.NoTime}
	}
	return &Manager{devices: devs, waiting: queue.NewPCBQueue()}
}

// DeviceCount reports how many devices the manager tracks.
func (m *Manager) DeviceCount() int { return len(m.devices) }

// WaitQueueLen reports how many PCBs are queued behind a busy device.
func (m *Manager) WaitQueueLen() int { return m.waiting.Size() }

// IsBusy reports whether the given device is presently serving a request.
func (m *Manager) IsBusy(deviceID int) bool {
	if deviceID < 0 || deviceID >= len(m.devices) {
		return false
	}
	return m.devices[deviceID].busy
}

// Request starts (or queues) an I/O operation for p on deviceID, due to
// complete at currentTime+duration. p moves to StateBlocked either way.
// ok reports whether the device was free and the operation started
// immediately; ok is false, with p left untouched, for an invalid
// deviceID (spec §7: invalid device index -> false/no-op).
func (m *Manager) Request(p *pcb.PCB, deviceID, duration, currentTime int) (ok bool) {
	if deviceID < 0 || deviceID >= len(m.devices) {
		return false
	}

	p.IODevice = deviceID
	p.IOEndTime = currentTime + duration
	p.SetState(pcb.StateBlocked)

	d := &m.devices[deviceID]
	if !d.busy {
		d.busy = true
		d.current = p
		d.endTime = currentTime + duration
		return true
	}

	m.waiting.Enqueue(p)
	return false
}

// Completed is one device finishing its current operation this tick.
type Completed struct {
	DeviceID int
	PCB      *pcb.PCB
}

// Tick advances every device by one step: any device whose end time has
// arrived releases its current PCB (moved to StateReady and returned to
// the caller so the tick driver can re-add it to the scheduler and trace
// the transition), then pulls the next waiter off the shared queue.
//
// The dequeued waiter is only attached to the device if its own
// IODevice still names this device id. original_source/src/io.c's
// io_update has the identical check (`next->io_device == i`) and, on a
// mismatch, simply drops the waiter on the floor — it's dequeued from
// the shared queue but never attached to any device, leaving it
// BLOCKED forever unless some other path clears it. Spec §9 allows either
// preserving this or routing mismatched waiters to a per-device queue;
// Tick preserves it verbatim.
func (m *Manager) Tick(currentTime int) []Completed {
	var completed []Completed
	for i := range m.devices {
		d := &m.devices[i]
		if !d.busy || d.endTime > currentTime {
			continue
		}

		finished := d.current
		if finished != nil {
			finished.IODevice = pcb.NoDevice
			finished.IOEndTime = pcb.NoTime
			finished.SetState(pcb.StateReady)
			completed = append(completed, Completed{DeviceID: d.id, PCB: finished})
		}

		d.busy = false
		d.current = nil
		d.endTime = pcb.NoTime

		if next, ok := m.waiting.Dequeue(); ok && next.IODevice == d.id {
			d.busy = true
			d.current = next
			d.endTime = next.IOEndTime
		}
	}
	return completed
}

// DeviceStatus is a read-only snapshot of one device for status reporting
// (spec's SUPPLEMENTED FEATURES, grounded on io_print_status).
type DeviceStatus struct {
	DeviceID int
	Busy     bool
	PID      pcb.PID
	EndTime  int
}

// Status returns a snapshot of every device's current occupancy.
func (m *Manager) Status() []DeviceStatus {
	out := make([]DeviceStatus, len(m.devices))
	for i, d := range m.devices {
		s := DeviceStatus{DeviceID: d.id, Busy: d.busy, EndTime: d.endTime}
		if d.current != nil {
			s.PID = d.current.PID
		}
		out[i] = s
	}
	return out
}
