// Package trace implements the append-only event log the tick driver
// writes to on every state transition, plus the end-of-run summary
// statistics. Grounded on original_source/src/trace.c.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/procsim/procsim/internal/pcb"
)

// EventType is one entry in the exhaustive trace vocabulary (spec §6).
type EventType string

const (
	Arrival    EventType = "ARRIVAL"
	Execute    EventType = "EXECUTE"
	IORequest  EventType = "IO_REQUEST"
	IOComplete EventType = "IO_COMPLETE"
	MutexLock  EventType = "MUTEX_LOCK"
	SemWait    EventType = "SEM_WAIT"
	Terminate  EventType = "TERMINATE"
)

// Record is one immutable trace entry. Pooled the way gaio pools aiocb
// values, since a long run can emit tens of thousands of these and the
// driver is the only writer.
type Record struct {
	Time          int
	PID           pcb.PID
	Event         EventType
	State         pcb.State
	RemainingTime int
	WaitTime      int
}

var recordPool = sync.Pool{New: func() any { return new(Record) }}

// MarshalZerologObject implements zerolog.LogObjectMarshaler, mirroring
// internal/pcb.PCB's own structured-log hook so a Record can be attached
// to a log line (or, via EmitJSON, written as a standalone JSON event)
// instead of only the flat "Time | PID | ..." text format.
func (r Record) MarshalZerologObject(e *zerolog.Event) {
	e.Int("time", r.Time).
		Int("pid", int(r.PID)).
		Str("event", string(r.Event)).
		Str("state", r.State.String()).
		Int("remaining", r.RemainingTime).
		Int("wait", r.WaitTime)
}

// Recorder accumulates Records in memory (growing by doubling, matching
// trace_event's INITIAL_CAPACITY/realloc-by-2 pattern) and mirrors every
// append to an optional line-oriented log writer.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	w       *bufio.Writer
	closer  io.Closer
}

// New creates a Recorder. If w is non-nil, every Event call also writes
// a formatted line to it and the constructor writes the three-line
// header described in spec §6; closer, if non-nil, is closed by Close.
func New(w io.Writer, closer io.Closer) *Recorder {
	r := &Recorder{closer: closer}
	if w != nil {
		r.w = bufio.NewWriter(w)
		fmt.Fprintln(r.w, "=== procsim Trace File ===")
		fmt.Fprintln(r.w, "Format: Time | PID | Event | State | Remaining | Wait")
		fmt.Fprintln(r.w, "==========================================")
		r.w.Flush()
	}
	return r
}

// Event appends one record, growing the in-memory log by doubling
// (mirrored by Go's own slice append — no hand-rolled capacity doubling
// is needed, but the append is documented here since trace_event's
// realloc-by-2 is the thing it's grounded on) and flushing a matching
// line to the log file, if configured.
func (r *Recorder) Event(time int, pid pcb.PID, event EventType, state pcb.State, remainingTime, waitTime int) {
	rec := recordPool.Get().(*Record)
	rec.Time, rec.PID, rec.Event, rec.State = time, pid, event, state
	rec.RemainingTime, rec.WaitTime = remainingTime, waitTime

	r.mu.Lock()
	r.records = append(r.records, *rec)
	if r.w != nil {
		fmt.Fprintf(r.w, "%d | %d | %s | %s | %d | %d\n", time, pid, event, state, remainingTime, waitTime)
		r.w.Flush()
	}
	r.mu.Unlock()

	*rec = Record{}
	recordPool.Put(rec)
}

// EmitJSON writes every record accumulated so far to w as one structured
// JSON log line per event, via zerolog — a sink distinct from the
// plain-text log New's writer produces, for piping simulation events to
// external tooling (e.g. a log aggregator) that expects JSON.
func (r *Recorder) EmitJSON(w io.Writer) {
	logger := zerolog.New(w)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		logger.Log().Object("record", rec).Send()
	}
}

// Records returns a copy of every record appended so far, in order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Finalize writes the footer line and flushes the underlying writer, if
// any (spec §6: "Footer: separator and 'Total events: N'").
func (r *Recorder) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return
	}
	fmt.Fprintln(r.w, "==========================================")
	fmt.Fprintf(r.w, "Total events: %d\n", len(r.records))
	r.w.Flush()
}

// Close releases the underlying file, if the Recorder owns one.
func (r *Recorder) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Summary holds the aggregate statistics reported at the end of a run
// (spec §4.9), plus the per-PCB breakdown this module's expanded scope
// adds on top of what original_source/src/trace.c's trace_print_summary
// prints to the console.
type Summary struct {
	Completed            int
	MeanTurnaround        float64
	MeanResponse          float64
	MeanWait              float64
	TotalContextSwitches  int
	PerProcess            []ProcessSummary
}

// ProcessSummary is one completed PCB's timing breakdown, supplementing
// the aggregate-only console summary the source prints.
type ProcessSummary struct {
	PID        pcb.PID
	Arrival    int
	Start      int
	Finish     int
	Turnaround int
	Response   int
	Wait       int
}

// Summarize computes turnaround/response/wait means over every completed
// PCB in procs (spec §4.9: "computes, over completed PCBs"), and reports
// the context-switch count as the sum of those PCBs' ContextSwitches.
func Summarize(procs []*pcb.PCB) Summary {
	var s Summary
	var totalTurnaround, totalResponse, totalWait float64

	for _, p := range procs {
		if p.FinishTime <= 0 {
			continue
		}
		turnaround := p.FinishTime - p.ArrivalTime
		response := p.StartTime - p.ArrivalTime
		totalTurnaround += float64(turnaround)
		totalResponse += float64(response)
		totalWait += float64(p.WaitTime)
		s.Completed++
		s.PerProcess = append(s.PerProcess, ProcessSummary{
			PID:        p.PID,
			Arrival:    p.ArrivalTime,
			Start:      p.StartTime,
			Finish:     p.FinishTime,
			Turnaround: turnaround,
			Response:   response,
			Wait:       p.WaitTime,
		})
		s.TotalContextSwitches += p.ContextSwitches
	}

	if s.Completed > 0 {
		s.MeanTurnaround = totalTurnaround / float64(s.Completed)
		s.MeanResponse = totalResponse / float64(s.Completed)
		s.MeanWait = totalWait / float64(s.Completed)
	}
	return s
}
