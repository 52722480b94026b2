// Command procsim runs the tick-driven operating-system simulator:
// process admission, CPU scheduling, I/O, and synchronization over a
// synthetic workload, emitting a textual trace and a summary. Grounded
// on original_source/src/main.c's CLI surface and driver wiring.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/procsim/procsim/internal/sched"
	"github.com/procsim/procsim/internal/sim"
	"github.com/procsim/procsim/internal/trace"
)

const banner = `
+---------------------------------------------------------+
|                  procsim - OS simulation                |
|        user-space scheduling/memory/IO/sync core         |
+---------------------------------------------------------+
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("procsim", flag.ContinueOnError)

	algo := fs.String("a", "fcfs", "scheduling algorithm: fcfs, rr, priority")
	numProcs := fs.Int("n", 5, "number of processes (1..20)")
	quantum := fs.Int("q", sim.DefaultQuantum, "Round-Robin quantum")
	maxTime := fs.Int("t", sim.DefaultMaxTime, "max simulation ticks")
	seed := fs.Int64("seed", time.Now().UnixNano(), "PRNG seed (reproducible runs)")
	tracePath := fs.String("trace", "", "trace file path (default traces/<timestamp>.trace)")
	jsonTracePath := fs.String("trace-json", "", "additionally emit every trace event as JSON to this path")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	fmt.Println(banner)

	cfg := sim.Config{
		Policy:       sched.ParsePolicy(*algo),
		Quantum:      clampMin(*quantum, 1, sim.DefaultQuantum),
		MaxTime:      clampMin(*maxTime, 1, sim.DefaultMaxTime),
		ProcessCount: clampRange(*numProcs, 1, sim.MaxPCBs, 5),
		Seed:         uint64(*seed),
	}

	log.Info().
		Str("policy", cfg.Policy.String()).
		Int("processes", cfg.ProcessCount).
		Int("quantum", cfg.Quantum).
		Int("max_time", cfg.MaxTime).
		Int64("seed", *seed).
		Msg("configuration")

	tracer, closeTracer, err := openTracer(*tracePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open trace file")
		return 1
	}
	defer closeTracer()

	driver := sim.New(cfg, tracer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("simulation started")
	if err := driver.Run(ctx); err != nil {
		log.Error().Err(err).Msg("simulation interrupted")
		return 1
	}
	log.Info().Int("ticks", driver.Now()).Msg("simulation finished")
	for _, p := range driver.Roster().All() {
		log.Debug().Object("pcb", p).Msg("final pcb state")
	}

	if *jsonTracePath != "" {
		if err := emitJSONTrace(*jsonTracePath, driver.Tracer()); err != nil {
			log.Error().Err(err).Msg("failed to write JSON trace")
			return 1
		}
	}

	printSummary(driver)
	return 0
}

// emitJSONTrace writes the run's full trace to path as one JSON object
// per line, via trace.Recorder.EmitJSON, alongside the plain-text trace
// -trace already produces.
func emitJSONTrace(path string, tracer *trace.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	tracer.EmitJSON(f)
	return nil
}

// openTracer creates the trace log at path (or a timestamped default
// under traces/ when path is empty), matching spec §6's
// "traces/<filename>" convention. The returned Recorder writes to the
// created file, and the returned func closes it.
func openTracer(path string) (*trace.Recorder, func(), error) {
	if path == "" {
		if err := os.MkdirAll("traces", 0o755); err != nil {
			return nil, func() {}, err
		}
		path = fmt.Sprintf("traces/%d.trace", time.Now().Unix())
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, func() {}, err
	}
	return trace.New(f, f), func() { f.Close() }, nil
}

func printSummary(d *sim.Driver) {
	s := trace.Summarize(d.Roster().All())
	fmt.Println("\nSummary")
	fmt.Println("-------")
	for _, p := range s.PerProcess {
		fmt.Printf("PID %d: arrival=%d start=%d finish=%d turnaround=%d response=%d wait=%d\n",
			p.PID, p.Arrival, p.Start, p.Finish, p.Turnaround, p.Response, p.Wait)
	}
	if s.Completed > 0 {
		fmt.Printf("\nMean turnaround: %.2f\n", s.MeanTurnaround)
		fmt.Printf("Mean response:   %.2f\n", s.MeanResponse)
		fmt.Printf("Mean wait:       %.2f\n", s.MeanWait)
	}

	stats := d.Heap().Stats()
	fmt.Printf("\nHeap: %d/%d bytes used, %d allocations, %d frees\n",
		stats.UsedSpace, stats.TotalSize, stats.Allocations, stats.Frees)

	fmt.Println("\nDevices:")
	for _, status := range d.IO().Status() {
		if status.Busy {
			fmt.Printf("  device %d: busy (PID %d, until t=%d)\n", status.DeviceID, status.PID, status.EndTime)
		} else {
			fmt.Printf("  device %d: idle\n", status.DeviceID)
		}
	}
}

func clampMin(v, min, fallback int) int {
	if v < min {
		return fallback
	}
	return v
}

func clampRange(v, lo, hi, fallback int) int {
	if v < lo || v > hi {
		return fallback
	}
	return v
}
