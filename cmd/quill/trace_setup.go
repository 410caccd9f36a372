package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/trace"
)

// activeTrace is the tracer of the running command; main closes it.
var activeTrace struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	output    string
}

func addTraceFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
}

// setupTracing inspects trace-related flags and attaches the tracer to the
// command context.
func setupTracing(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := pf.GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	// --trace without a level means phase tracing
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	activeTrace.tracer = tracer
	activeTrace.output = traceOutput
	activeTrace.heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)

	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// finishTracing stops the heartbeat, dumps the ring when the run failed and
// closes the tracer.
func finishTracing(root *cobra.Command, runErr error) {
	t := activeTrace.tracer
	if t == nil {
		return
	}
	activeTrace.heartbeat.Stop()
	errOut := root.ErrOrStderr()

	if ring, ok := trace.RingOf(t); ok && runErr != nil {
		if err := dumpRing(ring, activeTrace.output); err != nil {
			fmt.Fprintf(errOut, "trace: dump error: %v\n", err)
		}
	}
	if err := t.Flush(); err != nil {
		fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
	}
	if err := t.Close(); err != nil {
		fmt.Fprintf(errOut, "trace: close error: %v\n", err)
	}
	activeTrace.tracer = nil
}

func dumpRing(ring *trace.RingTracer, output string) error {
	if output == "" || output == "-" {
		fmt.Fprintf(os.Stderr, "--- last %d trace events (%d older dropped) ---\n", len(ring.Snapshot()), ring.Dropped())
		return ring.Dump(os.Stderr, trace.FormatText)
	}
	path := output
	if _, err := os.Stat(path); err == nil {
		// stream output already lives there
		path = fmt.Sprintf("%s.crash-%s", output, time.Now().Format("20060102-150405"))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ring.Dump(f, trace.FormatText)
}
