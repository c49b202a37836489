package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ocahooks/internal/trace"
)

// traceFlags are the --trace* flag values.
type traceFlags struct {
	output    string
	level     string
	mode      string
	format    string
	ringSize  int
	heartbeat time.Duration
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	flags := cmd.Root().PersistentFlags()
	var tf traceFlags
	var err error
	for name, dst := range map[string]*string{
		"trace":        &tf.output,
		"trace-level":  &tf.level,
		"trace-mode":   &tf.mode,
		"trace-format": &tf.format,
	} {
		if *dst, err = flags.GetString(name); err != nil {
			return tf, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	if tf.ringSize, err = flags.GetInt("trace-ring-size"); err != nil {
		return tf, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if tf.heartbeat, err = flags.GetDuration("trace-heartbeat"); err != nil {
		return tf, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	return tf, nil
}

// config turns the flags into a tracer config. --trace without a level gets
// phase events.
func (tf traceFlags) config() (trace.Config, error) {
	cfg := trace.Config{OutputPath: tf.output, RingSize: tf.ringSize}
	var err error
	if cfg.Level, err = trace.ParseLevel(tf.level); err != nil {
		return cfg, fmt.Errorf("invalid trace level: %w", err)
	}
	if cfg.Level == trace.LevelOff && tf.output != "" {
		cfg.Level = trace.LevelPhase
	}
	if cfg.Level == trace.LevelOff {
		return cfg, nil
	}
	if cfg.Mode, err = trace.ParseMode(tf.mode); err != nil {
		return cfg, fmt.Errorf("invalid trace mode: %w", err)
	}
	if cfg.Format, err = trace.ParseFormat(tf.format); err != nil {
		return cfg, fmt.Errorf("invalid trace format: %w", err)
	}
	return cfg, nil
}

// setupTracing attaches the tracer built from the flags to the command
// context. The returned cleanup stops the heartbeat and closes the tracer.
func setupTracing(cmd *cobra.Command) (func(), error) {
	tf, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := tf.config()
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
	if !tracer.Enabled() {
		return func() {}, nil
	}

	stopHeartbeat := trace.StartHeartbeat(tracer, tf.heartbeat)
	return func() {
		stopHeartbeat()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpRing writes the ring buffer of the current tracer, if there is one.
// Used after a check panicked.
func dumpRing(cmd *cobra.Command, w io.Writer) {
	ring := trace.Ring(trace.FromContext(cmd.Context()))
	if ring == nil {
		return
	}
	fmt.Fprintln(w, "trace: last events before the failure")
	if err := ring.Dump(w, trace.FormatText, ""); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
