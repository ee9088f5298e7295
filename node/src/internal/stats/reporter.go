// Package stats periodically snapshots the tuple store and hands the
// snapshot to one or more sinks.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/storage"
)

// DefaultInterval is the reporting period when none is configured.
const DefaultInterval = 10 * time.Second

// Source produces store snapshots.
type Source interface {
	Snapshot() storage.Stats
}

// Sink consumes snapshots.
type Sink interface {
	Emit(storage.Stats)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(storage.Stats)

func (f SinkFunc) Emit(s storage.Stats) { f(s) }

// Reporter emits a snapshot of Source to every Sink once per interval.
type Reporter struct {
	source   Source
	interval time.Duration
	sinks    []Sink
}

func NewReporter(source Source, interval time.Duration, sinks ...Sink) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{source: source, interval: interval, sinks: sinks}
}

// Run reports on every tick until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Report()
		case <-ctx.Done():
			return
		}
	}
}

// Report takes one snapshot and fans it out.
func (r *Reporter) Report() storage.Stats {
	snapshot := r.source.Snapshot()
	for _, sink := range r.sinks {
		sink.Emit(snapshot)
	}
	return snapshot
}

// LogSink writes snapshots through a Logger.
type LogSink struct {
	logger *shared.Logger
}

func NewLogSink(logger *shared.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Emit(s storage.Stats) {
	for _, line := range Format(s) {
		l.logger.Info("%s", line)
	}
}

// Format renders a snapshot as the three line stats block.
func Format(s storage.Stats) []string {
	ops := make([]string, 0, len(storage.Ops))
	for _, op := range storage.Ops {
		ops = append(ops, fmt.Sprintf("'%s': %d", op, s.Ops[op]))
	}
	return []string{
		"--- Server Stats ---",
		fmt.Sprintf("Tuples: %d, Avg Key: %.2f, Avg Val: %.2f", s.Tuples, s.AvgKeyLen, s.AvgValueLen),
		fmt.Sprintf("Clients: %d, Ops: {%s}", s.ClientsConnected, strings.Join(ops, ", ")),
	}
}
