// Package tracing exposes a small injectable Sink interface consumed by
// stf.Orchestrator and conformance.Session, with a no-op default. Sinks
// receive diagnostics only: no STF code branches on whether a Sink call
// succeeded or what it logged, so a sink can never influence STF output.
package tracing

import (
	"log/slog"

	"github.com/jamzig/jamzig-sub009/log"
)

// Sink receives diagnostic events from the STF orchestrator and the
// conformance session. Every method must be safe to call with a nil
// receiver's default (Noop) and must never affect control flow.
type Sink interface {
	// Block is called once per ImportBlock attempt, before subsystem
	// dispatch, with the slot and header hash being applied.
	Block(slot uint32, headerHash [32]byte)
	// Subsystem is called after each of the twelve §4.9 steps completes
	// successfully, naming the step.
	Subsystem(name string)
	// Error is called when a subsystem aborts the transition.
	Error(step string, err error)
	// Session logs conformance-protocol level events (handshake, frame
	// read/write, state_root comparison).
	Session(msg string, args ...any)
}

// noopSink implements Sink with no side effects. It is the default used
// whenever a caller does not supply one, matching §9's "no-op default".
type noopSink struct{}

func (noopSink) Block(uint32, [32]byte)  {}
func (noopSink) Subsystem(string)        {}
func (noopSink) Error(string, error)     {}
func (noopSink) Session(string, ...any)  {}

// Noop is the shared no-op Sink instance.
var Noop Sink = noopSink{}

// LogSink adapts the node's structured *log.Logger into a Sink, for
// operators who want STF diagnostics on stderr without the STF itself
// depending on a concrete logging backend.
type LogSink struct {
	l *log.Logger
}

// NewLogSink builds a LogSink writing at the given slog level.
func NewLogSink(level slog.Level) *LogSink {
	return &LogSink{l: log.New(level).Module("stf")}
}

func (s *LogSink) Block(slot uint32, headerHash [32]byte) {
	s.l.Info("import block", "slot", slot, "header_hash", headerHash)
}

func (s *LogSink) Subsystem(name string) {
	s.l.Debug("subsystem applied", "name", name)
}

func (s *LogSink) Error(step string, err error) {
	s.l.Warn("subsystem error", "step", step, "err", err)
}

func (s *LogSink) Session(msg string, args ...any) {
	s.l.Info(msg, args...)
}
