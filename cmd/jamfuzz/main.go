// Command jamfuzz is the fuzzer side of the conformance harness: it
// synthesizes a deterministic block trace (or replays a recorded one) and
// drives a target over the framed socket protocol, comparing every
// reported state root against the reference.
//
// Usage:
//
//	jamfuzz [flags]
//
// Flags:
//
//	--socket PATH   Unix socket path of the target (default: /tmp/jam_target.sock)
//	--params NAME   Parameter set: tiny, full (default: tiny)
//	--seed N        Trace seed (default: 1)
//	--blocks N      Number of blocks to synthesize (default: 32)
//	--trace DIR     Replay a recorded trace directory instead of synthesizing
//	--save DIR      Also save the synthesized trace to DIR
//	--verbosity N   Log level 0-3 (default: 1)
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamzig/jamzig-sub009/blockbuilder"
	"github.com/jamzig/jamzig-sub009/conformance"
	"github.com/jamzig/jamzig-sub009/log"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/tracing"
)

var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type config struct {
	socketPath string
	paramsName string
	seed       uint64
	blocks     int
	traceDir   string
	saveDir    string
	verbosity  int
}

func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	p, err := resolveParams(cfg.paramsName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	logger := log.New(log.LevelFromVerbosity(cfg.verbosity)).Module("jamfuzz")
	var sink tracing.Sink = tracing.Noop
	if cfg.verbosity >= 2 {
		sink = tracing.NewLogSink(log.LevelFromVerbosity(cfg.verbosity))
	}

	tr, err := loadOrBuildTrace(p, cfg, logger)
	if err != nil {
		logger.Error("trace preparation failed", "err", err)
		return 1
	}
	logger.Info("trace ready", "blocks", len(tr.Blocks), "genesis_root", tr.GenesisRoot)

	conn, err := net.Dial("unix", cfg.socketPath)
	if err != nil {
		logger.Error("dial failed", "socket", cfg.socketPath, "err", err)
		return 1
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := conformance.NewSession(conn, sink)
	remote, err := sess.Handshake(conformance.PeerInfo{
		FuzzVersion: 1,
		AppVersion:  [3]uint8{0, 1, 0},
		AppName:     "jamfuzz",
	})
	if err != nil {
		logger.Error("handshake failed", "err", err)
		return 1
	}
	logger.Info("connected", "target", remote.AppName)

	n, err := sess.RunTrace(tr, conformance.SignalStop(ctx))
	stats := sess.Stats()
	if err != nil {
		var mismatch *conformance.RootMismatchError
		if errors.As(err, &mismatch) {
			logger.Error("state root mismatch",
				"block", mismatch.BlockNumber,
				"expected", mismatch.Expected,
				"got", mismatch.Got)
			dumpDivergentState(sess, tr, mismatch, logger)
		} else {
			logger.Error("run failed", "blocks_processed", n, "err", err)
		}
		return 1
	}

	logger.Info("run complete",
		"blocks_processed", stats.BlocksProcessed,
		"last_root", stats.LastStateRoot)
	return 0
}

func loadOrBuildTrace(p params.Params, cfg config, logger *log.Logger) (conformance.Trace, error) {
	if cfg.traceDir != "" {
		logger.Info("replaying recorded trace", "dir", cfg.traceDir)
		return blockbuilder.LoadTrace(cfg.traceDir)
	}
	b, err := blockbuilder.New(p, cfg.seed)
	if err != nil {
		return conformance.Trace{}, err
	}
	tr, err := b.BuildTrace(cfg.blocks)
	if err != nil {
		return conformance.Trace{}, err
	}
	if cfg.saveDir != "" {
		if err := blockbuilder.SaveTrace(cfg.saveDir, tr); err != nil {
			return conformance.Trace{}, err
		}
		logger.Info("trace saved", "dir", cfg.saveDir)
	}
	return tr, nil
}

// dumpDivergentState pulls the target's full state dictionary for the
// diverging block so an operator can diff it against the reference.
func dumpDivergentState(sess *conformance.Session, tr conformance.Trace, mismatch *conformance.RootMismatchError, logger *log.Logger) {
	idx := mismatch.BlockNumber - 1
	if idx < 0 || idx >= len(tr.Blocks) {
		return
	}
	dict, err := sess.GetState(tr.Blocks[idx].Header.Hash())
	if err != nil {
		logger.Warn("get_state for diagnostics failed", "err", err)
		return
	}
	logger.Info("divergent state fetched", "entries", len(dict), "root", dict.Root())
}

func parseFlags(args []string) (config, bool, int) {
	var cfg config
	fs := newFlagSet(&cfg)
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}
	if *showVersion {
		fmt.Printf("jamfuzz %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}
	return cfg, false, 0
}

func resolveParams(name string) (params.Params, error) {
	switch name {
	case "tiny":
		return params.Tiny(), nil
	case "full":
		return params.Full(), nil
	default:
		return params.Params{}, fmt.Errorf("unknown parameter set %q (want tiny or full)", name)
	}
}

