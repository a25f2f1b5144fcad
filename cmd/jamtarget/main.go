// Command jamtarget is the conformance-target binary: it owns one JAM
// state lineage in memory and answers a fuzzer's initialize/import_block/
// get_state requests over a unix socket, exiting 0 on clean shutdown and
// non-zero on a protocol violation.
//
// Usage:
//
//	jamtarget [flags]
//
// Flags:
//
//	--socket PATH         Unix socket path to listen on (default: /tmp/jam_target.sock)
//	--params NAME         Parameter set: tiny, full (default: tiny)
//	--exit-on-disconnect  Exit after the first peer disconnects
//	--dump-params         Print the active parameter set as JSON and exit
//	--verbosity N         Log level 0-3 (default: 1)
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamzig/jamzig-sub009/conformance"
	"github.com/jamzig/jamzig-sub009/log"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
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
	socketPath       string
	paramsName       string
	exitOnDisconnect bool
	dumpParams       bool
	verbosity        int
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
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

	if cfg.dumpParams {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	logger := log.New(log.LevelFromVerbosity(cfg.verbosity)).Module("jamtarget")
	var sink tracing.Sink = tracing.Noop
	if cfg.verbosity >= 2 {
		sink = tracing.NewLogSink(log.LevelFromVerbosity(cfg.verbosity))
	}

	_ = os.Remove(cfg.socketPath)
	listener, err := net.Listen("unix", cfg.socketPath)
	if err != nil {
		logger.Error("listen failed", "socket", cfg.socketPath, "err", err)
		return 1
	}
	defer listener.Close()
	defer os.Remove(cfg.socketPath)

	logger.Info("jamtarget listening",
		"version", version, "socket", cfg.socketPath, "params", cfg.paramsName)

	// SIGINT/SIGTERM close the listener; the accept loop then winds down
	// cleanly between sessions.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		listener.Close()
	}()

	info := conformance.PeerInfo{
		FuzzVersion: 1,
		AppVersion:  [3]uint8{0, 1, 0},
		AppName:     "jamtarget",
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return 0
			}
			logger.Error("accept failed", "err", err)
			return 1
		}
		logger.Info("peer connected")

		// Each session gets a fresh target: one state lineage per peer.
		target := conformance.NewTarget(p, &pvm.StubMachine{}, info, sink)
		err = target.Serve(conn)
		conn.Close()
		if err != nil {
			logger.Error("session ended with protocol violation", "err", err)
			return 1
		}
		logger.Info("peer disconnected")
		if cfg.exitOnDisconnect {
			return 0
		}
	}
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
		fmt.Printf("jamtarget %s (commit %s)\n", version, commit)
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

