package main

import "flag"

// newFlagSet binds all CLI flags to the given config. ContinueOnError so
// run controls the error handling.
func newFlagSet(cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet("jamtarget", flag.ContinueOnError)
	fs.StringVar(&cfg.socketPath, "socket", "/tmp/jam_target.sock", "unix socket path to listen on")
	fs.StringVar(&cfg.paramsName, "params", "tiny", "parameter set: tiny, full")
	fs.BoolVar(&cfg.exitOnDisconnect, "exit-on-disconnect", false, "exit after the first peer disconnects")
	fs.BoolVar(&cfg.dumpParams, "dump-params", false, "print the active parameter set as JSON and exit")
	fs.IntVar(&cfg.verbosity, "verbosity", 1, "log level 0-3")
	return fs
}
