package main

import (
	"flag"
	"fmt"
	"strconv"
)

// newFlagSet binds all CLI flags to the given config. ContinueOnError so
// run controls the error handling.
func newFlagSet(cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet("jamfuzz", flag.ContinueOnError)
	fs.StringVar(&cfg.socketPath, "socket", "/tmp/jam_target.sock", "unix socket path of the target")
	fs.StringVar(&cfg.paramsName, "params", "tiny", "parameter set: tiny, full")
	fs.Var(&uint64Value{p: &cfg.seed}, "seed", "trace seed")
	fs.IntVar(&cfg.blocks, "blocks", 32, "number of blocks to synthesize")
	fs.StringVar(&cfg.traceDir, "trace", "", "replay a recorded trace directory instead of synthesizing")
	fs.StringVar(&cfg.saveDir, "save", "", "also save the synthesized trace to this directory")
	fs.IntVar(&cfg.verbosity, "verbosity", 1, "log level 0-3")
	cfg.seed = 1
	return fs
}

// uint64Value implements flag.Value; the standard flag package has no
// uint64 flag type.
type uint64Value struct {
	p *uint64
}

func (v *uint64Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(*v.p, 10)
}

func (v *uint64Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uint64 value %q", s)
	}
	*v.p = n
	return nil
}
