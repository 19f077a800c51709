package main

import "flag"

// flagSet wraps flag.FlagSet with ContinueOnError so callers (notably
// tests) can inspect parse failures instead of having the process exit
// underneath them.
type flagSet struct {
	*flag.FlagSet
}

func newCustomFlagSet(name string) *flagSet {
	return &flagSet{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
}
