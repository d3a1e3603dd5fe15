// Package staleness implements the Staleness Oracle (spec §4.C): the
// decision of whether a class needs recompiling.
package staleness

import (
	"time"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
)

// Stat is the subset of os.FileInfo the oracle needs, kept narrow so
// callers can satisfy it from os.Stat or from a fake in tests.
type Stat struct {
	Exists bool
	Mtime  time.Time
}

// Inputs bundles everything the oracle needs to classify one class
// (spec §4.C).
type Inputs struct {
	Source     Stat
	Output     Stat
	OutputMeta Stat
	Info       *classdb.ClassInfo
	ForceScan  bool
}

// Check classifies a class as fresh or stale. The source file not
// existing is a terminal NoClassFile error (spec §4.C).
func Check(in Inputs) (fresh bool, err error) {
	if !in.Source.Exists {
		return false, aerr.New(aerr.NoClassFile, "source file does not exist")
	}
	if in.ForceScan {
		return false, nil
	}
	if in.Info == nil {
		return false, nil
	}
	if in.Info.Mtime != in.Source.Mtime.Unix() {
		return false, nil
	}
	if !in.Output.Exists || !in.OutputMeta.Exists {
		return false, nil
	}
	if in.Output.Mtime.Before(in.Source.Mtime) {
		return false, nil
	}
	return true, nil
}
