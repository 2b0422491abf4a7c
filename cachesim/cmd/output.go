package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/victim"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

var labelColor = color.New(color.FgCyan, color.Bold)

// writeBackAnnouncer prints a line for every write-back of any cache level.
type writeBackAnnouncer struct {
	out io.Writer
}

func newWriteBackAnnouncer(out io.Writer) *writeBackAnnouncer {
	return &writeBackAnnouncer{out: out}
}

func (a *writeBackAnnouncer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosWriteBack {
		return
	}

	fmt.Fprintln(a.out, "Writing back dirty block to next level cache")
}

func printStats(out io.Writer, s *simulation.Simulation) {
	printCacheStats(out, "L1 Cache Stats:", s.L1().Stats())

	if vc := s.VictimCache(); vc != nil {
		printVictimCacheStats(out, vc.Stats())
	}

	if l2 := s.L2(); l2 != nil {
		printCacheStats(out, "L2 Cache Stats:", l2.Stats())
	}
}

func printCacheStats(out io.Writer, label string, stats cache.Stats) {
	labelColor.Fprintln(out, label)
	fmt.Fprintf(out, "Number of reads: %d\n", stats.Reads)
	fmt.Fprintf(out, "Number of read misses: %d\n", stats.ReadMisses)
	fmt.Fprintf(out, "Number of writes: %d\n", stats.Writes)
	fmt.Fprintf(out, "Number of write misses: %d\n", stats.WriteMisses)
	fmt.Fprintf(out, "Number of writebacks: %d\n", stats.WriteBacks)
}

func printVictimCacheStats(out io.Writer, stats victim.Stats) {
	labelColor.Fprintln(out, "Victim Cache Stats:")
	fmt.Fprintf(out, "Number of lookups: %d\n", stats.Lookups)
	fmt.Fprintf(out, "Number of hits: %d\n", stats.Hits)
	fmt.Fprintf(out, "Number of insertions: %d\n", stats.Insertions)
	fmt.Fprintf(out, "Number of evictions: %d\n", stats.Evictions)
	fmt.Fprintf(out, "Number of dirty evictions: %d\n", stats.DirtyEvictions)
}
