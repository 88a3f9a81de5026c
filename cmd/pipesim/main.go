// Package main provides the pipesim command line: it loads a JSON
// scenario, runs the selected datapath for the requested number of
// cycles, renders the signal trace as a table, and dumps the final
// memory contents.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/pipesim/hdl"
	"github.com/sarchlab/pipesim/loader"
)

var (
	scenarioPath = flag.String("scenario", "", "Path to a JSON scenario file")
	cycles       = flag.Int("cycles", 0, "Override the scenario's cycle count")
	noTrace      = flag.Bool("no-trace", false, "Suppress the trace table")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: pipesim -scenario <file.json> [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	scenario, err := loader.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		atexit.Exit(1)
	}
	if *cycles > 0 {
		scenario.Cycles = *cycles
	}

	simulation, err := scenario.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building design: %v\n", err)
		atexit.Exit(1)
	}

	if *verbose {
		fmt.Printf("Design: %s\n", scenario.Design)
		fmt.Printf("Cycles: %d\n", scenario.Cycles)
	}

	if err := simulation.Run(scenario.Cycles, scenario.InputsFor); err != nil {
		fmt.Fprintf(os.Stderr, "Error at cycle %d: %v\n", simulation.Cycle(), err)
		atexit.Exit(1)
	}

	if !*noTrace {
		simulation.Trace().RenderTable(os.Stdout)
	}

	dumpMemories(simulation)

	if *verbose {
		stats := simulation.Stats()
		fmt.Printf("\nCycles: %d, enum-mux fallbacks: %d\n",
			stats.Cycles, stats.Fallbacks)
	}

	atexit.Exit(0)
}

// dumpMemories prints the final contents of the design's memories.
func dumpMemories(simulation *hdl.Simulation) {
	for _, name := range []string{"rf", "imem"} {
		contents := simulation.InspectMem(name)
		if contents == nil {
			continue
		}

		addrs := make([]uint64, 0, len(contents))
		for a := range contents {
			addrs = append(addrs, a)
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

		fmt.Printf("\n%s contents:\n", name)
		for _, a := range addrs {
			fmt.Printf("  %#04x: %#06x\n", a, contents[a])
		}
	}
}
