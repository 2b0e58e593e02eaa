// Command memsim replays a memory-access script against a simulated
// four-level page table, a configurable TLB strategy, and an exclusive
// L1/L2 cache hierarchy.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"cachehier"
	"config"
	"defs"
	"diag"
	"dump"
	"exec"
	"htlb"
	"mem"
	"program"
	"tlb"
)

func main() {
	var (
		dumpFile   = flag.String("dump", "", "binary memory dump to load")
		descFile   = flag.String("desc", "", "descriptor file to load")
		scriptFile = flag.String("script", "", "command script to replay")
		strategy   = flag.String("tlb", "hierarchical", "translation strategy: fullassoc, hierarchical, bypass")
		configFile = flag.String("config", "", "optional YAML geometry override")
		dumpCaches = flag.Bool("dump-caches", false, "print cache contents after the run")
		profileOut = flag.String("profile", "", "write a pprof hit/miss/eviction profile to this path")
	)
	flag.Parse()

	if *dumpFile == "" && *descFile == "" {
		fmt.Fprintln(os.Stderr, "memsim: one of -dump or -desc is required")
		os.Exit(1)
	}
	if *scriptFile == "" {
		fmt.Fprintln(os.Stderr, "memsim: -script is required")
		os.Exit(1)
	}

	var m *mem.Memory
	var e defs.Err_t
	if *dumpFile != "" {
		m, e = mem.LoadBinary(*dumpFile)
	} else {
		m, e = mem.LoadDescriptor(*descFile, filepath.Dir(*descFile))
	}
	if e != defs.ENONE {
		fmt.Fprintf(os.Stderr, "memsim: loading memory image: %v\n", e)
		os.Exit(1)
	}

	geom, e := config.Load(*configFile)
	if e != defs.ENONE {
		fmt.Fprintf(os.Stderr, "memsim: loading config: %v\n", e)
		os.Exit(1)
	}

	f, err := os.Open(*scriptFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "memsim: opening script: %v\n", err)
		os.Exit(1)
	}
	prog, e := program.Parse(f)
	f.Close()
	if e != defs.ENONE {
		fmt.Fprintf(os.Stderr, "memsim: parsing script: %v\n", e)
		os.Exit(1)
	}

	var translator exec.Translator
	switch *strategy {
	case "fullassoc":
		translator = exec.FullyAssocTranslator{TLB: tlb.New()}
	case "hierarchical":
		translator = exec.HierarchicalTranslator{Hier: htlb.New()}
	case "bypass":
		translator = exec.BypassTranslator{}
	default:
		fmt.Fprintf(os.Stderr, "memsim: unknown -tlb strategy %q\n", *strategy)
		os.Exit(1)
	}

	hier := cachehier.NewWithGeometry(m, geom)
	ex := exec.New(m, translator, hier)
	ex.Counters = diag.NewCounters()

	results, e := ex.Run(prog)
	for _, r := range results {
		fmt.Printf("%s -> 0x%X\n", dump.FormatVirtual(r.Command.Vaddr), r.Value)
	}
	if e != defs.ENONE {
		fmt.Fprintf(os.Stderr, "memsim: run stopped: %v\n", e)
	}

	dump.Summary(os.Stdout, dump.Counters{
		Accesses:  len(results),
		Hits:      int(ex.Counters.TotalHits()),
		Misses:    int(ex.Counters.TotalMisses()),
		Evictions: int(ex.Counters.TotalEvictions()),
	})

	if *dumpCaches {
		fmt.Println("-- L1 I --")
		dump.DumpCache(os.Stdout, hier.L1I)
		fmt.Println("-- L1 D --")
		dump.DumpCache(os.Stdout, hier.L1D)
		fmt.Println("-- L2 --")
		dump.DumpCache(os.Stdout, hier.L2)
	}

	if *profileOut != "" {
		pf, err := os.Create(*profileOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "memsim: creating profile output: %v\n", err)
			os.Exit(1)
		}
		if pe := diag.WriteProfile(pf, ex.Counters); pe != defs.ENONE {
			fmt.Fprintf(os.Stderr, "memsim: writing profile: %v\n", pe)
		}
		pf.Close()
	}

	if e != defs.ENONE {
		os.Exit(1)
	}
}
