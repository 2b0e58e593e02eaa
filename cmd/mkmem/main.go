// Command mkmem builds a flat binary memory-dump image from a
// descriptor file, the inverse of the descriptor loader's page-walk
// resolution step.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"defs"
	"mem"
)

func main() {
	var (
		descFile = flag.String("desc", "", "descriptor file to assemble")
		outFile  = flag.String("out", "", "path for the resulting binary dump")
	)
	flag.Parse()

	if *descFile == "" || *outFile == "" {
		fmt.Fprintln(os.Stderr, "mkmem: -desc and -out are required")
		os.Exit(1)
	}

	m, e := mem.LoadDescriptor(*descFile, filepath.Dir(*descFile))
	if e != defs.ENONE {
		fmt.Fprintf(os.Stderr, "mkmem: assembling image: %v\n", e)
		os.Exit(1)
	}

	if e := writeBinary(*outFile, m); e != defs.ENONE {
		fmt.Fprintf(os.Stderr, "mkmem: writing image: %v\n", e)
		os.Exit(1)
	}
}

func writeBinary(path string, m *mem.Memory) defs.Err_t {
	f, err := os.Create(path)
	if err != nil {
		return defs.EIO
	}
	defer f.Close()

	if e := mem.DumpBinary(f, m); e != defs.ENONE {
		return e
	}
	return defs.ENONE
}
