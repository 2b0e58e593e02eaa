package dump

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Counters holds the run totals a summary line reports.
type Counters struct {
	Accesses  int
	Hits      int
	Misses    int
	Evictions int
}

// Summary writes a locale-grouped one-line report of c to w, e.g.
// "accesses=12,345 hits=12,000 misses=345 evictions=200".
func Summary(w io.Writer, c Counters) error {
	p := message.NewPrinter(language.English)
	_, err := p.Fprintf(w, "accesses=%d hits=%d misses=%d evictions=%d\n",
		c.Accesses, c.Hits, c.Misses, c.Evictions)
	return err
}
