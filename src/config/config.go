// Package config supplies the cache/TLB geometry, defaulted to the
// simulator's documented sizing table but overridable from a YAML file
// and from environment variables for experimentation.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	env "github.com/xyproto/env/v2"

	"cache"
	"defs"
)

// Geometry bundles every cache level's shape plus the TLB sizes.
type Geometry struct {
	L1I cache.Geometry `yaml:"l1i"`
	L1D cache.Geometry `yaml:"l1d"`
	L2  cache.Geometry `yaml:"l2"`

	TLBLines  int `yaml:"tlb_lines"`
	L1TLBLine int `yaml:"l1_tlb_lines"`
	L2TLBLine int `yaml:"l2_tlb_lines"`
}

// Default returns the simulator's built-in geometry.
func Default() Geometry {
	return Geometry{
		L1I: cache.Geometry{Sets: 64, Ways: 2, LineWords: 4, TagBits: 22},
		L1D: cache.Geometry{Sets: 64, Ways: 4, LineWords: 4, TagBits: 22},
		L2:  cache.Geometry{Sets: 512, Ways: 8, LineWords: 4, TagBits: 19},

		TLBLines:  128,
		L1TLBLine: 16,
		L2TLBLine: 64,
	}
}

// Load starts from Default, applies an optional YAML override file, then
// layers environment variable overrides (MEMSIM_L1I_WAYS and so on) on
// top. path == "" skips the file step entirely.
func Load(path string) (Geometry, defs.Err_t) {
	g := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Geometry{}, defs.EIO
		}
		if err := yaml.Unmarshal(data, &g); err != nil {
			return Geometry{}, defs.EBADPARAMETER
		}
	}

	g.L1I.Ways = env.Int("MEMSIM_L1I_WAYS", g.L1I.Ways)
	g.L1D.Ways = env.Int("MEMSIM_L1D_WAYS", g.L1D.Ways)
	g.L2.Ways = env.Int("MEMSIM_L2_WAYS", g.L2.Ways)
	g.L2.Sets = env.Int("MEMSIM_L2_SETS", g.L2.Sets)

	return g, defs.ENONE
}
