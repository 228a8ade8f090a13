// Package palettes embeds the core's built-in color tables (xterm16,
// xterm256, vt340mono, vt340color) as YAML, parsed with gopkg.in/yaml.v3
// rather than Go literal tables, for spec.md §6's `-b` flag. The YAML is
// compiled in with go:embed; no palette file is read at run time.
//
// Grounded on doismellburning-samoyed's YAML-based configuration
// loading (gopkg.in/yaml.v3) for the library choice, and on
// internal/dsp/cliptables.go's embedded-lookup-table idiom for the
// overall "precomputed data shipped alongside code" shape.
package palettes

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/deepteams/sixel/internal/status"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Name identifies one of the built-in palettes selectable via spec.md
// §6's `-b` CLI flag.
type Name string

const (
	Xterm16    Name = "xterm16"
	Xterm256   Name = "xterm256"
	VT340Mono  Name = "vt340mono"
	VT340Color Name = "vt340color"
)

type colorEntry struct {
	R int `yaml:"r"`
	G int `yaml:"g"`
	B int `yaml:"b"`
}

type builtinFile struct {
	Palettes map[string][]colorEntry `yaml:"palettes"`
}

var loaded *builtinFile

func load() (*builtinFile, error) {
	if loaded != nil {
		return loaded, nil
	}
	var f builtinFile
	if err := yaml.Unmarshal(builtinYAML, &f); err != nil {
		return nil, status.Wrap(err, status.RuntimeError, "palettes: parse builtin.yaml")
	}
	loaded = &f
	return loaded, nil
}

// Lookup returns the RGB palette (tight 3-bytes-per-color slice) for
// name, or a BadArgument status if name is not a built-in palette.
func Lookup(name Name) ([]byte, error) {
	f, err := load()
	if err != nil {
		return nil, err
	}
	entries, ok := f.Palettes[string(name)]
	if !ok {
		return nil, status.New(status.BadArgument, "palettes: unknown built-in palette %q", name)
	}
	out := make([]byte, 0, len(entries)*3)
	for _, e := range entries {
		out = append(out, clamp(e.R), clamp(e.G), clamp(e.B))
	}
	return out, nil
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
