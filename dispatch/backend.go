// Package dispatch selects one agent backend and runs it as an isolated
// subprocess.
package dispatch

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/goerr/v2"
)

// Descriptor describes one backend. Dir and Entrypoint are relative to the
// dispatcher root in the static table and absolute once resolved.
type Descriptor struct {
	Key        string
	Dir        string
	Entrypoint string
}

// Backends is the static backend table.
var Backends = []Descriptor{
	{Key: "smol", Dir: "agent_smol", Entrypoint: "alfred-smol"},
	{Key: "llama", Dir: "agent_llama", Entrypoint: "alfred-llama"},
	{Key: "graph", Dir: "agent_graph", Entrypoint: "alfred-graph"},
}

func (d Descriptor) resolve(root string) Descriptor {
	dir := d.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	entrypoint := d.Entrypoint
	if !filepath.IsAbs(entrypoint) {
		entrypoint = filepath.Join(dir, entrypoint)
	}
	return Descriptor{Key: d.Key, Dir: dir, Entrypoint: entrypoint}
}

// DefaultRoot returns the directory of the running executable.
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", goerr.Wrap(err, "failed to locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func sortedKeys(backends map[string]Descriptor) []string {
	keys := make([]string, 0, len(backends))
	for k := range backends {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
