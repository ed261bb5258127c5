// Package suites embeds the scenario suites shipped with the runner.
package suites

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

//go:embed *.yaml
var files embed.FS

// Names lists the embedded suites, sorted.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Load parses the embedded suite called name.
func Load(name string) (*scenario.Suite, error) {
	file := name + ".yaml"
	data, err := files.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unknown suite %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return scenario.Parse("embedded:"+file, data)
}

// Application is the create, edit, delete and variables suite.
func Application() (*scenario.Suite, error) {
	return Load("application")
}
