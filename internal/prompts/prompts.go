// Package prompts holds the embedded default system instructions.
//
// Users can override any of them with files in the prompt directory; see the
// file-based PromptStore. The defaults here are the fallback when no override
// exists and the initial content written for new installations.
package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed defaults/*.txt
var defaultsFS embed.FS

// Default returns the embedded default prompt for name.
func Default(name string) (string, bool) {
	data, err := defaultsFS.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Names returns the names of all embedded prompts, sorted.
func Names() []string {
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}

// Static is a PromptStore that only serves the embedded defaults.
// It is used when no prompt directory is configured.
type Static struct{}

// Load returns the embedded default prompt.
func (Static) Load(name string) (string, error) {
	if p, ok := Default(name); ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// Reload is a no-op; embedded prompts never change.
func (Static) Reload() {}
