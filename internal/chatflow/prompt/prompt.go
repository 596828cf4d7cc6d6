// Package prompt loads TOML prompt templates. A template supplies a system
// prompt plus optional request overrides for a single chat.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Prompt is the structure of a TOML prompt file.
type Prompt struct {
	System      string   `toml:"system"`
	Model       string   `toml:"model"`
	Temperature *float64 `toml:"temperature"`
}

// Load reads the named prompt template from dir. The name is the file name
// without the .toml extension.
func Load(dir, name string) (*Prompt, error) {
	path := filepath.Join(dir, name+".toml")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("prompt template not found: %s", path)
	}

	var p Prompt
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("error decoding prompt file: %v", err)
	}
	return &p, nil
}

// FormatSystem substitutes {{input}} in the system prompt with the user's
// message.
func (p *Prompt) FormatSystem(input string) string {
	return strings.ReplaceAll(p.System, "{{input}}", input)
}
