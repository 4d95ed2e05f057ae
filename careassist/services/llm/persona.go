// careassist/services/llm/persona.go
package llm

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed configs/persona.yaml
var defaultPersonaYAML []byte

// Persona is the fixed system directive plus generation parameters sent with
// every completion. It is read once at startup.
type Persona struct {
	Model           string  `yaml:"model"`
	SystemPrompt    string  `yaml:"system_prompt"`
	Temperature     float32 `yaml:"temperature"`
	TopK            float32 `yaml:"top_k"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// DefaultPersona returns the embedded care-assistant persona.
func DefaultPersona() Persona {
	var p Persona
	if err := yaml.Unmarshal(defaultPersonaYAML, &p); err != nil {
		panic(fmt.Sprintf("embedded persona is invalid: %v", err))
	}
	return p
}

// LoadPersona reads the persona from path on top of the embedded default.
// An empty path returns the default.
func LoadPersona(path string) (Persona, error) {
	p := DefaultPersona()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("parse persona file %s: %w", path, err)
	}
	if strings.TrimSpace(p.Model) == "" {
		return Persona{}, fmt.Errorf("persona file %s: model is required", path)
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return Persona{}, fmt.Errorf("persona file %s: system_prompt is required", path)
	}
	return p, nil
}
