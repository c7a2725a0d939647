// Package skill holds the catalog of actions a language model may request
// and the projection of those actions into provider tool schemas.
package skill

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// SystemModule is the reserved module whose skills are offered in every context.
const SystemModule = "system"

// Effect describes what invoking a skill does to application state.
type Effect string

const (
	EffectRead     Effect = "read"
	EffectWrite    Effect = "write"
	EffectNavigate Effect = "navigate"
)

// Valid reports whether e is a known effect.
func (e Effect) Valid() bool {
	switch e {
	case EffectRead, EffectWrite, EffectNavigate:
		return true
	default:
		return false
	}
}

// ParamType is the declared type of a skill parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamDate    ParamType = "date"
)

// Valid reports whether t is a known parameter type.
func (t ParamType) Valid() bool {
	switch t {
	case ParamString, ParamNumber, ParamBoolean, ParamDate:
		return true
	default:
		return false
	}
}

// Parameter is one named input of a skill.
type Parameter struct {
	Name        string    `json:"name" yaml:"name" toml:"name"`
	Type        ParamType `json:"type" yaml:"type" toml:"type"`
	Description string    `json:"description" yaml:"description" toml:"description"`
	Required    bool      `json:"required" yaml:"required" toml:"required"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty" toml:"enum,omitempty"`
}

// Definition describes one skill.
type Definition struct {
	Name                 string      `json:"name" yaml:"name" toml:"name"`
	Description          string      `json:"description" yaml:"description" toml:"description"`
	Module               string      `json:"module" yaml:"module" toml:"module"`
	Effect               Effect      `json:"type" yaml:"type" toml:"type"`
	Parameters           []Parameter `json:"parameters" yaml:"parameters" toml:"parameters"`
	RequiresConfirmation bool        `json:"requiresConfirmation" yaml:"requiresConfirmation" toml:"requiresConfirmation"`
}

// namePattern is the function-name rule shared by the provider backends:
// a letter or underscore first, then letters, digits, '_', '.', ':' or '-',
// at most 64 runes. Backends with stricter rules encode names themselves.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.:-]{0,63}$`)

// ErrInvalidDefinition is wrapped by every validation failure.
var ErrInvalidDefinition = errors.New("invalid skill definition")

// Validate checks the invariants every registered definition must hold.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: %s: name must match %s", ErrInvalidDefinition, d.Name, namePattern)
	}
	if d.Module == "" {
		return fmt.Errorf("%w: %s: empty module", ErrInvalidDefinition, d.Name)
	}
	if !d.Effect.Valid() {
		return fmt.Errorf("%w: %s: unknown effect %q", ErrInvalidDefinition, d.Name, d.Effect)
	}
	if d.Effect == EffectWrite && !d.RequiresConfirmation {
		return fmt.Errorf("%w: %s: write skills must require confirmation", ErrInvalidDefinition, d.Name)
	}
	seen := make(map[string]bool, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Name == "" {
			return fmt.Errorf("%w: %s: parameter with empty name", ErrInvalidDefinition, d.Name)
		}
		if !p.Type.Valid() {
			return fmt.Errorf("%w: %s: parameter %s has unknown type %q", ErrInvalidDefinition, d.Name, p.Name, p.Type)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s: duplicate parameter %s", ErrInvalidDefinition, d.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// RequiredParams returns the names of required parameters in declaration order.
func (d Definition) RequiredParams() []string {
	out := []string{}
	for _, p := range d.Parameters {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	out := d
	if d.Parameters != nil {
		out.Parameters = make([]Parameter, len(d.Parameters))
		for i, p := range d.Parameters {
			p.Enum = slices.Clone(p.Enum)
			out.Parameters[i] = p
		}
	}
	return out
}

// CheckArguments verifies that every required parameter is present in args.
// Unknown keys are ignored.
func (d Definition) CheckArguments(args map[string]any) error {
	var missing []string
	for _, name := range d.RequiredParams() {
		if _, ok := args[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required parameters %v", d.Name, missing)
	}
	return nil
}
