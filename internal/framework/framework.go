// Package framework holds the catalogue of legacy logging frameworks the
// translator recognises. The catalogue is YAML, checked against an embedded
// CUE schema before use.
package framework

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed frameworks.yaml
var defaultCatalogue []byte

//go:embed catalogue.cue
var schemaSource []byte

// Profile describes one legacy logging API.
type Profile struct {
	Name            string            `yaml:"name" json:"name"`
	LoggerImports   []string          `yaml:"logger_imports" json:"logger_imports"`
	FactoryImports  []string          `yaml:"factory_imports" json:"factory_imports,omitempty"`
	FactoryName     string            `yaml:"factory_name" json:"factory_name"`
	CheckerMethods  []string          `yaml:"checker_methods" json:"checker_methods,omitempty"`
	EmittingMethods []string          `yaml:"emitting_methods" json:"emitting_methods"`
	Levels          map[string]string `yaml:"levels" json:"levels,omitempty"`
}

// Catalogue is the set of known profiles.
type Catalogue struct {
	Profiles []*Profile `yaml:"profiles" json:"profiles"`
}

// Default returns the embedded catalogue.
func Default() (*Catalogue, error) {
	return Load(defaultCatalogue)
}

// LoadFile reads a catalogue from path.
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	c, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", path, err)
	}
	return c, nil
}

// Load decodes and validates a YAML catalogue.
func Load(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalogue: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(c.Profiles))
	for _, p := range c.Profiles {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return &c, nil
}

func validate(c *Catalogue) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource)
	if schema.Err() != nil {
		return fmt.Errorf("compiling schema: %w", schema.Err())
	}

	jsonBytes, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling catalogue to JSON: %w", err)
	}
	data := ctx.CompileBytes(jsonBytes)
	if data.Err() != nil {
		return fmt.Errorf("compiling catalogue as CUE: %w", data.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Catalogue"))
	if def.Err() != nil {
		return fmt.Errorf("looking up #Catalogue definition: %w", def.Err())
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Match returns the profile owning the logger or factory import in
// importText, or nil. importText may be a bare qualified name or a whole
// import declaration.
func (c *Catalogue) Match(importText string) *Profile {
	qualified := ImportName(importText)
	for _, p := range c.Profiles {
		if p.IsLoggerImport(qualified) || p.IsFactoryImport(qualified) {
			return p
		}
	}
	return nil
}

// ImportName strips the import keyword, a static modifier and the trailing
// semicolon from an import declaration.
func ImportName(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "import ")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "static ")
	s = strings.TrimSuffix(strings.TrimSpace(s), ";")
	return strings.Join(strings.Fields(s), "")
}

// IsLoggerImport reports whether qualified names this profile's logger type.
func (p *Profile) IsLoggerImport(qualified string) bool {
	return containsFold(p.LoggerImports, qualified)
}

// IsFactoryImport reports whether qualified names this profile's logger factory.
func (p *Profile) IsFactoryImport(qualified string) bool {
	return containsFold(p.FactoryImports, qualified)
}

// IsLoggerType reports whether a declared type (simple or qualified) is this
// profile's logger type.
func (p *Profile) IsLoggerType(typ string) bool {
	for _, imp := range p.LoggerImports {
		if typ == imp || typ == simpleName(imp) {
			return true
		}
	}
	return false
}

// IsFactoryCall reports whether an initializer expression obtains a logger
// from this profile's factory.
func (p *Profile) IsFactoryCall(expr string) bool {
	return strings.Contains(expr, p.FactoryName+".")
}

// IsChecker reports whether method is a level-enabled predicate.
func (p *Profile) IsChecker(method string) bool {
	for _, m := range p.CheckerMethods {
		if m == method {
			return true
		}
	}
	return false
}

// IsEmitting reports whether method emits a log event.
func (p *Profile) IsEmitting(method string) bool {
	for _, m := range p.EmittingMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Level returns the canonical severity for an emitting method.
func (p *Profile) Level(method string) string {
	if lvl, ok := p.Levels[method]; ok {
		return lvl
	}
	return method
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func simpleName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
