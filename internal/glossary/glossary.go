// Package glossary loads the source→target terminology map used to steer
// the translator toward consistent wording.
//
// A glossary file is a flat JSON object (or YAML mapping) of string terms:
//
//	{"服务网格": "service mesh", "边车": "sidecar"}
//
// Terms keep the order in which they appear in the file.
package glossary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the bot looks for a glossary when none is configured.
const DefaultPath = "translate/glossary.json"

const schemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": {"type": "string", "minLength": 1},
	"propertyNames": {"minLength": 1}
}`

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// Term is one glossary entry.
type Term struct {
	Source string
	Target string
}

// Glossary is immutable after construction.
type Glossary struct {
	terms []Term
	index map[string]int
}

// Empty returns a glossary without terms.
func Empty() *Glossary {
	return &Glossary{index: map[string]int{}}
}

// Load reads the glossary at path. A missing or malformed file yields an
// empty glossary and a warning; Load never fails.
func Load(path string, logger zerolog.Logger) *Glossary {
	g, err := Parse(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("glossary not loaded, continuing without terminology")
		return Empty()
	}
	logger.Info().Str("path", path).Int("terms", g.Len()).Msg("glossary loaded")
	return g
}

// Parse is the strict form of Load.
func Parse(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseJSON(data)
	}
}

// Len returns the number of distinct source terms.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.terms)
}

// Terms returns a copy of the entries in file order.
func (g *Glossary) Terms() []Term {
	if g == nil {
		return nil
	}
	out := make([]Term, len(g.terms))
	copy(out, g.terms)
	return out
}

// Lookup returns the target term for source.
func (g *Glossary) Lookup(source string) (string, bool) {
	if g == nil {
		return "", false
	}
	i, ok := g.index[source]
	if !ok {
		return "", false
	}
	return g.terms[i].Target, true
}

// Format renders the glossary as "source => target" lines for embedding in
// the translation instruction. An empty glossary renders as "".
func (g *Glossary) Format() string {
	if g.Len() == 0 {
		return ""
	}
	lines := make([]string, len(g.terms))
	for i, t := range g.terms {
		lines[i] = t.Source + " => " + t.Target
	}
	return strings.Join(lines, "\n")
}

// add keeps the first position of a duplicated key and the last value.
func (g *Glossary) add(source, target string) {
	if i, ok := g.index[source]; ok {
		g.terms[i].Target = target
		return
	}
	g.index[source] = len(g.terms)
	g.terms = append(g.terms, Term{Source: source, Target: target})
}

func parseJSON(data []byte) (*Glossary, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode glossary JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode glossary JSON: trailing data after object")
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load glossary schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("glossary schema validation failed: %w", err)
	}

	// Second pass with the token stream to keep key order.
	g := Empty()
	dec = json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode glossary JSON: %w", err)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode glossary JSON: %w", err)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode glossary term %v: %w", keyTok, err)
		}
		g.add(keyTok.(string), value)
	}
	return g, nil
}

func parseYAML(data []byte) (*Glossary, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode glossary YAML: %w", err)
	}

	g := Empty()
	if len(root.Content) == 0 {
		return g, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("glossary YAML must be a mapping (line %d)", doc.Line)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode || value.Tag != "!!str" {
			return nil, fmt.Errorf("glossary YAML line %d: terms must be string pairs", key.Line)
		}
		if key.Value == "" || value.Value == "" {
			return nil, fmt.Errorf("glossary YAML line %d: empty term", key.Line)
		}
		g.add(key.Value, value.Value)
	}
	return g, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("glossary.schema.json", strings.NewReader(schemaJSON)); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("glossary.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}
