// Package colorscheme resolves named two-color badge schemes.
package colorscheme

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Fallback is the scheme used for absent or unknown names.
const Fallback = "red"

// Scheme is the pair of colors applied to the two halves of a badge.
type Scheme struct {
	ColorA string `yaml:"colorA" json:"colorA"`
	ColorB string `yaml:"colorB" json:"colorB"`
}

// Resolver looks up schemes in a table that is immutable after construction.
type Resolver struct {
	schemes map[string]Scheme
}

// Parse decodes a YAML mapping of scheme name to colors.
// The table must define the fallback scheme.
func Parse(data []byte) (*Resolver, error) {
	schemes := make(map[string]Scheme)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&schemes); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("colorscheme: parsing table: %w", err)
	}
	return New(schemes)
}

// New creates a Resolver over a copy of schemes.
func New(schemes map[string]Scheme) (*Resolver, error) {
	if _, ok := schemes[Fallback]; !ok {
		return nil, fmt.Errorf("colorscheme: table has no %q scheme", Fallback)
	}
	table := make(map[string]Scheme, len(schemes))
	for name, s := range schemes {
		table[name] = s
	}
	return &Resolver{schemes: table}, nil
}

// Resolve returns the named scheme, or the fallback scheme when name is
// empty or unknown.
func (r *Resolver) Resolve(name string) Scheme {
	if s, ok := r.schemes[name]; ok {
		return s
	}
	return r.schemes[Fallback]
}

// Lookup returns the named scheme and whether it exists.
func (r *Resolver) Lookup(name string) (Scheme, bool) {
	s, ok := r.schemes[name]
	return s, ok
}

// Names returns all scheme names in sorted order.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.schemes))
	for name := range r.schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
