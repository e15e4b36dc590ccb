// Package workload loads, validates and replays interval-coverage workloads:
// a coordinate set, segments to add and remove, and the queries to answer.
package workload

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
)

// SchemaJSON is the JSON schema every workload document must satisfy.
//
//go:embed schema.json
var SchemaJSON []byte

// ErrInvalidWorkload indicates a document that fails schema validation.
var ErrInvalidWorkload = errors.New("invalid workload")

// Workload is a replayable engine session.
type Workload struct {
	Name        string            `json:"name,omitempty"     yaml:"name,omitempty"`
	Coordinates []float64         `json:"coordinates"        yaml:"coordinates"`
	Segments    []segtree.Segment `json:"segments,omitempty" yaml:"segments,omitempty"`
	Removals    []segtree.Segment `json:"removals,omitempty" yaml:"removals,omitempty"`
	Queries     []Query           `json:"queries,omitempty"  yaml:"queries,omitempty"`
	Points      []float64         `json:"points,omitempty"   yaml:"points,omitempty"`
}

// Query is a union query. A missing bound is unbounded.
type Query struct {
	Name  string   `json:"name,omitempty"  yaml:"name,omitempty"`
	Start *float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End   *float64 `json:"end,omitempty"   yaml:"end,omitempty"`
}

// Interval returns the query range with missing bounds set to -inf and +inf.
func (q Query) Interval() segtree.Interval {
	iv := segtree.Unbounded()

	if q.Start != nil {
		iv.Start = *q.Start
	}

	if q.End != nil {
		iv.End = *q.End
	}

	return iv
}

// Label returns the query name, or its range when unnamed.
func (q Query) Label() string {
	if q.Name != "" {
		return q.Name
	}

	return q.Interval().String()
}

// Load reads and parses the workload at path.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}

	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return w, nil
}

// Parse validates data against the schema and decodes it. Unknown fields
// are rejected.
func Parse(data []byte) (*Workload, error) {
	problems, err := Validate(data)
	if err != nil {
		return nil, err
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s (%d problems)", ErrInvalidWorkload, problems[0], len(problems))
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var w Workload

	err = dec.Decode(&w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	return &w, nil
}

// Marshal encodes w as YAML.
func (w *Workload) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal workload: %w", err)
	}

	return data, nil
}

// finite reports whether every value is a finite number.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
