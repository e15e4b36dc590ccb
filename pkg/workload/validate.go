package workload

import (
	"fmt"
	"strconv"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// rootField names the document root in problems.
const rootField = "(root)"

// Problem is one schema violation.
type Problem struct {
	Field       string `json:"field"       yaml:"field"`
	Description string `json:"description" yaml:"description"`
}

// String formats the problem as "field: description".
func (p Problem) String() string {
	return p.Field + ": " + p.Description
}

// Validate checks data against the workload schema. It returns the
// violations found; a non-nil error means data could not be checked at all.
func Validate(data []byte) ([]Problem, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	// The schema loader round-trips through JSON, which has no NaN or Inf
	// and only string keys.
	problems := checkJSONCompatible(doc, rootField)
	if len(problems) > 0 {
		return problems, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(SchemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	for _, verr := range result.Errors() {
		problems = append(problems, Problem{Field: verr.Field(), Description: verr.Description()})
	}

	return problems, nil
}

func checkJSONCompatible(node any, field string) []Problem {
	var problems []Problem

	switch v := node.(type) {
	case float64:
		if !finite(v) {
			problems = append(problems, Problem{Field: field, Description: "must be a finite number"})
		}
	case []any:
		for i, item := range v {
			problems = append(problems, checkJSONCompatible(item, childField(field, strconv.Itoa(i)))...)
		}
	case map[string]any:
		for key, item := range v {
			problems = append(problems, checkJSONCompatible(item, childField(field, key))...)
		}
	case map[any]any:
		problems = append(problems, Problem{Field: field, Description: "mapping keys must be strings"})
	}

	return problems
}

// childField joins paths the way gojsonschema reports them.
func childField(parent, child string) string {
	if parent == rootField {
		return child
	}

	return parent + "." + child
}
