// Package blueprint loads microgen.yaml, the domain description that drives
// projection generation and the validate command.
package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/project"
)

// DefaultFile is the blueprint file name in a project root.
const DefaultFile = "microgen.yaml"

// Blueprint describes a service's domain.
type Blueprint struct {
	Project     ProjectInfo  `yaml:"project" validate:"required"`
	Aggregates  []Aggregate  `yaml:"aggregates" validate:"dive"`
	Events      []Event      `yaml:"events" validate:"dive"`
	Projections []Projection `yaml:"projections" validate:"dive"`
}

// ProjectInfo names the service.
type ProjectInfo struct {
	Name    string `yaml:"name" validate:"required"`
	Module  string `yaml:"module"`
	Package string `yaml:"package"`
}

// Aggregate is a consistency boundary with state fields.
type Aggregate struct {
	Name   string  `yaml:"name" validate:"required,identifier"`
	Fields []Field `yaml:"fields" validate:"dive"`
}

// Field is a named, typed attribute.
type Field struct {
	Name string `yaml:"name" validate:"required,identifier"`
	Type string `yaml:"type" validate:"required,fieldtype"`
}

// Event is a fact emitted by an aggregate.
type Event struct {
	Name      string  `yaml:"name" validate:"required,identifier"`
	Aggregate string  `yaml:"aggregate" validate:"required"`
	Fields    []Field `yaml:"fields" validate:"dive"`
}

// Projection is a read model built from an aggregate's events.
type Projection struct {
	Name      string `yaml:"name" validate:"required,identifier"`
	Aggregate string `yaml:"aggregate" validate:"required"`
}

// fieldTypes maps blueprint types to Go types.
var fieldTypes = map[string]string{
	"string":            "string",
	"int":               "int",
	"int32":             "int32",
	"int64":             "int64",
	"uint":              "uint",
	"float32":           "float32",
	"float64":           "float64",
	"decimal":           "float64",
	"bool":              "bool",
	"time":              "time.Time",
	"time.Time":         "time.Time",
	"timestamp":         "time.Time",
	"[]string":          "[]string",
	"[]int":             "[]int",
	"map[string]string": "map[string]string",
	"map[string]any":    "map[string]any",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for i, r := range s {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
		return true
	})
	_ = v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
		_, ok := fieldTypes[fl.Field().String()]
		return ok
	})
	return v
}

// Load reads and validates the blueprint at path.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, generrors.New(generrors.ErrCodeBlueprintNotFound,
				fmt.Sprintf("blueprint %s does not exist", path), err).
				WithDetail("path", path).
				WithSuggestion("Create one with 'microgen init' or copy configs/microgen.example.yaml")
		}
		return nil, generrors.FilesystemError("read blueprint", path, err)
	}
	bp, err := Parse(data)
	if err != nil {
		var ge *generrors.GenError
		if errors.As(err, &ge) {
			ge.WithDetail("path", path)
		}
		return nil, err
	}
	return bp, nil
}

// Parse decodes and validates blueprint YAML.
func Parse(data []byte) (*Blueprint, error) {
	var bp Blueprint
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bp); err != nil {
		if err == io.EOF {
			err = errors.New("blueprint is empty")
		}
		return nil, generrors.New(generrors.ErrCodeBlueprintInvalid, "failed to parse blueprint", err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Validate checks field tags and cross references.
func (b *Blueprint) Validate() error {
	var problems []string

	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describe(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	aggregates := map[string]bool{}
	for _, a := range b.Aggregates {
		if aggregates[a.Name] {
			problems = append(problems, fmt.Sprintf("aggregate %q is declared twice", a.Name))
		}
		aggregates[a.Name] = true
		problems = append(problems, duplicateFields("aggregate "+a.Name, a.Fields)...)
	}

	events := map[string]bool{}
	for _, e := range b.Events {
		if events[e.Name] {
			problems = append(problems, fmt.Sprintf("event %q is declared twice", e.Name))
		}
		events[e.Name] = true
		if e.Aggregate != "" && !aggregates[e.Aggregate] {
			problems = append(problems, fmt.Sprintf("event %q references unknown aggregate %q", e.Name, e.Aggregate))
		}
	}

	projections := map[string]bool{}
	for _, p := range b.Projections {
		if projections[p.Name] {
			problems = append(problems, fmt.Sprintf("projection %q is declared twice", p.Name))
		}
		projections[p.Name] = true
		if p.Aggregate != "" && !aggregates[p.Aggregate] {
			problems = append(problems, fmt.Sprintf("projection %q references unknown aggregate %q", p.Name, p.Aggregate))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return generrors.New(generrors.ErrCodeBlueprintInvalid,
		fmt.Sprintf("blueprint has %d problem(s)", len(problems)), errors.New(strings.Join(problems, "; "))).
		WithDetail("problems", strings.Join(problems, "\n"))
}

func duplicateFields(owner string, fields []Field) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f.Name] {
			out = append(out, fmt.Sprintf("%s declares field %q twice", owner, f.Name))
		}
		seen[f.Name] = true
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "identifier":
		return fmt.Sprintf("%s %q is not a valid identifier", fe.Namespace(), fe.Value())
	case "fieldtype":
		known := make([]string, 0, len(fieldTypes))
		for k := range fieldTypes {
			known = append(known, k)
		}
		sort.Strings(known)
		return fmt.Sprintf("%s %q is not a known type (known: %s)", fe.Namespace(), fe.Value(), strings.Join(known, ", "))
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}

// Aggregate returns the aggregate called name.
func (b *Blueprint) Aggregate(name string) (Aggregate, bool) {
	for _, a := range b.Aggregates {
		if a.Name == name {
			return a, true
		}
	}
	return Aggregate{}, false
}

// EventsFor returns the events emitted by aggregate, in declaration order.
func (b *Blueprint) EventsFor(aggregate string) []Event {
	var out []Event
	for _, e := range b.Events {
		if e.Aggregate == aggregate {
			out = append(out, e)
		}
	}
	return out
}

// Context keys added for per-projection templates.
const (
	KeyAggregate        = "aggregate"
	KeyAggregateVar     = "aggregate_var"
	KeyAggregateSnake   = "aggregate_snake"
	KeyAggregateTable   = "aggregate_table"
	KeyProjectionName   = "projection_name"
	KeyReadModelFields  = "read_model_fields"
	KeyReadModelImports = "read_model_imports"
	KeyEventCases       = "event_cases"
)

// ProjectionContext returns a copy of base extended with the naming and
// rendered code snippets for p.
func (b *Blueprint) ProjectionContext(p Projection, base project.RenderContext) project.RenderContext {
	ctx := base.Clone()
	agg, _ := b.Aggregate(p.Aggregate)

	ctx[KeyAggregate] = inflect.Camelize(p.Aggregate)
	ctx[KeyAggregateVar] = inflect.CamelizeDownFirst(p.Aggregate)
	ctx[KeyAggregateSnake] = inflect.Underscore(p.Aggregate)
	ctx[KeyAggregateTable] = inflect.Tableize(p.Aggregate)
	ctx[KeyProjectionName] = p.Name

	var fields strings.Builder
	needsTime := false
	for i, f := range agg.Fields {
		goType := fieldTypes[f.Type]
		if goType == "time.Time" {
			needsTime = true
		}
		if i > 0 {
			fields.WriteString("\n")
		}
		fmt.Fprintf(&fields, "\t%s %s `json:\"%s\"`", inflect.Camelize(f.Name), goType, inflect.Underscore(f.Name))
	}
	ctx[KeyReadModelFields] = fields.String()
	if needsTime {
		ctx[KeyReadModelImports] = "\nimport \"time\"\n"
	} else {
		ctx[KeyReadModelImports] = ""
	}

	var cases strings.Builder
	for i, e := range b.EventsFor(p.Aggregate) {
		if i > 0 {
			cases.WriteString("\n")
		}
		fmt.Fprintf(&cases, "\tcase %q:\n\t\tif err := evt.Decode(m); err != nil {\n\t\t\treturn err\n\t\t}", inflect.Camelize(e.Name))
	}
	ctx[KeyEventCases] = cases.String()
	return ctx
}
