// Package validation checks request input against declarative schemas and
// reports every violation in a single BadRequest error.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/nebari-dev/authz/internal/apperror"
)

// Type is the expected JSON type of a field.
type Type int

const (
	String Type = iota
	Integer
	Boolean
	Array
)

// Formats checked on string fields.
const (
	FormatURI   = "uri"
	FormatEmail = "email"
	FormatID    = "id"
)

// Field describes one accepted key.
type Field struct {
	Name       string
	Type       Type
	Required   bool
	MaxLength  int  // 0 means unlimited
	Min        *int // integers only
	Format     string
	Nullable   bool
	AllowEmpty bool
	Items      *Field // element rule for arrays
}

// Schema is an ordered set of fields. Keys not listed are rejected.
type Schema []Field

var formats = validator.New()

// Min returns a pointer for Field.Min.
func Min(n int) *int { return &n }

// Validate checks input and returns a copy with string-encoded integers and
// booleans converted to their typed values.
func (s Schema) Validate(input map[string]any) (map[string]any, error) {
	var problems []string
	out := make(map[string]any, len(input))
	known := make(map[string]struct{}, len(s))

	for _, field := range s {
		known[field.Name] = struct{}{}

		value, present := input[field.Name]
		if !present {
			if field.Required {
				problems = append(problems, fmt.Sprintf("%q is required", field.Name))
			}
			continue
		}

		converted, problem := field.check(field.Name, value)
		if problem != "" {
			problems = append(problems, problem)
			continue
		}
		out[field.Name] = converted
	}

	var unknown []string
	for key := range input {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		problems = append(problems, fmt.Sprintf("%q is not allowed", key))
	}

	if len(problems) > 0 {
		return nil, apperror.BadRequest(strings.Join(problems, ", "))
	}
	return out, nil
}

func (f Field) check(label string, value any) (any, string) {
	if value == nil {
		if f.Nullable {
			return nil, ""
		}
		return nil, typeProblem(label, f.Type)
	}

	switch f.Type {
	case String:
		return f.checkString(label, value)
	case Integer:
		return f.checkInteger(label, value)
	case Boolean:
		return checkBoolean(label, value)
	case Array:
		return f.checkArray(label, value)
	default:
		return nil, fmt.Sprintf("%q has an unsupported type", label)
	}
}

func (f Field) checkString(label string, value any) (any, string) {
	s, ok := value.(string)
	if !ok {
		return nil, typeProblem(label, String)
	}
	if s == "" {
		if f.AllowEmpty {
			return s, ""
		}
		return nil, fmt.Sprintf("%q is not allowed to be empty", label)
	}
	if f.MaxLength > 0 && len([]rune(s)) > f.MaxLength {
		return nil, fmt.Sprintf("%q length must be less than or equal to %d characters long", label, f.MaxLength)
	}

	switch f.Format {
	case FormatURI:
		if formats.Var(s, "uri") != nil {
			return nil, fmt.Sprintf("%q must be a valid uri", label)
		}
	case FormatEmail:
		if formats.Var(s, "email") != nil {
			return nil, fmt.Sprintf("%q must be a valid email", label)
		}
	case FormatID:
		if _, err := ParseID(s); err != nil {
			return nil, fmt.Sprintf("%q must be a valid id", label)
		}
	}
	return s, ""
}

func (f Field) checkInteger(label string, value any) (any, string) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Sprintf("%q must be an integer", label)
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, typeProblem(label, Integer)
		}
		n = parsed
	default:
		return nil, typeProblem(label, Integer)
	}

	if f.Min != nil && n < *f.Min {
		return nil, fmt.Sprintf("%q must be greater than or equal to %d", label, *f.Min)
	}
	return n, ""
}

func checkBoolean(label string, value any) (any, string) {
	switch v := value.(type) {
	case bool:
		return v, ""
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, ""
		case "false":
			return false, ""
		}
	}
	return nil, typeProblem(label, Boolean)
}

func (f Field) checkArray(label string, value any) (any, string) {
	items, ok := value.([]any)
	if !ok {
		return nil, typeProblem(label, Array)
	}
	if f.Items == nil {
		return items, ""
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		converted, problem := f.Items.check(fmt.Sprintf("%s[%d]", label, i), item)
		if problem != "" {
			return nil, problem
		}
		out = append(out, converted)
	}
	return out, ""
}

func typeProblem(label string, t Type) string {
	switch t {
	case Integer:
		return fmt.Sprintf("%q must be a number", label)
	case Boolean:
		return fmt.Sprintf("%q must be a boolean", label)
	case Array:
		return fmt.Sprintf("%q must be an array", label)
	default:
		return fmt.Sprintf("%q must be a string", label)
	}
}

// ParseID parses an entity identifier. Identifiers are positive integers.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest(fmt.Sprintf("%q must be a valid id", "id"))
	}
	return id, nil
}

// Decode copies validated input into out, matching keys to json tags.
func Decode(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return apperror.Internal("", err)
	}
	if err := decoder.Decode(input); err != nil {
		return apperror.BadRequest(err.Error(), err)
	}
	return nil
}
