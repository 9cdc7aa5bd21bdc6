package modelref

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// schemaValidate checks struct tags on records and entries.
// validator.Validate caches struct metadata and is safe for concurrent use.
var schemaValidate = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New()
	// Report JSON member names instead of Go field names.
	v.RegisterTagNameFunc(jsonName)
	return v
}

// fieldProblem is one failed struct-tag rule.
type fieldProblem struct {
	// Field is the JSON member name.
	Field string

	// Tag is the failed validator tag, e.g. "required".
	Tag string
}

// message returns the human-readable form of the problem.
func (p fieldProblem) message() string {
	switch p.Tag {
	case "required":
		return fmt.Sprintf("field %q is required", p.Field)
	case "len", "hexadecimal", "uppercase":
		return fmt.Sprintf("field %q must be 64 uppercase hexadecimal characters", p.Field)
	default:
		return fmt.Sprintf("field %q failed %q check", p.Field, p.Tag)
	}
}

// structProblems runs the struct-tag rules on v, which is a struct value.
func structProblems(v any) []fieldProblem {
	err := schemaValidate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldProblem{{Field: reflect.TypeOf(v).Name(), Tag: err.Error()}}
	}

	problems := make([]fieldProblem, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fieldProblem{Field: fe.Field(), Tag: fe.Tag()})
	}
	return problems
}

// recordProblems returns the struct-tag problems of a record plus the config
// presence rule, which struct tags cannot express for a non-pointer struct.
func recordProblems(rec ModelRecord) []fieldProblem {
	problems := structProblems(rec)
	if !rec.Config.Defined() {
		problems = append(problems, fieldProblem{Field: "config", Tag: "required"})
	}
	return problems
}
