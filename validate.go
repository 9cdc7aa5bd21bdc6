package modelref

import (
	"fmt"
	"net/url"
	"strings"
)

// recognizedSchemes are the URI schemes a download URL may use.
var recognizedSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
}

// ValidationError is one structural problem found in a reference.
type ValidationError struct {
	// Model is the key of the offending record.
	Model string `json:"model" yaml:"model"`

	// Field locates the problem, e.g. "baseline" or "config.files[0].sha256sum".
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	Message string `json:"message" yaml:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("model %q: %s", e.Model, e.Message)
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	OK     bool              `json:"ok" yaml:"ok"`
	Errors []ValidationError `json:"errors" yaml:"errors"`
}

// Err returns nil when the reference is valid, otherwise an error wrapping
// ErrValidation.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w: %d problem(s)", ErrValidation, len(r.Errors))
}

// Messages returns the error strings in report order.
func (r ValidationResult) Messages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// Validate checks every record of ref and returns all problems found.
//
// Records are visited in name order. With failOnExtraFields set, each field
// not declared by the schema, on a record or on a config entry, is reported;
// otherwise such fields are ignored.
func Validate(ref Reference, failOnExtraFields bool) ValidationResult {
	errs := []ValidationError{}
	for _, name := range ref.Names() {
		errs = append(errs, ValidateRecord(name, ref[name], failOnExtraFields)...)
	}
	return ValidationResult{OK: len(errs) == 0, Errors: errs}
}

// ValidateFile loads the reference at path and validates it.
// Load failures are returned as the error; validation problems are in the result.
func ValidateFile(path string, failOnExtraFields bool, opts ...LoadOption) (ValidationResult, error) {
	ref, err := Load(path, opts...)
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(ref, failOnExtraFields), nil
}

// ValidateRecord checks a single record stored under name.
func ValidateRecord(name string, rec ModelRecord, failOnExtraFields bool) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Model: name, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for _, p := range recordProblems(rec) {
		add(p.Field, "%s", p.message())
	}

	if rec.Name != "" && rec.Name != name {
		add("name", "name %q does not match its key", rec.Name)
	}

	if failOnExtraFields {
		for _, k := range sortedKeys(rec.Extra) {
			add(k, "undeclared field %q", k)
		}
	}

	for _, group := range rec.Config.Groups() {
		if _, ok := knownGroups[group.Name]; !ok {
			add("config."+group.Name, "unknown config group %q (known: %s, %s)", group.Name, GroupDownload, GroupFiles)
		}

		for i, entry := range group.Entries {
			loc := fmt.Sprintf("config.%s[%d]", group.Name, i)

			switch entry.Kind {
			case EntryFile:
				for _, p := range structProblems(entry.File) {
					add(loc+"."+p.Field, "%s: %s", loc, p.message())
				}
			case EntryDownload:
				for _, p := range structProblems(entry.Download) {
					add(loc+"."+p.Field, "%s: %s", loc, p.message())
				}
			default:
				add(loc, "%s: entry matches neither a file nor a download record: %s", loc, entry)
				continue
			}

			if entry.Ambiguous {
				add(loc, "%s: entry carries both file and download fields", loc)
			}

			if failOnExtraFields {
				for _, k := range sortedKeys(entry.Extra) {
					add(loc+"."+k, "%s: undeclared field %q", loc, k)
				}
			}
		}
	}

	if entries, ok := rec.Config.Group(GroupDownload); ok && !hasUsableDownload(entries) {
		add("config."+GroupDownload, "download group has no download record with an http(s) file_url")
	}

	return errs
}

// hasUsableDownload reports whether entries hold a download record whose
// file_url is non-empty and uses a recognized scheme.
func hasUsableDownload(entries []ConfigEntry) bool {
	for _, e := range entries {
		if e.Kind == EntryDownload && hasRecognizedScheme(e.Download.FileURL) {
			return true
		}
	}
	return false
}

func hasRecognizedScheme(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	_, ok := recognizedSchemes[strings.ToLower(u.Scheme)]
	return ok && u.Host != ""
}
