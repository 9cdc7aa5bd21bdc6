package modelref

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recordDoc wraps one record body, keyed by "m", as a reference document.
func recordDoc(body string) string {
	return `{"m": {"name": "m", "baseline": "stable diffusion 1", "type": "ckpt", ` + body + `}}`
}

const goodConfig = `"config": {
	"files": [{"path": "m.ckpt", "sha256sum": "` + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA" + `"}],
	"download": [{"file_name": "m.ckpt", "file_path": "", "file_url": "https://example.com/m.ckpt"}]
}`

func TestValidateValid(t *testing.T) {
	ref := mustParse(t, recordDoc(goodConfig))

	for _, strict := range []bool{false, true} {
		res := Validate(ref, strict)
		if !res.OK || len(res.Errors) != 0 {
			t.Errorf("Validate(strict=%v) = %v, want OK", strict, res.Messages())
		}
		if res.Errors == nil {
			t.Errorf("Validate(strict=%v).Errors = nil, want empty slice", strict)
		}
	}
}

func TestValidateStrictExtraField(t *testing.T) {
	ref := mustParse(t, recordDoc(`"legacy_flag": true, `+goodConfig))

	loose := Validate(ref, false)
	if !loose.OK {
		t.Errorf("Validate(loose) = %v, want no errors", loose.Messages())
	}

	strict := Validate(ref, true)
	if strict.OK || len(strict.Errors) != 1 {
		t.Fatalf("Validate(strict) = %v, want exactly one error", strict.Messages())
	}
	e := strict.Errors[0]
	if e.Model != "m" || e.Field != "legacy_flag" || !strings.Contains(e.Message, "legacy_flag") {
		t.Errorf("error = %+v, want model m and field legacy_flag", e)
	}
	if !errors.Is(strict.Err(), ErrValidation) {
		t.Errorf("Err() = %v, want ErrValidation", strict.Err())
	}
}

func TestValidateStrictEntryExtraField(t *testing.T) {
	doc := recordDoc(`"config": {
		"files": [{"path": "m.ckpt", "md5sum": "x"}],
		"download": [{"file_name": "m.ckpt", "file_path": "", "file_url": "https://example.com/m.ckpt"}]
	}`)
	ref := mustParse(t, doc)

	if res := Validate(ref, false); !res.OK {
		t.Errorf("Validate(loose) = %v, want no errors", res.Messages())
	}

	res := Validate(ref, true)
	if len(res.Errors) != 1 || res.Errors[0].Field != "config.files[0].md5sum" {
		t.Errorf("Validate(strict) = %+v, want one error on config.files[0].md5sum", res.Errors)
	}
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		wantField string
		wantText  string
	}{
		{
			name:      "unknown group",
			config:    `"config": {"files": [], "download": [{"file_name": "a", "file_path": "", "file_url": "https://x/a"}], "extras": []}`,
			wantField: "config.extras",
			wantText:  "unknown config group",
		},
		{
			name:      "unknown entry",
			config:    `"config": {"files": [{"md5sum": "x"}]}`,
			wantField: "config.files[0]",
			wantText:  "neither a file nor a download record",
		},
		{
			name:      "ambiguous entry",
			config:    `"config": {"files": [{"path": "a", "file_url": "https://x/a"}]}`,
			wantField: "config.files[0]",
			wantText:  "both file and download fields",
		},
		{
			name:      "lowercase checksum",
			config:    `"config": {"files": [{"path": "a", "sha256sum": "` + strings.Repeat("a", 64) + `"}]}`,
			wantField: "config.files[0].sha256sum",
			wantText:  "64 uppercase hexadecimal",
		},
		{
			name:      "short checksum",
			config:    `"config": {"files": [{"path": "a", "sha256sum": "ABC"}]}`,
			wantField: "config.files[0].sha256sum",
			wantText:  "64 uppercase hexadecimal",
		},
		{
			name:      "file entry without path",
			config:    `"config": {"files": [{"sha256sum": "` + strings.Repeat("A", 64) + `"}]}`,
			wantField: "config.files[0].path",
			wantText:  `"path" is required`,
		},
		{
			name:      "download entry without file name",
			config:    `"config": {"download": [{"file_path": "", "file_url": "https://x/a"}]}`,
			wantField: "config.download[0].file_name",
			wantText:  `"file_name" is required`,
		},
		{
			name:      "download group without usable url",
			config:    `"config": {"download": [{"file_name": "a", "file_path": "", "file_url": "ftp://x/a"}]}`,
			wantField: "config.download",
			wantText:  "http(s) file_url",
		},
		{
			name:      "download group with empty url",
			config:    `"config": {"download": [{"file_name": "a", "file_path": "", "file_url": ""}]}`,
			wantField: "config.download",
			wantText:  "http(s) file_url",
		},
		{
			name:      "empty download group",
			config:    `"config": {"download": []}`,
			wantField: "config.download",
			wantText:  "http(s) file_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := mustParse(t, recordDoc(tt.config))
			res := Validate(ref, false)

			if res.OK {
				t.Fatal("Validate() OK, want errors")
			}
			var found bool
			for _, e := range res.Errors {
				if e.Field == tt.wantField && strings.Contains(e.Message, tt.wantText) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %+v do not include field %q with %q", res.Errors, tt.wantField, tt.wantText)
			}
		})
	}
}

func TestValidateRecordRequiredAndName(t *testing.T) {
	rec := ModelRecord{Name: "other", Type: "ckpt"}

	errs := ValidateRecord("m", rec, false)

	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	want := []string{"baseline", "config", "name"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("error fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateOrderAndBatch(t *testing.T) {
	ref := Reference{
		"zeta":  {Name: "zeta", Type: "ckpt", Config: NewConfig()},
		"alpha": {Name: "alpha", Type: "ckpt", Config: NewConfig()},
		"mid":   testRecord("mid", hashA, "https://example.com/mid"),
	}

	res := Validate(ref, true)

	var models []string
	for _, e := range res.Errors {
		models = append(models, e.Model)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, models); diff != "" {
		t.Errorf("error order mismatch (-want +got):\n%s", diff)
	}

	again := Validate(ref, true)
	if diff := cmp.Diff(res, again); diff != "" {
		t.Errorf("Validate() not deterministic (-first +second):\n%s", diff)
	}
}

func TestValidateFile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, "ref.json", recordDoc(goodConfig))
		res, err := ValidateFile(path, true)
		if err != nil {
			t.Fatalf("ValidateFile() error = %v", err)
		}
		if !res.OK {
			t.Errorf("ValidateFile() = %v, want OK", res.Messages())
		}
	})

	t.Run("load failure is an error", func(t *testing.T) {
		_, err := ValidateFile(filepath.Join(t.TempDir(), "missing.json"), false)
		if !errors.Is(err, ErrStorage) {
			t.Errorf("ValidateFile() error = %v, want ErrStorage", err)
		}
	})

	t.Run("schema failure is an error", func(t *testing.T) {
		path := writeFile(t, "ref.json", `{"m": {"name": "m"}}`)
		_, err := ValidateFile(path, false)
		if !errors.Is(err, ErrSchema) {
			t.Errorf("ValidateFile() error = %v, want ErrSchema", err)
		}
	})
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Model: "m", Field: "x", Message: `undeclared field "x"`}
	if got, want := e.Error(), `model "m": undeclared field "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
