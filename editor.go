package modelref

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// PlaceholderValue marks record values that must be filled in by hand
// because the artifact could not be downloaded anonymously.
const PlaceholderValue = "REPLACE_ME"

// DefaultModelType is the artifact type given to records created by Editor.
const DefaultModelType = "ckpt"

// KnownStyles are the style values offered by Editor.
var KnownStyles = []string{"anime", "artistic", "furry", "generalist", "other", "realistic"}

// KnownBaselines are the baseline values offered by Editor.
var KnownBaselines = []string{
	"stable diffusion 1",
	"stable diffusion 2",
	"stable_diffusion_xl",
	"stable_cascade",
	"flux_1",
}

// Prompter asks the user for values.
type Prompter interface {
	// Input asks for free text. def is offered as the default answer.
	Input(ctx context.Context, message, def string) (string, error)

	// Select asks for one of options. def is preselected when it is one of them.
	Select(ctx context.Context, message string, options []string, def string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// EditResult describes a completed edit.
type EditResult struct {
	// Action is "added", "updated" or "removed".
	Action string `json:"action" yaml:"action"`

	Model string `json:"model" yaml:"model"`

	// Warnings lists things the user must follow up on, such as placeholders.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithEditorHTTPClient sets the client used to download artifacts.
func WithEditorHTTPClient(client HTTPClient) EditorOption {
	return func(e *Editor) {
		e.client = client
	}
}

// WithEditorLogger sets a logger for diagnostic output.
func WithEditorLogger(logger Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithFetchProgress sets the progress callback passed to FetchArtifact.
func WithFetchProgress(fn func(done, total int64)) EditorOption {
	return func(e *Editor) {
		e.progress = fn
	}
}

// WithEditorKeyPolicy sets the key policy used when loading the reference.
func WithEditorKeyPolicy(p KeyPolicy) EditorOption {
	return func(e *Editor) {
		e.keyPolicy = p
	}
}

// Editor adds, updates and removes records of a reference file through
// interactive prompts. Every record it writes passes strict validation.
type Editor struct {
	path      string
	prompt    Prompter
	client    HTTPClient
	logger    Logger
	progress  func(done, total int64)
	keyPolicy KeyPolicy
}

// NewEditor returns an Editor for the reference file at path.
func NewEditor(path string, p Prompter, opts ...EditorOption) *Editor {
	e := &Editor{path: path, prompt: p}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add prompts for a new model, downloads its artifact and saves the record.
// A name that already exists fails with ErrDuplicateKey.
func (e *Editor) Add(ctx context.Context) (EditResult, error) {
	ref, err := e.load()
	if err != nil {
		return EditResult{}, err
	}

	rec, warnings, err := e.form(ctx, ModelRecord{Type: DefaultModelType})
	if err != nil {
		return EditResult{}, err
	}

	if _, exists := ref[rec.Name]; exists {
		return EditResult{}, fmt.Errorf("%w: model %q already exists, use update", ErrDuplicateKey, rec.Name)
	}

	ref[rec.Name] = rec
	if err := e.save(ref, rec); err != nil {
		return EditResult{}, err
	}

	return EditResult{Action: "added", Model: rec.Name, Warnings: warnings}, nil
}

// Update prompts for an existing model name and new values, defaulting to the
// current ones. Fields the form does not cover are kept. Renaming moves the
// record to its new key.
func (e *Editor) Update(ctx context.Context) (EditResult, error) {
	ref, err := e.load()
	if err != nil {
		return EditResult{}, err
	}

	name, err := e.prompt.Input(ctx, "Model name to update:", "")
	if err != nil {
		return EditResult{}, err
	}
	current, ok := ref[name]
	if !ok {
		return EditResult{}, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}

	rec, warnings, err := e.form(ctx, current)
	if err != nil {
		return EditResult{}, err
	}

	if rec.Name != name {
		if _, exists := ref[rec.Name]; exists {
			return EditResult{}, fmt.Errorf("%w: cannot rename %q to existing model %q", ErrDuplicateKey, name, rec.Name)
		}
		delete(ref, name)
	}

	ref[rec.Name] = rec
	if err := e.save(ref, rec); err != nil {
		return EditResult{}, err
	}

	return EditResult{Action: "updated", Model: rec.Name, Warnings: warnings}, nil
}

// Remove prompts for a model name and deletes that record.
// The name must match exactly, otherwise ErrModelNotFound is returned.
func (e *Editor) Remove(ctx context.Context) (EditResult, error) {
	ref, err := e.load()
	if err != nil {
		return EditResult{}, err
	}

	name, err := e.prompt.Input(ctx, "Model name to remove:", "")
	if err != nil {
		return EditResult{}, err
	}
	if _, ok := ref[name]; !ok {
		return EditResult{}, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}

	delete(ref, name)
	if err := Save(e.path, ref); err != nil {
		return EditResult{}, err
	}

	if e.logger != nil {
		e.logger.Info("removed model", "model", name, "path", e.path)
	}
	return EditResult{Action: "removed", Model: name}, nil
}

// load reads the reference, treating a missing file as an empty one.
func (e *Editor) load() (Reference, error) {
	if _, err := os.Stat(e.path); errors.Is(err, os.ErrNotExist) {
		if e.logger != nil {
			e.logger.Debug("reference file does not exist, starting empty", "path", e.path)
		}
		return make(Reference), nil
	}
	return Load(e.path, WithKeyPolicy(e.keyPolicy))
}

// save validates rec strictly and writes ref.
func (e *Editor) save(ref Reference, rec ModelRecord) error {
	if errs := ValidateRecord(rec.Name, rec, true); len(errs) > 0 {
		res := ValidationResult{Errors: errs}
		return fmt.Errorf("%w: %s", res.Err(), strings.Join(res.Messages(), "; "))
	}

	if err := Save(e.path, ref); err != nil {
		return err
	}

	if e.logger != nil {
		e.logger.Info("saved model", "model", rec.Name, "path", e.path)
	}
	return nil
}

// form prompts for the editable fields, using base for defaults, and
// downloads the artifact to fill config and size.
func (e *Editor) form(ctx context.Context, base ModelRecord) (ModelRecord, []string, error) {
	rec := base
	var err error

	if rec.Name, err = e.prompt.Input(ctx, "Model name:", base.Name); err != nil {
		return ModelRecord{}, nil, err
	}
	rec.Name = strings.TrimSpace(rec.Name)

	if rec.Baseline, err = e.prompt.Select(ctx, "Baseline:", KnownBaselines, base.Baseline); err != nil {
		return ModelRecord{}, nil, err
	}
	if rec.Inpainting, err = e.prompt.Confirm(ctx, "Inpainting?", base.Inpainting); err != nil {
		return ModelRecord{}, nil, err
	}
	if rec.Description, err = e.prompt.Input(ctx, "Description:", base.Description); err != nil {
		return ModelRecord{}, nil, err
	}
	if rec.Version, err = e.prompt.Input(ctx, "Version:", base.Version); err != nil {
		return ModelRecord{}, nil, err
	}
	if rec.Style, err = e.prompt.Select(ctx, "Style:", KnownStyles, base.Style); err != nil {
		return ModelRecord{}, nil, err
	}
	if rec.Homepage, err = e.prompt.Input(ctx, "Homepage URL:", base.Homepage); err != nil {
		return ModelRecord{}, nil, err
	}
	if rec.NSFW, err = e.prompt.Confirm(ctx, "NSFW?", base.NSFW); err != nil {
		return ModelRecord{}, nil, err
	}

	currentURL := firstDownloadURL(base)
	fileURL, err := e.prompt.Input(ctx, "Download URL:", currentURL)
	if err != nil {
		return ModelRecord{}, nil, err
	}
	fileURL = strings.TrimSpace(fileURL)
	if !hasRecognizedScheme(fileURL) {
		return ModelRecord{}, nil, fmt.Errorf("%w: download URL %q must be an http(s) URL", ErrValidation, fileURL)
	}

	if fileURL != "" && fileURL == currentURL && base.Config.Defined() {
		refetch, err := e.prompt.Confirm(ctx, "Download URL unchanged. Download again to refresh the checksum?", false)
		if err != nil {
			return ModelRecord{}, nil, err
		}
		if !refetch {
			return rec, nil, nil
		}
	}

	var warnings []string
	art, err := FetchArtifact(ctx, e.client, fileURL, e.progress)
	switch {
	case errors.Is(err, ErrAuthorizationRequired):
		warnings = append(warnings, fmt.Sprintf(
			"Model %s requires authorization to download; replace the %s values in %s by hand.", rec.Name, PlaceholderValue, e.path))
		if e.logger != nil {
			e.logger.Warn("artifact requires authorization, writing placeholders", "model", rec.Name, "url", fileURL)
		}
		art = Artifact{FileName: PlaceholderValue, Size: 1}
	case err != nil:
		return ModelRecord{}, nil, err
	}

	files := FileEntry(art.FileName, art.SHA256)
	rec.Config = NewConfig(
		ConfigGroup{Name: GroupFiles, Entries: []ConfigEntry{files}},
		ConfigGroup{Name: GroupDownload, Entries: []ConfigEntry{DownloadEntry(art.FileName, "", fileURL)}},
	)
	rec.SizeOnDiskBytes = art.Size

	return rec, warnings, nil
}

func firstDownloadURL(rec ModelRecord) string {
	entries, _ := rec.Config.Group(GroupDownload)
	for _, e := range entries {
		if e.Kind == EntryDownload {
			return e.Download.FileURL
		}
	}
	return ""
}
