package modelref

import (
	"encoding/json"
	"sort"
)

// Reference maps model names to their records.
// A loaded Reference is never mutated by this package and is safe for
// concurrent readers.
type Reference map[string]ModelRecord

// Names returns the model names in ascending order.
func (r Reference) Names() []string {
	return sortedKeys(r)
}

// documentNames returns the model names in the order they appeared in the
// source document. Records built in code follow, in name order.
func (r Reference) documentNames() []string {
	names := r.Names()
	sort.SliceStable(names, func(i, j int) bool {
		a, b := r[names[i]].order.index, r[names[j]].order.index
		if a == 0 || b == 0 {
			return a != 0 && b == 0
		}
		return a < b
	})
	return names
}

// ModelRecord describes one model entry of the reference.
type ModelRecord struct {
	// Name is the model name. It should equal the record's key in the Reference.
	Name string `json:"name" validate:"required"`

	// Baseline is the model family, e.g. "stable diffusion 1" or "stable_diffusion_xl".
	Baseline string `json:"baseline" validate:"required"`

	// Optimization names an optional optimization variant.
	Optimization string `json:"optimization,omitempty"`

	// Type is the artifact type, e.g. "ckpt".
	Type string `json:"type" validate:"required"`

	Inpainting  bool     `json:"inpainting"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Style       string   `json:"style,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	NSFW        bool     `json:"nsfw"`
	DownloadAll bool     `json:"download_all"`

	// Requirements holds free-form generation requirements (samplers, steps, ...)
	// exactly as written in the source.
	Requirements json.RawMessage `json:"requirements,omitempty"`

	// Config holds the ordered "files" and "download" groups.
	Config Config `json:"config"`

	Available            *bool    `json:"available,omitempty"`
	FeaturesNotSupported []string `json:"features_not_supported,omitempty"`
	SizeOnDiskBytes      int64    `json:"size_on_disk_bytes,omitempty"`
	Showcases            []string `json:"showcases,omitempty"`
	MinBridgeVersion     int      `json:"min_bridge_version,omitempty"`
	Trigger              []string `json:"trigger,omitempty"`

	// Extra holds fields not declared above, keyed by JSON name.
	// They are kept so strict validation can report them and so
	// serialization reproduces the source document.
	Extra map[string]json.RawMessage `json:"-"`

	order docOrder
}

// recordFields is the set of JSON names declared on ModelRecord.
var recordFields = jsonFieldNames(ModelRecord{})

// UnmarshalJSON decodes a record and collects undeclared fields into Extra.
func (m *ModelRecord) UnmarshalJSON(data []byte) error {
	type plain ModelRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	members, fields, err := objectMembers(data)
	if err != nil {
		return err
	}
	p.Extra = extraKeys(fields, recordFields)
	p.order = docOrder{members: members}

	*m = ModelRecord(p)
	return nil
}

// MarshalJSON encodes the record. A decoded record keeps its member order and
// every member it was read with, empty or not; fields set later follow, then
// Extra fields.
func (m ModelRecord) MarshalJSON() ([]byte, error) {
	type plain ModelRecord
	return marshalOrdered(plain(m), m.order.members, m.Extra)
}

// ContentIdentity returns the first non-empty SHA-256 checksum among the
// record's file entries, walking groups and entries in document order.
// The boolean is false when no file entry carries a checksum.
func (m ModelRecord) ContentIdentity() (string, bool) {
	for _, group := range m.Config.Groups() {
		for _, entry := range group.Entries {
			if entry.Kind == EntryFile && entry.File.SHA256 != "" {
				return entry.File.SHA256, true
			}
		}
	}
	return "", false
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
