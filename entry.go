package modelref

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Known config group names.
const (
	GroupFiles    = "files"
	GroupDownload = "download"
)

// knownGroups is the set of config group names the schema declares.
var knownGroups = map[string]struct{}{
	GroupFiles:    {},
	GroupDownload: {},
}

// EntryKind identifies which variant a ConfigEntry holds.
type EntryKind int

const (
	// EntryUnknown is an entry matching neither variant. Its raw JSON is kept.
	EntryUnknown EntryKind = iota

	// EntryFile is a FileRecord.
	EntryFile

	// EntryDownload is a DownloadRecord.
	EntryDownload
)

// String returns the variant name.
func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDownload:
		return "download"
	default:
		return "unknown"
	}
}

// FileRecord names a file belonging to the model and its optional checksum.
type FileRecord struct {
	// Path is relative to the model's install directory.
	Path string `json:"path" validate:"required"`

	// SHA256 is 64 uppercase hex characters when present.
	SHA256 string `json:"sha256sum,omitempty" validate:"omitempty,len=64,hexadecimal,uppercase"`
}

// DownloadRecord names where a model file is downloaded from.
type DownloadRecord struct {
	FileName string `json:"file_name" validate:"required"`

	// FilePath is the local sub-directory and may be empty.
	FilePath string `json:"file_path"`

	FileURL string `json:"file_url"`
}

var (
	fileFields     = jsonFieldNames(FileRecord{})
	downloadFields = jsonFieldNames(DownloadRecord{})
)

// ConfigEntry is a tagged union over FileRecord and DownloadRecord.
//
// The variant is decided from the keys present in the JSON object, in this
// order:
//
//  1. "sha256sum" or "path" present: EntryFile
//  2. "file_url", "file_name" or "file_path" present: EntryDownload
//  3. otherwise: EntryUnknown
//
// An object carrying keys of both variants decodes as EntryFile and is marked
// Ambiguous.
type ConfigEntry struct {
	Kind     EntryKind
	File     FileRecord
	Download DownloadRecord

	// Ambiguous reports that the source object carried keys of both variants.
	Ambiguous bool

	// Extra holds keys not declared by the chosen variant.
	Extra map[string]json.RawMessage

	// raw is the source JSON of an EntryUnknown.
	raw json.RawMessage

	order docOrder
}

// FileEntry returns a ConfigEntry holding a FileRecord.
func FileEntry(path, sha256sum string) ConfigEntry {
	return ConfigEntry{Kind: EntryFile, File: FileRecord{Path: path, SHA256: sha256sum}}
}

// DownloadEntry returns a ConfigEntry holding a DownloadRecord.
func DownloadEntry(fileName, filePath, fileURL string) ConfigEntry {
	return ConfigEntry{Kind: EntryDownload, Download: DownloadRecord{FileName: fileName, FilePath: filePath, FileURL: fileURL}}
}

// Raw returns the source JSON of an EntryUnknown, or nil for known variants.
func (e ConfigEntry) Raw() json.RawMessage {
	return e.raw
}

// String renders the entry as compact JSON for error messages.
func (e ConfigEntry) String() string {
	data, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s entry>", e.Kind)
	}
	return string(data)
}

// UnmarshalJSON decides the variant and decodes into it.
func (e *ConfigEntry) UnmarshalJSON(data []byte) error {
	members, fields, err := objectMembers(data)
	if err != nil {
		return fmt.Errorf("config entry: %w", err)
	}

	out := ConfigEntry{order: docOrder{members: members}}
	switch {
	case hasAny(fields, "sha256sum", "path"):
		out.Kind = EntryFile
		out.Ambiguous = hasAny(fields, "file_url", "file_name", "file_path")
		if err := json.Unmarshal(data, &out.File); err != nil {
			return fmt.Errorf("file entry: %w", err)
		}
		out.Extra = extraKeys(fields, fileFields)
	case hasAny(fields, "file_url", "file_name", "file_path"):
		out.Kind = EntryDownload
		if err := json.Unmarshal(data, &out.Download); err != nil {
			return fmt.Errorf("download entry: %w", err)
		}
		out.Extra = extraKeys(fields, downloadFields)
	default:
		out.Kind = EntryUnknown
		out.raw = append(json.RawMessage(nil), data...)
	}

	*e = out
	return nil
}

// MarshalJSON encodes the held variant followed by any Extra fields.
func (e ConfigEntry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EntryFile:
		return marshalOrdered(e.File, e.order.members, e.Extra)
	case EntryDownload:
		return marshalOrdered(e.Download, e.order.members, e.Extra)
	default:
		if len(e.raw) == 0 {
			return []byte("{}"), nil
		}
		return e.raw, nil
	}
}

// ConfigGroup is one named group of entries.
type ConfigGroup struct {
	Name    string
	Entries []ConfigEntry
}

// Config is the ordered mapping from group name to entries.
// Group order follows the source document. The zero value is an absent
// config; NewConfig returns a present, possibly empty one.
type Config struct {
	groups []ConfigGroup
}

// NewConfig returns a Config holding groups in the given order.
func NewConfig(groups ...ConfigGroup) Config {
	c := Config{groups: make([]ConfigGroup, 0, len(groups))}
	for _, g := range groups {
		c.Set(g.Name, g.Entries)
	}
	return c
}

// Defined reports whether the config was present in the source document or
// was built with NewConfig.
func (c Config) Defined() bool {
	return c.groups != nil
}

// Groups returns the groups in order. The slice must not be modified.
func (c Config) Groups() []ConfigGroup {
	return c.groups
}

// Group returns the entries of the named group.
func (c Config) Group(name string) ([]ConfigEntry, bool) {
	for _, g := range c.groups {
		if g.Name == name {
			return g.Entries, true
		}
	}
	return nil, false
}

// Set replaces the entries of the named group, appending the group if absent.
func (c *Config) Set(name string, entries []ConfigEntry) {
	if c.groups == nil {
		c.groups = []ConfigGroup{}
	}
	for i := range c.groups {
		if c.groups[i].Name == name {
			c.groups[i].Entries = entries
			return
		}
	}
	c.groups = append(c.groups, ConfigGroup{Name: name, Entries: entries})
}

// UnmarshalJSON decodes the groups, keeping document order.
// A group name appearing twice is an error.
func (c *Config) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Config{}
		return nil
	}

	groups := []ConfigGroup{}
	err := walkObject(data, func(name string, value json.RawMessage) error {
		for _, g := range groups {
			if g.Name == name {
				return fmt.Errorf("duplicate config group %q", name)
			}
		}
		var entries []ConfigEntry
		if err := json.Unmarshal(value, &entries); err != nil {
			return fmt.Errorf("config group %q: %w", name, err)
		}
		groups = append(groups, ConfigGroup{Name: name, Entries: entries})
		return nil
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.groups = groups
	return nil
}

// MarshalJSON encodes the groups in order.
func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range c.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(g.Name)
		if err != nil {
			return nil, err
		}
		entries := g.Entries
		if entries == nil {
			entries = []ConfigEntry{}
		}
		value, err := marshalNoEscape(entries)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func hasAny(fields map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}
