package modelref

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteDiff(t *testing.T) {
	oldRef := refWithHashes(map[string]string{"keep": hashA, "gone": hashB, "edit": hashA})
	newRef := refWithHashes(map[string]string{"keep": hashA, "new": hashC, "edit": hashC})
	res := Diff(oldRef, newRef)

	dir := t.TempDir()
	outDir, err := WriteDiff(dir, "0123456789abcdef", "fedcba9876543210", res)
	if err != nil {
		t.Fatalf("WriteDiff() error = %v", err)
	}

	wantDir := filepath.Join(dir, "01234567...fedcba98")
	if outDir != wantDir {
		t.Errorf("WriteDiff() dir = %q, want %q", outDir, wantDir)
	}

	tests := []struct {
		file  string
		names []string
	}{
		{AddedFile, []string{"new"}},
		{RemovedFile, []string{"gone"}},
		{ChangedFile, []string{"edit"}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(outDir, tt.file))
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !strings.HasSuffix(string(data), "\n") {
				t.Error("document should end with a newline")
			}

			var doc map[string]ModelRecord
			if err := json.Unmarshal(data, &doc); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := cmp.Diff(tt.names, Reference(doc).Names()); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// The changed document holds the new-side record.
	data, _ := os.ReadFile(filepath.Join(outDir, ChangedFile))
	if !strings.Contains(string(data), hashC) || strings.Contains(string(data), hashA) {
		t.Error("changed document should carry the new checksum only")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var written []string
	for _, e := range entries {
		written = append(written, e.Name())
	}
	if diff := cmp.Diff([]string{AddedFile, ChangedFile, RemovedFile}, written); diff != "" {
		t.Errorf("output directory contents mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDiffEmptyDocuments(t *testing.T) {
	outDir, err := WriteDiff(t.TempDir(), "aaaaaaaa", "bbbbbbbb", DiffResult{})
	if err != nil {
		t.Fatalf("WriteDiff() error = %v", err)
	}

	for _, name := range []string{AddedFile, RemovedFile, ChangedFile} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", name, err)
		}
		if string(data) != "{}\n" {
			t.Errorf("%s = %q, want %q", name, data, "{}\n")
		}
	}
}

func TestWriteDiffMissingIdentifier(t *testing.T) {
	res := Diff(Reference{}, refWithHashes(map[string]string{"m": hashA}))

	tests := []struct {
		name         string
		oldID, newID string
	}{
		{"old missing", "", "bbbbbbbb"},
		{"new missing", "aaaaaaaa", ""},
		{"both missing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := WriteDiff(dir, tt.oldID, tt.newID, res)
			if !errors.Is(err, ErrMissingVersionIdentifier) {
				t.Fatalf("WriteDiff() error = %v, want ErrMissingVersionIdentifier", err)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("WriteDiff() wrote %d entries, want none", len(entries))
			}
		})
	}
}
