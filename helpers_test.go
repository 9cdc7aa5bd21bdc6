package modelref

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Checksums used across tests.
var (
	hashA = strings.Repeat("A", 64)
	hashB = strings.Repeat("B", 64)
	hashC = strings.Repeat("C", 64)
)

// testRecord returns a valid record named name whose files entry carries sha
// (omitted when empty) and whose download entry points at fileURL.
func testRecord(name, sha, fileURL string) ModelRecord {
	return ModelRecord{
		Name:     name,
		Baseline: "stable diffusion 1",
		Type:     "ckpt",
		Version:  "1.0",
		Config: NewConfig(
			ConfigGroup{Name: GroupFiles, Entries: []ConfigEntry{FileEntry(name+".ckpt", sha)}},
			ConfigGroup{Name: GroupDownload, Entries: []ConfigEntry{DownloadEntry(name+".ckpt", "", fileURL)}},
		),
	}
}

// writeFile writes content to name inside a fresh temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// mustParse parses a reference document or fails the test.
func mustParse(t *testing.T, doc string, opts ...LoadOption) Reference {
	t.Helper()
	ref, err := Parse([]byte(doc), opts...)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return ref
}

// identity returns the content identity of rec, or "" when it has none.
func identity(rec ModelRecord) string {
	h, _ := rec.ContentIdentity()
	return h
}
