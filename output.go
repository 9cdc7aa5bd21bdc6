package modelref

import (
	"fmt"
	"path/filepath"
)

// Names of the files written by WriteDiff.
const (
	AddedFile   = "models_added.json"
	RemovedFile = "models_removed.json"
	ChangedFile = "models_changed.json"
)

// WriteDiff writes the diff as three JSON documents under
// dir/CompareID(oldID, newID) and returns that directory.
//
// Each document maps model name to record, in the order the records appear
// in their source reference; the changed document holds the new-side records. Both identifiers are required to name the directory;
// if either is empty ErrMissingVersionIdentifier is returned and nothing is
// written.
func WriteDiff(dir, oldID, newID string, res DiffResult) (string, error) {
	if oldID == "" || newID == "" {
		return "", fmt.Errorf("%w: both the old and the new version identifier are needed to write diff output (old=%q, new=%q)",
			ErrMissingVersionIdentifier, oldID, newID)
	}

	outDir := filepath.Join(dir, CompareID(oldID, newID))

	docs := []struct {
		name    string
		records map[string]ModelRecord
	}{
		{AddedFile, res.Added},
		{RemovedFile, res.Removed},
		{ChangedFile, res.Changed},
	}

	// Encode everything before touching the filesystem.
	encoded := make([][]byte, len(docs))
	for i, doc := range docs {
		data, err := encodeReference(Reference(doc.records))
		if err != nil {
			return "", fmt.Errorf("%w: encoding %s: %v", ErrStorage, doc.name, err)
		}
		encoded[i] = data
	}

	err := withFileLock(lockFile(outDir), DefaultLockTimeout, func() error {
		for i, doc := range docs {
			if err := atomicWrite(filepath.Join(outDir, doc.name), encoded[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return outDir, nil
}
