package modelref

// compareIDPrefix is how many characters of each version identifier name a comparison.
const compareIDPrefix = 8

// HashPair records the content identities of a changed model.
// An empty string means that side carried no checksum.
type HashPair struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// DiffResult is the outcome of comparing two references.
// The maps are keyed by model name; use the *Names methods for a stable order.
type DiffResult struct {
	// Added holds models present only in the new reference.
	Added map[string]ModelRecord

	// Removed holds models present only in the old reference.
	Removed map[string]ModelRecord

	// Changed holds the new-side record of models whose content identity differs.
	Changed map[string]ModelRecord

	// ChangedHashes holds the (old, new) identity pair for each changed model.
	ChangedHashes map[string]HashPair
}

// Diff compares oldRef with newRef.
//
// A model present in both is changed when its content identity differs,
// including when only one side has a checksum. Two records without any
// checksum compare equal, which keeps Diff(r, r) empty for every r.
// Differences in other fields are ignored.
func Diff(oldRef, newRef Reference) DiffResult {
	res := DiffResult{
		Added:         make(map[string]ModelRecord),
		Removed:       make(map[string]ModelRecord),
		Changed:       make(map[string]ModelRecord),
		ChangedHashes: make(map[string]HashPair),
	}

	for name, newRec := range newRef {
		oldRec, ok := oldRef[name]
		if !ok {
			res.Added[name] = newRec
			continue
		}

		oldHash, oldOK := oldRec.ContentIdentity()
		newHash, newOK := newRec.ContentIdentity()
		if oldOK != newOK || oldHash != newHash {
			res.Changed[name] = newRec
			res.ChangedHashes[name] = HashPair{Old: oldHash, New: newHash}
		}
	}

	for name, oldRec := range oldRef {
		if _, ok := newRef[name]; !ok {
			res.Removed[name] = oldRec
		}
	}

	return res
}

// HasChanges reports whether anything was added, removed or changed.
func (d DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// AddedNames returns the added model names in ascending order.
func (d DiffResult) AddedNames() []string { return sortedKeys(d.Added) }

// RemovedNames returns the removed model names in ascending order.
func (d DiffResult) RemovedNames() []string { return sortedKeys(d.Removed) }

// ChangedNames returns the changed model names in ascending order.
func (d DiffResult) ChangedNames() []string { return sortedKeys(d.Changed) }

// CompareID names a comparison as "<old>...<new>" using the first eight
// characters of each version identifier.
func CompareID(oldID, newID string) string {
	return prefix(oldID, compareIDPrefix) + "..." + prefix(newID, compareIDPrefix)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
