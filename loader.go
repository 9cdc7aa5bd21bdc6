package modelref

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

// KeyPolicy decides when two model names count as the same key.
type KeyPolicy int

const (
	// KeyExact treats names as equal only when they are byte-for-byte equal.
	KeyExact KeyPolicy = iota

	// KeyFold trims surrounding whitespace and compares with Unicode case
	// folding, so "Deliberate" and " deliberate" collide.
	KeyFold
)

// normalize returns the comparison form of name under the policy.
func (p KeyPolicy) normalize(name string) string {
	if p == KeyFold {
		// A Caser keeps state and must not be shared.
		return cases.Fold().String(strings.TrimSpace(name))
	}
	return name
}

// String returns the policy name as used in configuration.
func (p KeyPolicy) String() string {
	if p == KeyFold {
		return "fold"
	}
	return "exact"
}

// ParseKeyPolicy parses "exact" or "fold".
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return KeyExact, nil
	case "fold":
		return KeyFold, nil
	default:
		return KeyExact, fmt.Errorf("%w: unknown key policy %q (want exact or fold)", ErrInvalidArgument, s)
	}
}

// LoadOption configures Load and Parse.
type LoadOption func(*loadConfig)

// loadConfig holds configuration for a load operation.
type loadConfig struct {
	// keyPolicy decides duplicate detection.
	keyPolicy KeyPolicy
}

// WithKeyPolicy sets the duplicate-key policy. Default is KeyExact.
func WithKeyPolicy(p KeyPolicy) LoadOption {
	return func(c *loadConfig) {
		c.keyPolicy = p
	}
}

// Load reads and parses the reference file at path.
// The path is used as given; no other locations are searched.
func Load(path string, opts ...LoadOption) (Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, path, err)
	}

	ref, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

// Parse parses a reference document.
//
// It fails with ErrParse when data is not a JSON object, ErrDuplicateKey when
// two names collide under the key policy, and ErrSchema when a record does not
// decode or lacks a required field. Parsing stops at the first failure.
func Parse(data []byte, opts ...LoadOption) (Reference, error) {
	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	ref := make(Reference)
	seen := make(map[string]string)
	position := 0

	var recordErr error
	err := walkObject(data, func(name string, raw json.RawMessage) error {
		key := cfg.keyPolicy.normalize(name)
		if prev, dup := seen[key]; dup {
			recordErr = fmt.Errorf("%w: %q collides with %q (%s policy)", ErrDuplicateKey, name, prev, cfg.keyPolicy)
			return recordErr
		}
		seen[key] = name

		rec, err := decodeRecord(name, raw)
		if err != nil {
			recordErr = err
			return err
		}
		position++
		rec.order.index = position
		ref[name] = rec
		return nil
	})
	if recordErr != nil {
		return nil, recordErr
	}
	if errors.Is(err, errNotObject) {
		return nil, fmt.Errorf("%w: top-level value must be an object of model records", ErrParse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return ref, nil
}

// decodeRecord decodes one record and applies the required-field rules.
func decodeRecord(name string, raw json.RawMessage) (ModelRecord, error) {
	var rec ModelRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ModelRecord{}, fmt.Errorf("%w: model %q: %v", ErrSchema, name, err)
	}

	for _, p := range recordProblems(rec) {
		if p.Tag == "required" {
			return ModelRecord{}, fmt.Errorf("%w: model %q: %s", ErrSchema, name, p.message())
		}
	}

	return rec, nil
}
