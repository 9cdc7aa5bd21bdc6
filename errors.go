package modelref

import "errors"

// Sentinel errors for reference operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrInvalidArgument indicates a malformed command line argument or option value.
	ErrInvalidArgument = errors.New("modelref: invalid argument")

	// ErrParse indicates the reference document is not valid JSON or is not a JSON object.
	ErrParse = errors.New("modelref: malformed reference document")

	// ErrSchema indicates a record does not match the expected shape.
	ErrSchema = errors.New("modelref: record does not match schema")

	// ErrDuplicateKey indicates two model names collide under the key policy.
	ErrDuplicateKey = errors.New("modelref: duplicate model name")

	// ErrMissingVersionIdentifier indicates diff output was requested without
	// both reference version identifiers.
	ErrMissingVersionIdentifier = errors.New("modelref: missing version identifier")

	// ErrValidation indicates structural validation reported at least one error.
	ErrValidation = errors.New("modelref: validation failed")

	// ErrURLCheck indicates at least one download URL failed the reachability check.
	ErrURLCheck = errors.New("modelref: url check failed")

	// ErrNetwork indicates a network or connection failure.
	ErrNetwork = errors.New("modelref: network error")

	// ErrStorage indicates a filesystem operation failed.
	ErrStorage = errors.New("modelref: storage error")

	// ErrModelNotFound indicates the model does not exist in the reference.
	ErrModelNotFound = errors.New("modelref: model not found in reference")

	// ErrAuthorizationRequired indicates the artifact host refused an anonymous download.
	ErrAuthorizationRequired = errors.New("modelref: authorization required")
)
