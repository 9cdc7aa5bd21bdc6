// Package modelref loads, compares and validates the AI Horde image model
// reference: a JSON object mapping model names to records that describe the
// model (baseline, version, style, NSFW flag) and its files.
//
// The package serves two use cases:
//
//  1. Programmatic API - Load or Parse a reference, then Diff two versions,
//     Validate the structure or run a URLChecker over the download URLs.
//     Results are plain values; the package never prints.
//
//  2. Embeddable CLI via NewCommand - the horde-modelref command tree with
//     diff, validate, check-urls and edit subcommands.
//
// # Change Detection
//
// A model counts as changed between two references when its content identity
// differs: the first non-empty sha256sum among its file entries, in document
// order. Metadata edits that keep the checksum are not changes.
//
// # Config Entries
//
// Each config group holds entries that are either file records (path,
// sha256sum) or download records (file_name, file_path, file_url). The variant
// is chosen from the keys present; see ConfigEntry.
//
// # Thread Safety
//
// A loaded Reference is never mutated by this package and may be read from
// several goroutines. URLChecker is safe for concurrent use.
package modelref
