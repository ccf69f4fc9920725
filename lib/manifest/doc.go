// Package manifest holds the runtime schema of the simulator state: the set
// of {id, name, kind} entries the remote announces in its manifest frame.
//
// A Manifest is an immutable snapshot. Every manifest frame produces a new
// snapshot that replaces the previous one as a whole, there is no diffing.
//
// Parsing rules for the manifest text:
//   - The text is split on newlines, empty lines are skipped
//   - Each line is split on commas, empty fields are skipped
//   - A line needs at least three fields; the first two must parse as
//     int32 (id and kind tag), otherwise the line is skipped
//   - The third field is the name, further fields are ignored
//
// Entries are sorted ascending by id with a stable sort, so entries sharing
// an id keep their arrival order. Lookup by id uses binary search; lookup by
// name uses a map built from the sorted entries in which a duplicated name
// resolves to its last entry. Every entry stays reachable by id.
//
// Thread Safety:
//
//	A Manifest is never modified after construction and may be shared freely
//	between goroutines.
package manifest
