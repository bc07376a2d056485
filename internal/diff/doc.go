// Package diff parses unified diff text into per-file, per-line change
// records.
//
// The parser tracks old- and new-revision line counters through each @@
// hunk and emits an ordered record for every body line, so downstream
// consumers can reason about which new-revision lines were added and
// which unchanged lines can serve as anchors between the two revisions.
//
// Hunk bodies are validated against the lengths declared in the hunk
// header; a disagreement is reported as a *MalformedDiffError rather
// than producing silently shifted line numbers.
package diff
