package ingest

import "strings"

// Deduper tracks normalized (section, idea) identities across the whole
// store history plus the current run. Not safe for concurrent use; the
// gating loop is sequential.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper creates an empty Deduper. Callers Add every existing store
// row before gating new candidates.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Key computes the dedup identity: lower-cased, trimmed section and idea
// joined with "|".
func Key(section, idea string) string {
	return strings.ToLower(strings.TrimSpace(section) + "|" + strings.TrimSpace(idea))
}

// Seen reports whether the identity is already known.
func (d *Deduper) Seen(key string) bool {
	_, ok := d.seen[key]
	return ok
}

// Add marks an identity as known. Adding is incremental within a run so two
// same-run candidates with one identity collapse to the first.
func (d *Deduper) Add(key string) {
	d.seen[key] = struct{}{}
}

// Len returns the number of known identities.
func (d *Deduper) Len() int {
	return len(d.seen)
}
