package harvest

import "net/url"

// ReferenceSet is a set of references that remembers insertion order
type ReferenceSet struct {
	order []string
	seen  map[string]struct{}
}

// NewReferenceSet creates an empty ReferenceSet
func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{seen: make(map[string]struct{})}
}

// Add inserts ref and reports whether it was new
func (s *ReferenceSet) Add(ref string) bool {
	if s.Contains(ref) {
		return false
	}
	s.seen[ref] = struct{}{}
	s.order = append(s.order, ref)
	return true
}

// Contains reports whether ref is in the set
func (s *ReferenceSet) Contains(ref string) bool {
	_, ok := s.seen[ref]
	return ok
}

// Len returns the number of references
func (s *ReferenceSet) Len() int {
	return len(s.order)
}

// Snapshot returns the references in insertion order
func (s *ReferenceSet) Snapshot() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// IsAbsolute reports whether ref is an http or https locator with a host.
// Inline data: URIs used for placeholder thumbnails are rejected.
func IsAbsolute(ref string) bool {
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
