package harvest

import "strings"

// DefaultBaseURL is the image search endpoint targets are built on
const DefaultBaseURL = "https://www.google.com/search?"

// SearchSpec is an ordered set of query parameters. Keys keep the position of
// their first insertion; setting an existing key replaces its value in place.
type SearchSpec struct {
	keys   []string
	values map[string]string
}

// NewSearchSpec creates an empty SearchSpec
func NewSearchSpec() *SearchSpec {
	return &SearchSpec{values: make(map[string]string)}
}

// ImageSearch returns the parameters of an image search for query
func ImageSearch(query string) *SearchSpec {
	return NewSearchSpec().Set("q", query).Set("tbm", "isch")
}

// Set assigns value to key and returns the spec for chaining
func (s *SearchSpec) Set(key, value string) *SearchSpec {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
	return s
}

// Get returns the value of key
func (s *SearchSpec) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the parameter names in insertion order
func (s *SearchSpec) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len returns the number of parameters
func (s *SearchSpec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Encode joins the parameters as key=value pairs separated by '&'.
// Values are written verbatim, without escaping.
func (s *SearchSpec) Encode() string {
	if s.Len() == 0 {
		return ""
	}

	var b strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s.values[k])
	}
	return b.String()
}

// BuildTarget appends the encoded spec to base. A nil or empty spec yields
// base unchanged.
func BuildTarget(base string, spec *SearchSpec) string {
	return base + spec.Encode()
}
