package harvest

import "context"

// Driver is the page interaction surface the Harvester needs. A Driver owns
// one live page; the caller acquires and releases it around a harvest.
type Driver interface {
	// Navigate loads target in the page
	Navigate(ctx context.Context, target string) error
	// ScrollToBottom scrolls so the source lazily loads more results
	ScrollToBottom(ctx context.Context) error
	// Thumbnails lists the clickable result thumbnails in page order
	Thumbnails(ctx context.Context) ([]Thumbnail, error)
	// EnlargedCandidates lists the enlarged image elements currently rendered
	EnlargedCandidates(ctx context.Context) ([]Candidate, error)
}

// Thumbnail is a result the driver can expand into its enlarged view
type Thumbnail interface {
	Expand(ctx context.Context) ExpandOutcome
}

// Candidate is an enlarged image element. Reference reports false when the
// element has no reference attribute.
type Candidate interface {
	Reference() (string, bool)
}

// ExpandOutcome reports whether expanding a thumbnail worked. A skipped
// expand carries the reason and is never fatal to the harvest.
type ExpandOutcome struct {
	Expanded bool
	Reason   error
}

// Expanded is the outcome of a successful expand
func Expanded() ExpandOutcome {
	return ExpandOutcome{Expanded: true}
}

// Skip is the outcome of an expand that failed for reason
func Skip(reason error) ExpandOutcome {
	return ExpandOutcome{Reason: reason}
}
