package harvest

import (
	"context"
	"errors"
)

// absent marks a candidate without a reference attribute
const absent = "<absent>"

// scriptedDriver replays a fixed list of thumbnails. Each scroll reveals
// batch more thumbnails; a batch of zero reveals everything on first scroll.
type scriptedDriver struct {
	thumbs  []*scriptedThumb
	batch   int
	visible int

	navErr    error
	scrollErr error
	listErr   error

	navigated []string
	scrolls   int
	scanned   []string
	current   *scriptedThumb
}

type scriptedThumb struct {
	driver  *scriptedDriver
	refs    []string
	enumErr error
	expands int

	// fail is returned for the first failures expands; zero failures
	// means every expand fails
	fail     error
	failures int
	onExpand func()
}

type scriptedCandidate struct {
	driver *scriptedDriver
	ref    string
}

func newScriptedDriver(batch int) *scriptedDriver {
	return &scriptedDriver{batch: batch}
}

// add appends a thumbnail whose enlarged view shows refs
func (d *scriptedDriver) add(refs ...string) *scriptedThumb {
	t := &scriptedThumb{driver: d, refs: refs}
	d.thumbs = append(d.thumbs, t)
	return t
}

// each appends one thumbnail per reference
func (d *scriptedDriver) each(refs ...string) *scriptedDriver {
	for _, r := range refs {
		d.add(r)
	}
	return d
}

func (d *scriptedDriver) Navigate(_ context.Context, target string) error {
	if d.navErr != nil {
		return d.navErr
	}
	d.navigated = append(d.navigated, target)
	return nil
}

func (d *scriptedDriver) ScrollToBottom(context.Context) error {
	if d.scrollErr != nil {
		return d.scrollErr
	}
	d.scrolls++
	if d.batch == 0 {
		d.visible = len(d.thumbs)
		return nil
	}
	d.visible += d.batch
	if d.visible > len(d.thumbs) {
		d.visible = len(d.thumbs)
	}
	return nil
}

func (d *scriptedDriver) Thumbnails(context.Context) ([]Thumbnail, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]Thumbnail, 0, d.visible)
	for _, t := range d.thumbs[:d.visible] {
		out = append(out, t)
	}
	return out, nil
}

func (d *scriptedDriver) EnlargedCandidates(context.Context) ([]Candidate, error) {
	if d.current == nil {
		return nil, errors.New("nothing expanded")
	}
	if d.current.enumErr != nil {
		return nil, d.current.enumErr
	}
	out := make([]Candidate, 0, len(d.current.refs))
	for _, r := range d.current.refs {
		out = append(out, scriptedCandidate{driver: d, ref: r})
	}
	return out, nil
}

func (t *scriptedThumb) Expand(context.Context) ExpandOutcome {
	t.expands++
	if t.onExpand != nil {
		t.onExpand()
	}
	if t.fail != nil && (t.failures == 0 || t.expands <= t.failures) {
		return Skip(t.fail)
	}
	t.driver.current = t
	return Expanded()
}

func (c scriptedCandidate) Reference() (string, bool) {
	c.driver.scanned = append(c.driver.scanned, c.ref)
	if c.ref == absent {
		return "", false
	}
	return c.ref, true
}
