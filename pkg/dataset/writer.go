package dataset

import (
	"context"
	"fmt"
	"time"

	"artscrape/pkg/logger"
)

// LabeledReference is a harvested reference with the label it was found under
type LabeledReference struct {
	Reference string
	Label     string
}

// Labeled pairs every reference with label
func Labeled(label string, refs []string) []LabeledReference {
	out := make([]LabeledReference, len(refs))
	for i, r := range refs {
		out[i] = LabeledReference{Reference: r, Label: label}
	}
	return out
}

// Writer turns labelled references into samples and persists them
type Writer struct {
	fetcher *Fetcher
	logger  logger.Logger
	now     func() time.Time
}

// NewWriter creates a Writer. fetcher may be nil when only Write is used.
func NewWriter(fetcher *Fetcher, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{
		fetcher: fetcher,
		logger:  log,
		now:     time.Now,
	}
}

// Ingest fetches and decodes each reference in order. A failure is logged
// and recorded as a sample without pixels; the batch always completes unless
// ctx is cancelled, in which case the samples so far are returned with
// ctx.Err().
func (w *Writer) Ingest(ctx context.Context, refs []LabeledReference) ([]Sample, error) {
	if w.fetcher == nil {
		return nil, fmt.Errorf("writer has no fetcher")
	}

	samples := make([]Sample, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return samples, err
		}

		sample := Sample{Label: ref.Label, Reference: ref.Reference}
		pixels, err := w.load(ctx, ref.Reference)
		if err != nil {
			logger.LogFetch(w.logger, ref.Label, ref.Reference, err)
		} else {
			sample.Pixels = pixels
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

func (w *Writer) load(ctx context.Context, reference string) (*PixelArray, error) {
	data, err := w.fetcher.Fetch(ctx, reference)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return ToPixelArray(img), nil
}

// Write serialises samples to a compressed archive at path and logs the
// location once it is in place
func (w *Writer) Write(path string, samples []Sample) (*Archive, error) {
	archive := &Archive{
		Version:   ArchiveVersion,
		CreatedAt: w.now().UTC(),
		Samples:   samples,
	}

	if err := writeArchive(path, archive); err != nil {
		return nil, err
	}

	counts := archive.Labels()
	w.logger.InfoWithFields(fmt.Sprintf("Dataset saved to %s", path), map[string]interface{}{
		"path":    path,
		"samples": len(samples),
		"missing": archive.Missing(),
		"labels":  sortedLabels(counts),
	})

	return archive, nil
}
