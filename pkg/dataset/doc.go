// Package dataset turns harvested references into a labelled pixel dataset.
//
// A reference is fetched over HTTP, decoded (JPEG, PNG, GIF, WebP, BMP or
// TIFF) and converted into a PixelArray laid out as height x width x channels.
// Failures never abort a batch: the sample is kept with nil Pixels so that
// the label counts still show what was attempted.
//
// Archives are a gob stream of Archive compressed with gzip. Write replaces
// the target atomically and Read returns the same samples.
//
// Usage:
//
//	w := dataset.NewWriter(dataset.NewFetcher(&cfg.Download, log), log)
//	samples, err := w.Ingest(ctx, dataset.Labeled("Cubism Painting", refs))
//	if err != nil {
//	    return err
//	}
//	if _, err := w.Write(cfg.Output.ArchivePath, samples); err != nil {
//	    return err
//	}
package dataset
