// Package collector runs a complete image collection job.
//
// For every search query the Collector harvests candidate image references
// through a harvest.Driver, downloads and decodes each reference, and stores
// it as a JPEG named after the query and the reference position:
//
//	Cubism Painting -> Cubism_Painting0.jpg, Cubism_Painting1.jpg, ...
//
// Progress is checkpointed after every harvest and every saved image, so an
// interrupted run can be resumed with the same output directory. The
// checkpoint is removed once every query has been processed.
//
// Usage:
//
//	b, err := browser.Launch(&cfg.Browser, log)
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	c := collector.New(b, dataset.NewFetcher(&cfg.Download, log), cfg,
//	    collector.WithResume(true))
//	summary, err := c.Run(ctx, cfg.Search.Queries)
//
// Downloads are sequential. A reference that cannot be fetched, decoded or
// stored is logged, counted as failed and skipped.
package collector
