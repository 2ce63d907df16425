package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"artscrape/pkg/checkpoint"
	"artscrape/pkg/config"
	"artscrape/pkg/dataset"
	"artscrape/pkg/harvest"
	"artscrape/pkg/logger"
	"artscrape/pkg/metadata"
	"artscrape/pkg/storage"
	"artscrape/pkg/ui"
)

// ErrCheckpointExists is returned when a previous run left a checkpoint and
// neither resume nor force restart was requested
var ErrCheckpointExists = errors.New("checkpoint exists - use --resume to continue or --force-restart to start fresh")

// Fetcher downloads the bytes behind a reference
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// QuerySummary holds the counters of one query
type QuerySummary struct {
	Query string
	// Harvested is the number of unique references collected
	Harvested int
	// Skipped is the number of duplicate references seen while harvesting
	Skipped int
	Saved   int
	// Duplicates counts images whose content matched an already saved file
	Duplicates int
	Failed     int
	// Resumed is set when the references came from a checkpoint
	Resumed bool
}

// Summary is the outcome of a collection run
type Summary struct {
	OutputDir string
	Queries   []QuerySummary
}

// TotalSaved returns the number of images saved across all queries
func (s *Summary) TotalSaved() int {
	total := 0
	for _, q := range s.Queries {
		total += q.Saved
	}
	return total
}

// TotalFailed returns the number of failed references across all queries
func (s *Summary) TotalFailed() int {
	total := 0
	for _, q := range s.Queries {
		total += q.Failed
	}
	return total
}

// Option configures a Collector
type Option func(*Collector)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

// WithResume continues from an existing checkpoint
func WithResume(resume bool) Option {
	return func(c *Collector) {
		c.resume = resume
	}
}

// WithForceRestart discards an existing checkpoint
func WithForceRestart(force bool) Option {
	return func(c *Collector) {
		c.forceRestart = force
	}
}

// Collector orchestrates harvesting, downloading and storing images
type Collector struct {
	driver       harvest.Driver
	fetcher      Fetcher
	config       *config.Config
	logger       logger.Logger
	resume       bool
	forceRestart bool
}

// New creates a Collector. The driver is owned by the caller.
func New(driver harvest.Driver, fetcher Fetcher, cfg *config.Config, opts ...Option) *Collector {
	c := &Collector{
		driver:  driver,
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run collects images for every query. With no queries the configured list
// is used. On error the summary covers the queries processed so far and the
// checkpoint is kept.
func (c *Collector) Run(ctx context.Context, queries []string) (*Summary, error) {
	if len(queries) == 0 {
		queries = c.config.Search.Queries
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries to collect")
	}

	outputDir := c.config.Output.ImageDirectory
	summary := &Summary{OutputDir: outputDir}

	store, err := storage.NewManager(outputDir, c.config.Download.JPEGQuality)
	if err != nil {
		c.logger.WithError(err).WithField("output_dir", outputDir).Error("Failed to create storage manager")
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	if removed, err := metadata.CleanOrphaned(outputDir); err != nil {
		c.logger.WithError(err).Warn("Failed to clean orphaned metadata")
	} else if removed > 0 {
		c.logger.WithField("removed", removed).Debug("Removed orphaned metadata files")
	}

	checkpointMgr, err := checkpoint.NewManager(outputDir)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create checkpoint manager")
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	checkpointMgr.SetLogger(c.logger)

	cp, err := c.openCheckpoint(checkpointMgr, outputDir)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("Starting collection", map[string]interface{}{
		"queries":    len(queries),
		"max_images": c.config.Search.MaxImages,
		"output_dir": outputDir,
		"resume":     c.resume,
	})

	j := &job{
		Collector:     c,
		store:         store,
		checkpointMgr: checkpointMgr,
		checkpoint:    cp,
	}

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		qs, err := j.collect(ctx, query)
		summary.Queries = append(summary.Queries, qs)
		if err != nil {
			return summary, err
		}
	}

	if err := checkpointMgr.Delete(); err != nil {
		c.logger.WithError(err).Warn("Failed to delete checkpoint")
	}

	c.logger.InfoWithFields("Collection completed", map[string]interface{}{
		"saved":  summary.TotalSaved(),
		"failed": summary.TotalFailed(),
	})

	return summary, nil
}

// openCheckpoint applies the resume and force restart policy
func (c *Collector) openCheckpoint(mgr *checkpoint.Manager, outputDir string) (*checkpoint.Checkpoint, error) {
	if mgr.Exists() {
		switch {
		case c.forceRestart:
			if err := mgr.Delete(); err != nil {
				c.logger.WithError(err).Warn("Failed to delete existing checkpoint")
			}
			ui.PrintInfo("Force restart", "Ignoring existing checkpoint")
		case c.resume:
			cp, err := mgr.Load()
			if err != nil {
				c.logger.WithError(err).Error("Failed to load checkpoint")
				return nil, fmt.Errorf("failed to load checkpoint: %w", err)
			}
			if cp != nil {
				ui.PrintInfo("Resuming from checkpoint", fmt.Sprintf("Saved: %d images", cp.TotalSaved()))
				c.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
					"name":        cp.Name,
					"total_saved": cp.TotalSaved(),
				})
				return cp, nil
			}
		default:
			return nil, ErrCheckpointExists
		}
	}

	cp, err := mgr.Create(outputDir, outputDir)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to create checkpoint")
		// Continue without a persisted checkpoint
		cp = &checkpoint.Checkpoint{Name: outputDir, OutputDir: outputDir}
	}
	return cp, nil
}

// job is the state shared by the queries of one Run
type job struct {
	*Collector
	store         *storage.Manager
	checkpointMgr *checkpoint.Manager
	checkpoint    *checkpoint.Checkpoint
}

// collect harvests and stores the images of one query
func (j *job) collect(ctx context.Context, query string) (QuerySummary, error) {
	qs := QuerySummary{Query: query}
	tracker := ui.NewStatusTracker(query, j.config.Search.MaxImages)
	log := j.logger.WithField("query", query)

	references, err := j.references(ctx, query, tracker, &qs)
	if err != nil {
		return qs, err
	}

	for i, reference := range references {
		if err := ctx.Err(); err != nil {
			return qs, err
		}

		name := storage.FileName(query, i)
		if j.alreadySaved(query, reference, name) {
			log.DebugWithFields("Skipping already saved image", map[string]interface{}{
				"file": name,
			})
			qs.Saved++
			tracker.IncrementSaved()
			continue
		}

		meta, err := j.save(ctx, query, i, reference, name)
		switch {
		case err == nil:
			qs.Saved++
			tracker.IncrementSaved()
			if err := meta.Save(filepath.Join(j.store.OutputDir(), name)); err != nil {
				log.WithError(err).Warn("Failed to write image metadata")
			}
			if err := j.checkpointMgr.RecordSave(j.checkpoint, query, reference, name); err != nil {
				log.WithError(err).Warn("Failed to record save in checkpoint")
			}
		case ctx.Err() != nil:
			return qs, ctx.Err()
		case errors.Is(err, storage.ErrDuplicateContent):
			qs.Duplicates++
			log.WithError(err).Debug("Skipping duplicate image content")
			j.discard(name, log)
		default:
			qs.Failed++
			tracker.IncrementFailed()
			logger.LogFetch(j.logger, query, reference, err)
			j.discard(name, log)
			if err := j.checkpointMgr.RecordFailure(j.checkpoint, query); err != nil {
				log.WithError(err).Warn("Failed to record failure in checkpoint")
			}
		}
		tracker.PrintDownloadStatus()
	}

	tracker.PrintSummary()
	log.InfoWithFields("Query completed", map[string]interface{}{
		"harvested":  qs.Harvested,
		"saved":      qs.Saved,
		"duplicates": qs.Duplicates,
		"failed":     qs.Failed,
	})

	return qs, nil
}

// alreadySaved reports whether name already holds reference. The checkpoint
// is trusted; otherwise the file's sidecar must name the same reference. A
// forced restart refetches everything the checkpoint does not cover.
func (j *job) alreadySaved(query, reference, name string) bool {
	if j.checkpoint.IsSaved(query, reference) {
		return true
	}
	if j.forceRestart || !j.store.IsSaved(name) {
		return false
	}

	meta, err := metadata.Load(filepath.Join(j.store.OutputDir(), name))
	return err == nil && meta.Reference == reference
}

// discard removes a file left at name by an earlier run so it is not taken
// for the image of the current reference
func (j *job) discard(name string, log logger.Logger) {
	if !j.store.IsSaved(name) {
		return
	}

	path := filepath.Join(j.store.OutputDir(), name)
	if err := j.store.Remove(name); err != nil {
		log.WithError(err).Warn("Failed to remove stale image")
		return
	}
	if err := os.Remove(path + metadata.Suffix); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to remove stale image metadata")
	}
	log.WithField("file", name).Debug("Removed stale image")
}

// references returns the harvested references of query, from the checkpoint
// when a previous run already harvested it
func (j *job) references(ctx context.Context, query string, tracker *ui.StatusTracker, qs *QuerySummary) ([]string, error) {
	if qp := j.checkpoint.Query(query); qp.Harvested {
		qs.Harvested = len(qp.References)
		qs.Resumed = true
		tracker.UpdateHarvest(qs.Harvested, 0, qs.Harvested)
		j.logger.WithFields(map[string]interface{}{
			"query":      query,
			"references": qs.Harvested,
		}).Info("Using references harvested by a previous run")
		return qp.References, nil
	}

	search := j.config.Search
	h := harvest.New(j.driver, search.SettleDelay,
		harvest.WithLogger(j.logger),
		harvest.WithBaseURL(search.BaseURL),
		harvest.WithIdleRounds(search.IdleRounds),
		harvest.WithProgress(func(p harvest.Progress) {
			tracker.UpdateHarvest(p.Found, p.Skipped, p.Target)
			tracker.PrintHarvestStatus()
			logger.LogHarvestProgress(j.logger, query, p.Found, p.Skipped, p.Target)
		}),
	)

	res, err := h.Harvest(ctx, search.MaxImages, harvest.ImageSearch(query))
	if res != nil {
		qs.Harvested = res.Found
		qs.Skipped = res.Skipped
	}
	switch {
	case err == nil:
	case errors.Is(err, harvest.ErrSourceExhausted):
		j.logger.WithFields(map[string]interface{}{
			"query": query,
			"found": res.Found,
		}).Warn("Search results exhausted before the quota was reached")
	default:
		return nil, fmt.Errorf("failed to harvest %q: %w", query, err)
	}

	if err := j.checkpointMgr.RecordHarvest(j.checkpoint, query, res.References); err != nil {
		j.logger.WithError(err).Warn("Failed to record harvest in checkpoint")
	}

	return res.References, nil
}

// save downloads, decodes and stores one reference
func (j *job) save(ctx context.Context, query string, index int, reference, name string) (*metadata.ImageMetadata, error) {
	data, err := j.fetcher.Fetch(ctx, reference)
	if err != nil {
		return nil, err
	}

	img, format, err := dataset.Decode(data)
	if err != nil {
		return nil, err
	}

	if err := j.store.SaveImage(img, name); err != nil {
		return nil, err
	}

	return metadata.New(query, index, reference, name, format, img.Bounds(), len(data)), nil
}
