package collector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"artscrape/pkg/checkpoint"
	"artscrape/pkg/config"
	"artscrape/pkg/dataset"
	"artscrape/pkg/harvest"
	"artscrape/pkg/logger"
	"artscrape/pkg/metadata"
	"artscrape/pkg/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ui.SetQuietMode(true)
	os.Exit(m.Run())
}

// pageDriver shows one page of single-image thumbnails per navigation
type pageDriver struct {
	pages     [][]string
	navErr    error
	navigated []string
	page      []string
	current   string
}

type pageThumb struct {
	driver *pageDriver
	ref    string
}

type pageCandidate string

func (d *pageDriver) Navigate(_ context.Context, target string) error {
	if d.navErr != nil {
		return d.navErr
	}
	if len(d.navigated) < len(d.pages) {
		d.page = d.pages[len(d.navigated)]
	} else {
		d.page = nil
	}
	d.navigated = append(d.navigated, target)
	return nil
}

func (d *pageDriver) ScrollToBottom(context.Context) error { return nil }

func (d *pageDriver) Thumbnails(context.Context) ([]harvest.Thumbnail, error) {
	thumbs := make([]harvest.Thumbnail, len(d.page))
	for i, ref := range d.page {
		thumbs[i] = pageThumb{driver: d, ref: ref}
	}
	return thumbs, nil
}

func (d *pageDriver) EnlargedCandidates(context.Context) ([]harvest.Candidate, error) {
	if d.current == "" {
		return nil, nil
	}
	return []harvest.Candidate{pageCandidate(d.current)}, nil
}

func (t pageThumb) Expand(context.Context) harvest.ExpandOutcome {
	t.driver.current = t.ref
	return harvest.Expanded()
}

func (c pageCandidate) Reference() (string, bool) { return string(c), true }

// imageServer serves a distinct PNG per /img/<n>, the same PNG for every
// /same/<x>, a non-image body at /garbage and 404 elsewhere
type imageServer struct {
	*httptest.Server
	requests atomic.Int32
}

func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/img/"):
			n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/img/"))
			if err != nil {
				http.NotFound(w, r)
				return
			}
			writePNG(w, uint8(n*40))
		case strings.HasPrefix(r.URL.Path, "/same/"):
			writePNG(w, 200)
		case r.URL.Path == "/garbage":
			w.Write([]byte("definitely not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func writePNG(w http.ResponseWriter, shade uint8) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 30), B: uint8(y * 30), A: 255})
		}
	}
	w.Header().Set("Content-Type", "image/png")
	png.Encode(w, img)
}

func (s *imageServer) refs(paths ...string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = s.URL + p
	}
	return out
}

func testConfig(t *testing.T, maxImages int) *config.Config {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Search.MaxImages = maxImages
	cfg.Search.SettleDelay = 0
	cfg.Search.IdleRounds = 2
	cfg.Output.ImageDirectory = filepath.Join(t.TempDir(), "imgs")
	cfg.Download.Timeout = 5 * time.Second
	return cfg
}

func newTestCollector(driver harvest.Driver, cfg *config.Config, opts ...Option) *Collector {
	fetcher := dataset.NewFetcher(&cfg.Download, logger.NewNopLogger())
	opts = append([]Option{WithLogger(logger.NewNopLogger())}, opts...)
	return New(driver, fetcher, cfg, opts...)
}

func checkpointExists(t *testing.T, cfg *config.Config) bool {
	t.Helper()
	mgr, err := checkpoint.NewManager(cfg.Output.ImageDirectory)
	require.NoError(t, err)
	return mgr.Exists()
}

func TestRunSavesImages(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 3)
	driver := &pageDriver{pages: [][]string{
		srv.refs("/img/1", "/img/2", "/img/3"),
		srv.refs("/img/4", "/img/5", "/img/6"),
	}}

	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting", "Baroque Painting"})
	require.NoError(t, err)

	require.Len(t, summary.Queries, 2)
	assert.Equal(t, 6, summary.TotalSaved())
	assert.Equal(t, 0, summary.TotalFailed())
	for _, qs := range summary.Queries {
		assert.Equal(t, 3, qs.Harvested)
		assert.Equal(t, 3, qs.Saved)
		assert.False(t, qs.Resumed)
	}

	assert.Equal(t, []string{
		cfg.Search.BaseURL + "q=Cubism Painting&tbm=isch",
		cfg.Search.BaseURL + "q=Baroque Painting&tbm=isch",
	}, driver.navigated)

	for _, name := range []string{
		"Cubism_Painting0.jpg", "Cubism_Painting1.jpg", "Cubism_Painting2.jpg",
		"Baroque_Painting0.jpg", "Baroque_Painting1.jpg", "Baroque_Painting2.jpg",
	} {
		assert.FileExists(t, filepath.Join(cfg.Output.ImageDirectory, name))
	}

	meta, err := metadata.Load(filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "Cubism Painting", meta.Query)
	assert.Equal(t, 1, meta.Index)
	assert.Equal(t, srv.URL+"/img/2", meta.Reference)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 8, meta.Width)

	assert.False(t, checkpointExists(t, cfg), "checkpoint must be removed after a complete run")
}

func TestRunDefaultsToConfiguredQueries(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 1)
	cfg.Search.Queries = []string{"Rococo Painting"}
	driver := &pageDriver{pages: [][]string{srv.refs("/img/1")}}

	summary, err := newTestCollector(driver, cfg).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, summary.Queries, 1)
	assert.Equal(t, "Rococo Painting", summary.Queries[0].Query)
	assert.FileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Rococo_Painting0.jpg"))
}

func TestRunNoQueries(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Search.Queries = nil

	_, err := newTestCollector(&pageDriver{}, cfg).Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunSkipsFailedReferences(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 3)
	driver := &pageDriver{pages: [][]string{srv.refs("/missing", "/garbage", "/img/2")}}

	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting"})
	require.NoError(t, err)

	qs := summary.Queries[0]
	assert.Equal(t, 3, qs.Harvested)
	assert.Equal(t, 1, qs.Saved)
	assert.Equal(t, 2, qs.Failed)

	// Names follow the reference position, so failures leave gaps
	assert.NoFileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting0.jpg"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting1.jpg"))
	assert.FileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting2.jpg"))
}

func TestRunSkipsDuplicateContent(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 2)
	driver := &pageDriver{pages: [][]string{srv.refs("/same/a", "/same/b")}}

	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting"})
	require.NoError(t, err)

	qs := summary.Queries[0]
	assert.Equal(t, 1, qs.Saved)
	assert.Equal(t, 1, qs.Duplicates)
	assert.Equal(t, 0, qs.Failed)
	assert.NoFileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting1.jpg"))
}

func TestRunExhaustedSourceKeepsPartialHarvest(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 5)
	driver := &pageDriver{pages: [][]string{srv.refs("/img/1", "/img/2")}}

	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting"})
	require.NoError(t, err)

	qs := summary.Queries[0]
	assert.Equal(t, 2, qs.Harvested)
	assert.Equal(t, 2, qs.Saved)
}

func TestRunHarvestError(t *testing.T) {
	cfg := testConfig(t, 2)
	driver := &pageDriver{navErr: errors.New("browser gone")}

	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting", "Baroque Painting"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to harvest "Cubism Painting"`)
	assert.Contains(t, err.Error(), "browser gone")
	require.NotNil(t, summary)
	assert.Len(t, summary.Queries, 1)
	assert.True(t, checkpointExists(t, cfg), "checkpoint must survive a failed run")
}

func TestRunCheckpointPolicy(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 1)

	mgr, err := checkpoint.NewManager(cfg.Output.ImageDirectory)
	require.NoError(t, err)
	mgr.SetLogger(logger.NewNopLogger())
	_, err = mgr.Create(cfg.Output.ImageDirectory, cfg.Output.ImageDirectory)
	require.NoError(t, err)

	t.Run("refuses without resume", func(t *testing.T) {
		_, err := newTestCollector(&pageDriver{}, cfg).Run(context.Background(), []string{"Cubism Painting"})
		assert.ErrorIs(t, err, ErrCheckpointExists)
	})

	t.Run("force restart", func(t *testing.T) {
		driver := &pageDriver{pages: [][]string{srv.refs("/img/1")}}
		summary, err := newTestCollector(driver, cfg, WithForceRestart(true)).Run(context.Background(), []string{"Cubism Painting"})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.TotalSaved())
		assert.False(t, mgr.Exists())
	})
}

func TestRunResume(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 3)
	refs := srv.refs("/img/1", "/img/2", "/img/3")

	mgr, err := checkpoint.NewManager(cfg.Output.ImageDirectory)
	require.NoError(t, err)
	mgr.SetLogger(logger.NewNopLogger())
	cp, err := mgr.Create(cfg.Output.ImageDirectory, cfg.Output.ImageDirectory)
	require.NoError(t, err)
	require.NoError(t, mgr.RecordHarvest(cp, "Cubism Painting", refs))
	require.NoError(t, mgr.RecordSave(cp, "Cubism Painting", refs[0], "Cubism_Painting0.jpg"))

	driver := &pageDriver{pages: [][]string{srv.refs("/img/4")}}
	summary, err := newTestCollector(driver, cfg, WithResume(true)).Run(context.Background(), []string{"Cubism Painting", "Baroque Painting"})
	require.NoError(t, err)

	require.Len(t, summary.Queries, 2)
	resumed := summary.Queries[0]
	assert.True(t, resumed.Resumed)
	assert.Equal(t, 3, resumed.Harvested)
	assert.Equal(t, 3, resumed.Saved)

	// Only the second query is harvested; the first reference is not fetched again
	assert.Equal(t, []string{cfg.Search.BaseURL + "q=Baroque Painting&tbm=isch"}, driver.navigated)
	assert.Equal(t, int32(3), srv.requests.Load())
	assert.NoFileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting0.jpg"))
	assert.FileExists(t, filepath.Join(cfg.Output.ImageDirectory, "Cubism_Painting1.jpg"))
	assert.False(t, mgr.Exists())
}

func writeExisting(t *testing.T, cfg *config.Config, name, reference, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Output.ImageDirectory, 0755))
	path := filepath.Join(cfg.Output.ImageDirectory, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	if reference != "" {
		meta := metadata.New("Cubism Painting", 0, reference, name, "png", image.Rect(0, 0, 8, 8), len(content))
		require.NoError(t, meta.Save(path))
	}
	return path
}

func TestRunSkipsExistingFiles(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 3)
	refs := srv.refs("/img/1", "/img/2", "/img/3")

	kept := writeExisting(t, cfg, "Cubism_Painting0.jpg", refs[0], "kept")
	stale := writeExisting(t, cfg, "Cubism_Painting1.jpg", srv.URL+"/img/9", "stale")
	bare := writeExisting(t, cfg, "Cubism_Painting2.jpg", "", "bare")

	driver := &pageDriver{pages: [][]string{refs}}
	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting"})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Queries[0].Saved)
	assert.Equal(t, int32(2), srv.requests.Load())

	data, err := os.ReadFile(kept)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(data))

	for i, path := range []string{stale, bare} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEqual(t, []string{"stale", "bare"}[i], string(data))

		meta, err := metadata.Load(path)
		require.NoError(t, err)
		assert.Equal(t, refs[i+1], meta.Reference)
	}
}

func TestRunRefetchesAfterEarlierRun(t *testing.T) {
	for _, force := range []bool{false, true} {
		t.Run(fmt.Sprintf("force=%v", force), func(t *testing.T) {
			srv := newImageServer(t)
			cfg := testConfig(t, 2)

			first := &pageDriver{pages: [][]string{srv.refs("/img/1", "/img/2")}}
			_, err := newTestCollector(first, cfg).Run(context.Background(), []string{"Cubism Painting"})
			require.NoError(t, err)
			require.Equal(t, int32(2), srv.requests.Load())

			second := &pageDriver{pages: [][]string{srv.refs("/img/3", "/img/4")}}
			summary, err := newTestCollector(second, cfg, WithForceRestart(force)).Run(context.Background(), []string{"Cubism Painting"})
			require.NoError(t, err)

			assert.Equal(t, 2, summary.Queries[0].Saved)
			assert.Equal(t, int32(4), srv.requests.Load())

			for i, ref := range srv.refs("/img/3", "/img/4") {
				meta, err := metadata.Load(filepath.Join(cfg.Output.ImageDirectory, fmt.Sprintf("Cubism_Painting%d.jpg", i)))
				require.NoError(t, err)
				assert.Equal(t, ref, meta.Reference)
			}
		})
	}
}

func TestRunRemovesStaleFileOnFailure(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 1)
	stale := writeExisting(t, cfg, "Cubism_Painting0.jpg", srv.URL+"/img/9", "stale")

	driver := &pageDriver{pages: [][]string{srv.refs("/missing")}}
	summary, err := newTestCollector(driver, cfg).Run(context.Background(), []string{"Cubism Painting"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Queries[0].Failed)
	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, stale+metadata.Suffix)
}

func TestRunLogsThroughGivenLogger(t *testing.T) {
	srv := newImageServer(t)
	cfg := testConfig(t, 2)
	tl := logger.NewTestLogger()

	driver := &pageDriver{pages: [][]string{srv.refs("/img/1", "/missing")}}
	_, err := newTestCollector(driver, cfg, WithLogger(tl)).Run(context.Background(), []string{"Cubism Painting"})
	require.NoError(t, err)

	assert.True(t, tl.HasMessage("Harvest progress"))
	assert.True(t, tl.HasMessage("Image fetch failed"))
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := &pageDriver{}
	summary, err := newTestCollector(driver, cfg).Run(ctx, []string{"Cubism Painting"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Queries)
	assert.Empty(t, driver.navigated)
	assert.True(t, checkpointExists(t, cfg))
}

func TestSummaryTotals(t *testing.T) {
	s := &Summary{Queries: []QuerySummary{
		{Query: "a", Saved: 2, Failed: 1},
		{Query: "b", Saved: 3, Failed: 0},
	}}
	assert.Equal(t, 5, s.TotalSaved())
	assert.Equal(t, 1, s.TotalFailed())
}
