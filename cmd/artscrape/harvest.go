package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"artscrape/pkg/browser"
	"artscrape/pkg/config"
	"artscrape/pkg/dataset"
	"artscrape/pkg/harvest"
	"artscrape/pkg/logger"
	"artscrape/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Harvest command flags
	harvestMax     int
	harvestArchive string
	headless       bool
	settleDelay    string
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest <query>",
	Short: "Collect image URLs for one search query",
	Long: `Search for <query> in image search and print the URLs of up to
--max-images distinct full-size images, one per line.

With --archive the images are also downloaded, converted to pixel arrays and
written to a compressed dataset archive labelled with the query.`,
	Example: `  # Print 20 image URLs
  artscrape harvest "Cubism Painting" --max-images 20

  # Build an archive straight from the harvested URLs
  artscrape harvest "Baroque Painting" --archive ./data/baroque.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().IntVarP(&harvestMax, "max-images", "n", 0, "number of distinct images to collect (default from config)")
	harvestCmd.Flags().StringVar(&harvestArchive, "archive", "", "also write the harvested images to this dataset archive")
	addBrowserFlags(harvestCmd)
}

// addBrowserFlags registers the flags shared by commands that drive the browser
func addBrowserFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	cmd.Flags().StringVar(&settleDelay, "settle-delay", "", "wait after every scroll and click, e.g. 1s (default from config)")
}

// browserFlags collects the browser flags that were set on cmd
func browserFlags(cmd *cobra.Command, flags map[string]interface{}) error {
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if settleDelay != "" {
		d, err := parseDelay(settleDelay)
		if err != nil {
			return err
		}
		flags["settle-delay"] = d
	}
	return nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if harvestMax > 0 {
		flags["max-images"] = harvestMax
	}
	if err := browserFlags(cmd, flags); err != nil {
		return err
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	ui.PrintInfo("Query", query)
	log := logger.GetLogger()

	b, err := browser.Launch(&cfg.Browser, log)
	if err != nil {
		return fail("Failed to launch browser", err)
	}
	defer b.Close()

	tracker := ui.NewStatusTracker(query, cfg.Search.MaxImages)
	res, err := harvest.Harvest(ctx, b, cfg.Search.SettleDelay, cfg.Search.MaxImages, harvest.ImageSearch(query),
		harvest.WithLogger(log),
		harvest.WithBaseURL(cfg.Search.BaseURL),
		harvest.WithIdleRounds(cfg.Search.IdleRounds),
		harvest.WithProgress(func(p harvest.Progress) {
			tracker.UpdateHarvest(p.Found, p.Skipped, p.Target)
			tracker.PrintHarvestStatus()
		}),
	)
	if err != nil && !errors.Is(err, harvest.ErrSourceExhausted) {
		if res != nil && len(res.References) > 0 {
			printReferences(cmd, res.References)
		}
		return fail("Harvest failed", err)
	}
	if err != nil {
		ui.PrintWarning("Search results exhausted before the quota was reached")
	}
	tracker.PrintSummary()

	printReferences(cmd, res.References)

	if harvestArchive == "" {
		return nil
	}
	return writeHarvestArchive(ctx, cfg, query, res.References, harvestArchive)
}

func printReferences(cmd *cobra.Command, refs []string) {
	out := cmd.OutOrStdout()
	for _, ref := range refs {
		fmt.Fprintln(out, ref)
	}
}

func writeHarvestArchive(ctx context.Context, cfg *config.Config, query string, refs []string, path string) error {
	log := logger.GetLogger()

	w := dataset.NewWriter(dataset.NewFetcher(&cfg.Download, log), log)
	samples, err := w.Ingest(ctx, dataset.Labeled(query, refs))
	if err != nil {
		return fail("Download interrupted", err)
	}

	archive, err := w.Write(path, samples)
	if err != nil {
		return fail("Failed to write dataset", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Dataset saved to %s (%d samples, %d missing)", path, len(archive.Samples), archive.Missing()))
	return nil
}

// parseDelay accepts a duration ("1500ms") or a plain number of seconds
func parseDelay(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid settle delay %q: %w", s, err)
	}
	return d, nil
}
