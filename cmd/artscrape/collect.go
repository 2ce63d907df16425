package main

import (
	"errors"
	"fmt"

	"artscrape/pkg/browser"
	"artscrape/pkg/collector"
	"artscrape/pkg/dataset"
	"artscrape/pkg/logger"
	"artscrape/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Collect command flags
	collectMax    int
	imageDir      string
	resumeCollect bool
	forceRestart  bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [queries...]",
	Short: "Harvest and download images for a list of queries",
	Long: `Harvest image URLs for every query and download the images into the
image directory as <query><n>.jpg, spaces replaced by underscores.

Without arguments the queries from the configuration are used. Progress is
checkpointed; an interrupted run can be continued with --resume.`,
	Example: `  # Collect the configured painting styles
  artscrape collect

  # Collect two styles, 50 images each
  artscrape collect "Cubism Painting" "Rococo Painting" --max-images 50

  # Continue an interrupted run
  artscrape collect --resume`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVarP(&collectMax, "max-images", "n", 0, "images per query (default from config)")
	collectCmd.Flags().StringVarP(&imageDir, "output", "o", "", "image directory (default from config)")
	collectCmd.Flags().BoolVar(&resumeCollect, "resume", false, "resume from last checkpoint")
	collectCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "force restart, ignoring existing checkpoint")
	addBrowserFlags(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if collectMax > 0 {
		flags["max-images"] = collectMax
	}
	if imageDir != "" {
		flags["image-dir"] = imageDir
	}
	if len(args) > 0 {
		flags["queries"] = args
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

	log := logger.GetLogger()
	ui.PrintInfo("Output directory", cfg.Output.ImageDirectory)
	ui.PrintInfo("Queries", fmt.Sprintf("%d x %d images", len(cfg.Search.Queries), cfg.Search.MaxImages))

	b, err := browser.Launch(&cfg.Browser, log)
	if err != nil {
		return fail("Failed to launch browser", err)
	}
	defer b.Close()

	ui.PrintHighlight("[COLLECTING IMAGES]")

	c := collector.New(b, dataset.NewFetcher(&cfg.Download, log), cfg,
		collector.WithLogger(log),
		collector.WithResume(resumeCollect),
		collector.WithForceRestart(forceRestart),
	)

	summary, err := c.Run(ctx, cfg.Search.Queries)
	if errors.Is(err, collector.ErrCheckpointExists) {
		ui.PrintWarning("Previous collection found for " + cfg.Output.ImageDirectory)
		ui.PrintInfo("Use", "--resume to continue where you left off")
		ui.PrintInfo("Use", "--force-restart to start fresh")
		return err
	}
	if err != nil {
		if summary != nil {
			ui.PrintWarning(fmt.Sprintf("Stopped after %d saved images; rerun with --resume to continue", summary.TotalSaved()))
		}
		return fail("Collection failed", err)
	}

	ui.PrintSuccess(fmt.Sprintf("[COLLECTION COMPLETED] %d images saved, %d failed", summary.TotalSaved(), summary.TotalFailed()))
	return nil
}
