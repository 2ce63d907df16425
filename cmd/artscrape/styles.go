package main

import (
	"fmt"

	"artscrape/pkg/logger"
	"artscrape/pkg/styles"
	"artscrape/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Styles command flags
	stylesTop  int
	stylesPlot string
	stylesURL  string
)

// stylesCmd represents the styles command
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Rank painting styles by the number of catalogued works",
	Long: `Fetch the style catalog, rank the styles by the number of paintings listed
for each and print the most common ones. The top styles make good collection
queries.

With --plot the ranking is also rendered as a bar chart PNG.`,
	Example: `  # Show the 15 most common styles
  artscrape styles

  # Show the top 11 and save a chart
  artscrape styles --top 11 --plot ./data/styles.png`,
	Args: cobra.NoArgs,
	RunE: runStyles,
}

func init() {
	rootCmd.AddCommand(stylesCmd)

	stylesCmd.Flags().IntVar(&stylesTop, "top", -1, "number of styles to show, 0 for all (default from config)")
	stylesCmd.Flags().StringVar(&stylesPlot, "plot", "", "write a bar chart of the ranking to this PNG file")
	stylesCmd.Flags().StringVar(&stylesURL, "url", "", "style catalog URL (default from config)")
}

func runStyles(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if stylesTop >= 0 {
		flags["top"] = stylesTop
	}
	if stylesPlot != "" {
		flags["plot"] = stylesPlot
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if stylesURL != "" {
		cfg.Styles.CatalogURL = stylesURL
	}

	ui.PrintInfo("Catalog", cfg.Styles.CatalogURL)

	fetcher := styles.NewFetcher(&cfg.Download, logger.GetLogger())
	all, err := fetcher.Fetch(cfg.Styles.CatalogURL)
	if err != nil {
		return fail("Failed to fetch style catalog", err)
	}

	top := styles.Top(styles.Rank(all), cfg.Styles.Top)

	out := cmd.OutOrStdout()
	for i, s := range top {
		fmt.Fprintf(out, "%3d. %-36s %8d\n", i+1, s.Name, s.Count)
	}

	if cfg.Styles.PlotPath != "" {
		if err := styles.PlotBar(top, cfg.Styles.PlotPath); err != nil {
			return fail("Failed to plot styles", err)
		}
		ui.PrintSuccess("Chart saved to " + cfg.Styles.PlotPath)
	}

	logger.WithFields(map[string]interface{}{
		"styles": len(all),
		"shown":  len(top),
	}).Info("Style ranking completed")

	return nil
}
