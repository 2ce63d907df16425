package main

import (
	"fmt"

	"artscrape/pkg/dataset"
	"artscrape/pkg/logger"
	"artscrape/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Dataset command flags
	datasetInput  string
	datasetOutput string
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Pack an image directory into a labelled dataset archive",
	Long: `Read every image in the input directory, convert it to a pixel array and
write the labelled collection to a gzip-compressed archive.

The label of an image is the part of its file name before the first digit:

  Cubism_Painting12.jpg -> Cubism_Painting`,
	Example: `  # Pack the configured image directory
  artscrape dataset

  # Pack a custom directory into a custom archive
  artscrape dataset --input ./imgs --output ./data/paintings.gz`,
	Args: cobra.NoArgs,
	RunE: runDataset,
}

// inspectCmd represents the dataset inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Show the label counts of a dataset archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(inspectCmd)

	datasetCmd.Flags().StringVarP(&datasetInput, "input", "i", "", "image directory (default from config)")
	datasetCmd.Flags().StringVarP(&datasetOutput, "output", "o", "", "archive path (default from config)")
}

func runDataset(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if datasetInput != "" {
		flags["image-dir"] = datasetInput
	}
	if datasetOutput != "" {
		flags["archive"] = datasetOutput
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	ui.PrintInfo("Input directory", cfg.Output.ImageDirectory)

	samples, err := dataset.FromDirectory(cfg.Output.ImageDirectory, log)
	if err != nil {
		return fail("Failed to read image directory", err)
	}

	w := dataset.NewWriter(nil, log)
	archive, err := w.Write(cfg.Output.ArchivePath, samples)
	if err != nil {
		return fail("Failed to write dataset", err)
	}

	printLabels(cmd, archive)
	ui.PrintSuccess(fmt.Sprintf("Dataset saved to %s", cfg.Output.ArchivePath))
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}

	archive, err := dataset.Read(args[0])
	if err != nil {
		return fail("Failed to read dataset", err)
	}

	ui.PrintInfo("Created", archive.CreatedAt.Format("2006-01-02 15:04:05"))
	printLabels(cmd, archive)
	return nil
}

func printLabels(cmd *cobra.Command, archive *dataset.Archive) {
	out := cmd.OutOrStdout()
	for _, lc := range archive.Labels() {
		fmt.Fprintf(out, "%-32s %6d", lc.Label, lc.Total)
		if lc.Missing > 0 {
			fmt.Fprintf(out, "  (%d missing)", lc.Missing)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%-32s %6d\n", "total", len(archive.Samples))
}
