package main

import (
	"fmt"
	"os"
	"path/filepath"

	"artscrape/pkg/config"
	"artscrape/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage artscrape configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (ARTSCRAPE_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.artscrape.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges
  - Path accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# artscrape configuration file
#
# This file contains all available configuration options.
# Environment variables prefixed with ARTSCRAPE_ override it,
# for example ARTSCRAPE_MAX_IMAGES or ARTSCRAPE_IMAGE_DIR.

# Image search
search:
  # Search endpoint the query parameters are appended to
  base_url: "https://www.google.com/search?"

  # Queries used by 'artscrape collect' when none are given
  queries:
    - "Impressionism Painting"
    - "Baroque Painting"
    - "Cubism Painting"

  # Distinct images to collect per query
  max_images: 100

  # Wait after every scroll and every thumbnail click
  settle_delay: 1s

  # Give up on a query after this many rounds without new images
  # 0 keeps scrolling until interrupted
  idle_rounds: 10

# Browser automation
browser:
  headless: true

  # Chromium binary; leave empty to download a matching build
  bin: ""

  # CSS classes of the result thumbnails and the enlarged preview image
  thumbnail_class: "Q4LuWd"
  enlarged_class: "n3VNCb"

  # Attribute of the enlarged image holding its URL
  reference_attr: "src"

# Image downloads
download:
  timeout: 30s
  user_agent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

  # JPEG quality of stored images
  # Range: 1-100
  jpeg_quality: 90

# Output locations
output:
  image_directory: "./data/imgs"
  archive_path: "./data/raw_img_arrays.gz"

# Style ranking
styles:
  catalog_url: "https://www.wikiart.org/en/paintings-by-style"

  # Styles to show, 0 for all
  top: 15

  # Bar chart PNG; leave empty to skip the chart
  plot_path: ""

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""

  # Rotation settings for the log file
  max_size: 100
  max_backups: 3
  max_age: 7
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".artscrape.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Fprintln(cmd.OutOrStdout(), "\nTo overwrite, first remove the existing file:")
		fmt.Fprintf(cmd.OutOrStdout(), "  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			return err
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit the queries and output locations")
	fmt.Fprintln(out, "2. Run 'artscrape config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start collecting with 'artscrape collect'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return err
	}

	out := cmd.OutOrStdout()
	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (ARTSCRAPE_*)")
	if configFile != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		possiblePaths := []string{
			".artscrape.yaml",
			".artscrape.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "artscrape", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".artscrape.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			return fmt.Errorf("no configuration file found")
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	warnings := []string{}
	problems := []string{}

	if len(cfg.Search.Queries) == 0 {
		warnings = append(warnings, "no search queries configured; 'collect' will need them as arguments")
	}
	if cfg.Search.IdleRounds == 0 {
		warnings = append(warnings, "idle_rounds is 0; a query with too few results is harvested until interrupted")
	}

	if err := os.MkdirAll(cfg.Output.ImageDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create image directory: %v", err))
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Output.ArchivePath), 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create archive directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	out := cmd.OutOrStdout()
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
		fmt.Fprintln(out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Queries: %d x %d images\n", len(cfg.Search.Queries), cfg.Search.MaxImages)
	fmt.Fprintf(out, "  Settle delay: %s\n", cfg.Search.SettleDelay)
	fmt.Fprintf(out, "  Image directory: %s\n", cfg.Output.ImageDirectory)
	fmt.Fprintf(out, "  Archive: %s\n", cfg.Output.ArchivePath)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
