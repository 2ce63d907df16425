package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for artscrape
type Config struct {
	// Image search and harvesting
	Search SearchConfig `yaml:"search" json:"search"`

	// Browser session used by the harvester
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Image download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Art-style catalog ranking
	Styles StylesConfig `yaml:"styles" json:"styles"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds image search configuration
type SearchConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Queries     []string      `yaml:"queries" json:"queries"`
	MaxImages   int           `yaml:"max_images" json:"max_images"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
	// IdleRounds stops a harvest after this many rounds without progress. 0 disables the bound.
	IdleRounds int `yaml:"idle_rounds" json:"idle_rounds"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Headless       bool   `yaml:"headless" json:"headless"`
	Bin            string `yaml:"bin" json:"bin"`
	ThumbnailClass string `yaml:"thumbnail_class" json:"thumbnail_class"`
	EnlargedClass  string `yaml:"enlarged_class" json:"enlarged_class"`
	ReferenceAttr  string `yaml:"reference_attr" json:"reference_attr"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
	JPEGQuality int           `yaml:"jpeg_quality" json:"jpeg_quality"`
}

// OutputConfig holds output location configuration
type OutputConfig struct {
	ImageDirectory string `yaml:"image_directory" json:"image_directory"`
	ArchivePath    string `yaml:"archive_path" json:"archive_path"`
}

// StylesConfig holds art-style catalog configuration
type StylesConfig struct {
	CatalogURL string `yaml:"catalog_url" json:"catalog_url"`
	Top        int    `yaml:"top" json:"top"`
	PlotPath   string `yaml:"plot_path" json:"plot_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultQueries are the eleven most common painting styles on the WikiArt catalog
var DefaultQueries = []string{
	"Impressionism Painting",
	"Romanticism Painting",
	"Expressionism Painting",
	"Post Impressionism Painting",
	"Surrealism Painting",
	"Baroque Painting",
	"Symbolism Painting",
	"Neoclassicism Painting",
	"Rococo Painting",
	"Cubism Painting",
	"Northern Renaissance Painting",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	queries := make([]string, len(DefaultQueries))
	copy(queries, DefaultQueries)

	return &Config{
		Search: SearchConfig{
			BaseURL:     "https://www.google.com/search?",
			Queries:     queries,
			MaxImages:   100,
			SettleDelay: time.Second,
			IdleRounds:  0,
		},
		Browser: BrowserConfig{
			Headless:       true,
			ThumbnailClass: "Q4LuWd",
			EnlargedClass:  "n3VNCb",
			ReferenceAttr:  "src",
		},
		Download: DownloadConfig{
			Timeout:     30 * time.Second,
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			JPEGQuality: 90,
		},
		Output: OutputConfig{
			ImageDirectory: "./data/imgs",
			ArchivePath:    "./data/raw_img_arrays.gz",
		},
		Styles: StylesConfig{
			CatalogURL: "https://www.wikiart.org/en/paintings-by-style",
			Top:        15,
			PlotPath:   "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if baseURL := os.Getenv("ARTSCRAPE_BASE_URL"); baseURL != "" {
		c.Search.BaseURL = baseURL
	}
	if queries := os.Getenv("ARTSCRAPE_QUERIES"); queries != "" {
		c.Search.Queries = splitList(queries)
	}
	if maxImages := os.Getenv("ARTSCRAPE_MAX_IMAGES"); maxImages != "" {
		val, err := strconv.Atoi(maxImages)
		if err != nil {
			errs = append(errs, fmt.Errorf("ARTSCRAPE_MAX_IMAGES: %w", err))
		} else if val > 0 {
			c.Search.MaxImages = val
		}
	}
	if delay := os.Getenv("ARTSCRAPE_SETTLE_DELAY"); delay != "" {
		val, err := time.ParseDuration(delay)
		if err != nil {
			errs = append(errs, fmt.Errorf("ARTSCRAPE_SETTLE_DELAY: %w", err))
		} else {
			c.Search.SettleDelay = val
		}
	}

	// Browser
	if headless := os.Getenv("ARTSCRAPE_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if bin := os.Getenv("ARTSCRAPE_BROWSER_BIN"); bin != "" {
		c.Browser.Bin = bin
	}

	// Output
	if dir := os.Getenv("ARTSCRAPE_IMAGE_DIR"); dir != "" {
		c.Output.ImageDirectory = dir
	}
	if archive := os.Getenv("ARTSCRAPE_ARCHIVE_PATH"); archive != "" {
		c.Output.ArchivePath = archive
	}

	// Logging level
	if logLevel := os.Getenv("ARTSCRAPE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".artscrape.yaml",
		".artscrape.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "artscrape", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "artscrape", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".artscrape.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Search
	if c.Search.BaseURL == "" {
		errs = append(errs, errors.New("search base URL is required"))
	}
	if c.Search.MaxImages <= 0 {
		errs = append(errs, errors.New("max images must be positive"))
	}
	if c.Search.SettleDelay < 0 {
		errs = append(errs, errors.New("settle delay cannot be negative"))
	}
	if c.Search.IdleRounds < 0 {
		errs = append(errs, errors.New("idle rounds cannot be negative"))
	}

	// Browser selectors
	if c.Browser.ThumbnailClass == "" {
		errs = append(errs, errors.New("thumbnail class is required"))
	}
	if c.Browser.EnlargedClass == "" {
		errs = append(errs, errors.New("enlarged image class is required"))
	}
	if c.Browser.ReferenceAttr == "" {
		errs = append(errs, errors.New("reference attribute is required"))
	}

	// Download
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.JPEGQuality < 1 || c.Download.JPEGQuality > 100 {
		errs = append(errs, errors.New("jpeg quality must be between 1 and 100"))
	}

	// Output
	if c.Output.ImageDirectory == "" {
		errs = append(errs, errors.New("image directory is required"))
	}
	if c.Output.ArchivePath == "" {
		errs = append(errs, errors.New("archive path is required"))
	}

	// Styles
	if c.Styles.CatalogURL == "" {
		errs = append(errs, errors.New("style catalog URL is required"))
	}
	if c.Styles.Top < 0 {
		errs = append(errs, errors.New("style top count cannot be negative"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if queries, ok := flags["queries"].([]string); ok && len(queries) > 0 {
		c.Search.Queries = queries
	}
	if maxImages, ok := flags["max-images"].(int); ok && maxImages > 0 {
		c.Search.MaxImages = maxImages
	}
	if delay, ok := flags["settle-delay"].(time.Duration); ok && delay >= 0 {
		c.Search.SettleDelay = delay
	}
	if idle, ok := flags["idle-rounds"].(int); ok && idle >= 0 {
		c.Search.IdleRounds = idle
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if dir, ok := flags["image-dir"].(string); ok && dir != "" {
		c.Output.ImageDirectory = dir
	}
	if archive, ok := flags["archive"].(string); ok && archive != "" {
		c.Output.ArchivePath = archive
	}
	if top, ok := flags["top"].(int); ok && top >= 0 {
		c.Styles.Top = top
	}
	if plot, ok := flags["plot"].(string); ok && plot != "" {
		c.Styles.PlotPath = plot
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".artscrape.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// splitList splits a comma separated list, dropping blank entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
