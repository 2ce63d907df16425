package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points HOME and the working directory at a fresh temp dir so that
// no developer config or .env file leaks into a test
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })

	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://www.google.com/search?", cfg.Search.BaseURL)
	assert.Equal(t, DefaultQueries, cfg.Search.Queries)
	assert.Equal(t, 100, cfg.Search.MaxImages)
	assert.Equal(t, time.Second, cfg.Search.SettleDelay)
	assert.Zero(t, cfg.Search.IdleRounds)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "Q4LuWd", cfg.Browser.ThumbnailClass)
	assert.Equal(t, "n3VNCb", cfg.Browser.EnlargedClass)
	assert.Equal(t, "src", cfg.Browser.ReferenceAttr)

	assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
	assert.NotEmpty(t, cfg.Download.UserAgent)
	assert.Equal(t, 90, cfg.Download.JPEGQuality)

	assert.Equal(t, "https://www.wikiart.org/en/paintings-by-style", cfg.Styles.CatalogURL)
	assert.Equal(t, 15, cfg.Styles.Top)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultQueriesAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.Queries[0] = "changed"

	assert.Equal(t, "Impressionism Painting", DefaultQueries[0])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARTSCRAPE_QUERIES", "Cubism Painting, Baroque Painting,,")
	t.Setenv("ARTSCRAPE_MAX_IMAGES", "12")
	t.Setenv("ARTSCRAPE_SETTLE_DELAY", "250ms")
	t.Setenv("ARTSCRAPE_HEADLESS", "false")
	t.Setenv("ARTSCRAPE_BROWSER_BIN", "/usr/bin/chromium")
	t.Setenv("ARTSCRAPE_IMAGE_DIR", "/tmp/imgs")
	t.Setenv("ARTSCRAPE_ARCHIVE_PATH", "/tmp/out.gz")
	t.Setenv("ARTSCRAPE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, []string{"Cubism Painting", "Baroque Painting"}, cfg.Search.Queries)
	assert.Equal(t, 12, cfg.Search.MaxImages)
	assert.Equal(t, 250*time.Millisecond, cfg.Search.SettleDelay)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.Bin)
	assert.Equal(t, "/tmp/imgs", cfg.Output.ImageDirectory)
	assert.Equal(t, "/tmp/out.gz", cfg.Output.ArchivePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("ARTSCRAPE_MAX_IMAGES", "lots")
	t.Setenv("ARTSCRAPE_SETTLE_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTSCRAPE_MAX_IMAGES")
	assert.Contains(t, err.Error(), "ARTSCRAPE_SETTLE_DELAY")

	// Defaults survive a bad value
	assert.Equal(t, 100, cfg.Search.MaxImages)
	assert.Equal(t, time.Second, cfg.Search.SettleDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero max images",
			mutate:  func(c *Config) { c.Search.MaxImages = 0 },
			wantErr: "max images must be positive",
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.Search.SettleDelay = -time.Second },
			wantErr: "settle delay cannot be negative",
		},
		{
			name:    "missing thumbnail class",
			mutate:  func(c *Config) { c.Browser.ThumbnailClass = "" },
			wantErr: "thumbnail class is required",
		},
		{
			name:    "jpeg quality out of range",
			mutate:  func(c *Config) { c.Download.JPEGQuality = 101 },
			wantErr: "jpeg quality must be between 1 and 100",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.BaseURL = ""
	cfg.Output.ArchivePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search base URL is required")
	assert.Contains(t, err.Error(), "archive path is required")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"queries":      []string{"Rococo Painting"},
		"max-images":   7,
		"settle-delay": 3 * time.Second,
		"idle-rounds":  4,
		"headless":     false,
		"image-dir":    "/flag/imgs",
		"archive":      "/flag/out.gz",
		"top":          5,
		"plot":         "styles.png",
		"log-level":    "error",
	})

	assert.Equal(t, []string{"Rococo Painting"}, cfg.Search.Queries)
	assert.Equal(t, 7, cfg.Search.MaxImages)
	assert.Equal(t, 3*time.Second, cfg.Search.SettleDelay)
	assert.Equal(t, 4, cfg.Search.IdleRounds)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/flag/imgs", cfg.Output.ImageDirectory)
	assert.Equal(t, "/flag/out.gz", cfg.Output.ArchivePath)
	assert.Equal(t, 5, cfg.Styles.Top)
	assert.Equal(t, "styles.png", cfg.Styles.PlotPath)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Search.Queries = []string{"Symbolism Painting"}
	cfg.Search.MaxImages = 42
	cfg.Search.SettleDelay = 1500 * time.Millisecond
	require.NoError(t, cfg.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, []string{"Symbolism Painting"}, loaded.Search.Queries)
	assert.Equal(t, 42, loaded.Search.MaxImages)
	assert.Equal(t, 1500*time.Millisecond, loaded.Search.SettleDelay)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search: [unterminated"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("no default file is not an error", func(t *testing.T) {
		isolate(t)
		cfg := DefaultConfig()
		assert.NoError(t, cfg.LoadFromFile(""))
	})
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		dir := isolate(t)

		configPath := filepath.Join(dir, "config.yaml")
		content := `
search:
  max_images: 20
  settle_delay: 2s
output:
  image_directory: /file/imgs
  archive_path: /file/out.gz
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		t.Setenv("ARTSCRAPE_IMAGE_DIR", "/env/imgs")
		t.Setenv("ARTSCRAPE_MAX_IMAGES", "30")

		cfg, err := Load(configPath, map[string]interface{}{
			"max-images": 40,
		})
		require.NoError(t, err)

		assert.Equal(t, 40, cfg.Search.MaxImages)               // flag
		assert.Equal(t, "/env/imgs", cfg.Output.ImageDirectory) // env
		assert.Equal(t, "/file/out.gz", cfg.Output.ArchivePath) // file
		assert.Equal(t, 2*time.Second, cfg.Search.SettleDelay)  // file
		assert.Equal(t, "Q4LuWd", cfg.Browser.ThumbnailClass)   // default
	})

	t.Run("validation failure", func(t *testing.T) {
		dir := isolate(t)

		configPath := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: chatty\n"), 0644))

		cfg, err := Load(configPath, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		isolate(t)
		t.Setenv("ARTSCRAPE_ARCHIVE_PATH", "")
		require.NoError(t, os.Unsetenv("ARTSCRAPE_ARCHIVE_PATH"))

		require.NoError(t, os.WriteFile(".env", []byte("ARTSCRAPE_ARCHIVE_PATH=/dotenv/out.gz\n"), 0644))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "/dotenv/out.gz", cfg.Output.ArchivePath)
	})
}

func TestDurationParsing(t *testing.T) {
	content := `
search:
  settle_delay: 750ms
download:
  timeout: 1m30s
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(content), &cfg))

	assert.Equal(t, 750*time.Millisecond, cfg.Search.SettleDelay)
	assert.Equal(t, 90*time.Second, cfg.Download.Timeout)
}
