package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"artscrape/pkg/logger"
)

// Version of the checkpoint file layout
const Version = 1

// QueryProgress is the state of one search query within a collection run
type QueryProgress struct {
	References []string          `json:"references"`
	Harvested  bool              `json:"harvested"`
	Saved      map[string]string `json:"saved"` // reference -> file name
	Failed     int               `json:"failed"`
}

// Checkpoint represents the state of a collection run
type Checkpoint struct {
	Name      string                    `json:"name"`
	OutputDir string                    `json:"output_dir"`
	Queries   map[string]*QueryProgress `json:"queries"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
	Version   int                       `json:"version"`
}

// Query returns the progress for query, creating it if needed
func (c *Checkpoint) Query(query string) *QueryProgress {
	if c.Queries == nil {
		c.Queries = make(map[string]*QueryProgress)
	}
	qp, ok := c.Queries[query]
	if !ok {
		qp = &QueryProgress{Saved: make(map[string]string)}
		c.Queries[query] = qp
	}
	if qp.Saved == nil {
		qp.Saved = make(map[string]string)
	}
	return qp
}

// IsSaved checks if reference has already been saved for query
func (c *Checkpoint) IsSaved(query, reference string) bool {
	qp, ok := c.Queries[query]
	if !ok {
		return false
	}
	_, saved := qp.Saved[reference]
	return saved
}

// TotalSaved returns the number of saved images across all queries
func (c *Checkpoint) TotalSaved() int {
	total := 0
	for _, qp := range c.Queries {
		total += len(qp.Saved)
	}
	return total
}

// Manager handles checkpoint operations
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for the run called name
func NewManager(name string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	checkpointPath := filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", sanitize(name)))

	return &Manager{
		checkpointPath: checkpointPath,
		logger:         logger.GetLogger(),
	}, nil
}

// SetLogger replaces the manager's logger
func (m *Manager) SetLogger(l logger.Logger) {
	m.logger = l
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create creates and saves a fresh checkpoint
func (m *Manager) Create(name, outputDir string) (*Checkpoint, error) {
	now := time.Now()
	checkpoint := &Checkpoint{
		Name:      name,
		OutputDir: outputDir,
		Queries:   make(map[string]*QueryProgress),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   Version,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"name": name,
		"path": m.checkpointPath,
	})

	return checkpoint, nil
}

// Load loads an existing checkpoint. It returns nil, nil when there is none.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version != Version {
		return nil, fmt.Errorf("unsupported checkpoint version %d", checkpoint.Version)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"name":        checkpoint.Name,
		"queries":     len(checkpoint.Queries),
		"total_saved": checkpoint.TotalSaved(),
		"updated_at":  checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"name":        checkpoint.Name,
		"total_saved": checkpoint.TotalSaved(),
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// RecordHarvest stores the harvested references of query and marks it done
func (m *Manager) RecordHarvest(checkpoint *Checkpoint, query string, references []string) error {
	qp := checkpoint.Query(query)
	qp.References = append([]string(nil), references...)
	qp.Harvested = true
	return m.Save(checkpoint)
}

// RecordSave records that reference of query was written to fileName
func (m *Manager) RecordSave(checkpoint *Checkpoint, query, reference, fileName string) error {
	checkpoint.Query(query).Saved[reference] = fileName
	return m.Save(checkpoint)
}

// RecordFailure counts a reference of query that could not be saved
func (m *Manager) RecordFailure(checkpoint *Checkpoint, query string) error {
	checkpoint.Query(query).Failed++
	return m.Save(checkpoint)
}

// Info returns a summary of the checkpoint on disk, or nil if there is none
func (m *Manager) Info() (map[string]interface{}, error) {
	checkpoint, err := m.Load()
	if err != nil {
		return nil, err
	}
	if checkpoint == nil {
		return nil, nil
	}

	harvested := 0
	for _, qp := range checkpoint.Queries {
		if qp.Harvested {
			harvested++
		}
	}

	return map[string]interface{}{
		"name":              checkpoint.Name,
		"output_dir":        checkpoint.OutputDir,
		"queries":           len(checkpoint.Queries),
		"queries_harvested": harvested,
		"total_saved":       checkpoint.TotalSaved(),
		"created_at":        checkpoint.CreatedAt,
		"updated_at":        checkpoint.UpdatedAt,
		"age":               time.Since(checkpoint.UpdatedAt),
	}, nil
}

// sanitize makes name safe to use as a file name
func sanitize(name string) string {
	name = strings.Trim(filepath.Clean(name), string(filepath.Separator)+".")
	if name == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "artscrape")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "artscrape")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "artscrape")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "artscrape")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
