// Package metadata records the provenance of stored images in JSON sidecar
// files next to them.
package metadata

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Suffix is appended to an image path to name its sidecar
const Suffix = ".json"

// ImageMetadata describes where a stored image came from
type ImageMetadata struct {
	Query     string `json:"query"`
	Index     int    `json:"index"`
	Reference string `json:"reference"`
	FileName  string `json:"file_name"`

	// Source encoding and dimensions before the image was stored as JPEG
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SourceBytes int    `json:"source_bytes"`

	DownloadedAt time.Time `json:"downloaded_at"`
}

// New describes the image stored as fileName for the index-th reference of query
func New(query string, index int, reference, fileName, format string, bounds image.Rectangle, sourceBytes int) *ImageMetadata {
	return &ImageMetadata{
		Query:        query,
		Index:        index,
		Reference:    reference,
		FileName:     fileName,
		Format:       format,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		SourceBytes:  sourceBytes,
		DownloadedAt: time.Now(),
	}
}

// IsSidecar reports whether name is a metadata file
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

// Save writes the metadata next to imagePath
func (m *ImageMetadata) Save(imagePath string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(imagePath+Suffix, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the metadata of imagePath
func Load(imagePath string) (*ImageMetadata, error) {
	data, err := os.ReadFile(imagePath + Suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta ImageMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// Exists checks if imagePath has a metadata file
func Exists(imagePath string) bool {
	_, err := os.Stat(imagePath + Suffix)
	return err == nil
}

// CleanOrphaned removes metadata files in directory whose image is gone and
// returns how many were removed
func CleanOrphaned(directory string) (int, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsSidecar(entry.Name()) {
			continue
		}

		path := filepath.Join(directory, entry.Name())
		imagePath := strings.TrimSuffix(path, Suffix)
		if _, err := os.Stat(imagePath); os.IsNotExist(err) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
			}
			removed++
		}
	}

	return removed, nil
}
