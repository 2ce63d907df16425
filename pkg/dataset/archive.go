package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ArchiveVersion is bumped whenever the archive layout changes
const ArchiveVersion = 1

// Sample is one labelled image. Pixels is nil when the image could not be
// fetched or decoded.
type Sample struct {
	Label     string
	Reference string
	Pixels    *PixelArray
}

// Archive is the serialised dataset
type Archive struct {
	Version   int
	CreatedAt time.Time
	Samples   []Sample
}

// LabelCount is the number of samples carrying one label
type LabelCount struct {
	Label   string
	Total   int
	Missing int
}

// Labels counts samples per label, in order of first appearance
func (a *Archive) Labels() []LabelCount {
	index := make(map[string]int)
	var counts []LabelCount
	for _, s := range a.Samples {
		i, ok := index[s.Label]
		if !ok {
			i = len(counts)
			index[s.Label] = i
			counts = append(counts, LabelCount{Label: s.Label})
		}
		counts[i].Total++
		if s.Pixels == nil {
			counts[i].Missing++
		}
	}
	return counts
}

// Missing returns the number of samples without pixels
func (a *Archive) Missing() int {
	n := 0
	for _, s := range a.Samples {
		if s.Pixels == nil {
			n++
		}
	}
	return n
}

// writeArchive gob-encodes archive into a gzip stream at path. The data goes
// to a temporary file in the same directory that is renamed over path.
func writeArchive(path string, archive *Archive) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive file: %w", err)
	}
	tempPath := file.Name()

	zw, err := gzip.NewWriterLevel(file, gzip.BestCompression)
	if err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if err := gob.NewEncoder(zw).Encode(archive); err != nil {
		zw.Close()
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush archive: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync archive file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace archive file: %w", err)
	}

	return nil
}

// Read loads an archive written by Writer.Write
func Read(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()

	var archive Archive
	if err := gob.NewDecoder(zr).Decode(&archive); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}

	if archive.Version != ArchiveVersion {
		return nil, fmt.Errorf("unsupported archive version %d", archive.Version)
	}

	return &archive, nil
}

// sortedLabels returns the distinct labels of counts, sorted
func sortedLabels(counts []LabelCount) []string {
	labels := make([]string, 0, len(counts))
	for _, c := range counts {
		labels = append(labels, c.Label)
	}
	sort.Strings(labels)
	return labels
}
