package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"artscrape/pkg/logger"
	"artscrape/pkg/metadata"
)

// LabelFromFileName returns the part of name before its first digit, so
// "Cubism_Painting12.jpg" is labelled "Cubism_Painting". A name without
// digits is labelled by its base name without extension.
func LabelFromFileName(name string) string {
	base := filepath.Base(name)
	if i := strings.IndexFunc(base, unicode.IsDigit); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FromDirectory builds samples from the image files directly in dir, in
// lexical order. Metadata sidecars are ignored; other files that cannot be
// read or decoded are logged and left out.
func FromDirectory(dir string, log logger.Logger) ([]Sample, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var samples []Sample
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || metadata.IsSidecar(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("Skipping unreadable file")
			continue
		}

		img, _, err := Decode(data)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("Skipping file that is not an image")
			continue
		}

		samples = append(samples, Sample{
			Label:     LabelFromFileName(entry.Name()),
			Reference: path,
			Pixels:    ToPixelArray(img),
		})
	}

	log.WithFields(map[string]interface{}{
		"dir":     dir,
		"samples": len(samples),
	}).Info("Loaded images from directory")

	return samples, nil
}
