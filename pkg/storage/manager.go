package storage

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// ErrDuplicateContent is returned when an image encodes to the same bytes as
// one already saved
var ErrDuplicateContent = errors.New("image content already saved")

// Manager handles image storage and duplicate detection
type Manager struct {
	outputDir   string
	quality     int
	saved       map[string]bool
	fingerprint map[string]string // content hash -> file name
	contents    map[string]string // file name -> content hash
	mu          sync.RWMutex
}

// NewManager creates a new storage manager writing JPEGs at the given quality
func NewManager(outputDir string, quality int) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	manager := &Manager{
		outputDir:   outputDir,
		quality:     quality,
		saved:       make(map[string]bool),
		fingerprint: make(map[string]string),
		contents:    make(map[string]string),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles indexes the JPEGs already in the output directory
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.outputDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		sum := fingerprint(data)
		m.saved[entry.Name()] = true
		m.fingerprint[sum] = entry.Name()
		m.contents[entry.Name()] = sum
	}

	return nil
}

// FileName returns the file name for the index-th image of label, with spaces
// in the label replaced by underscores
func FileName(label string, index int) string {
	return fmt.Sprintf("%s%d.jpg", strings.ReplaceAll(label, " ", "_"), index)
}

// IsSaved checks if a file with the given name is already stored
func (m *Manager) IsSaved(name string) bool {
	m.mu.RLock()
	if m.saved[name] {
		m.mu.RUnlock()
		return true
	}
	m.mu.RUnlock()

	if _, err := os.Stat(filepath.Join(m.outputDir, name)); err == nil {
		m.mu.Lock()
		m.saved[name] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// SaveImage encodes img as JPEG and writes it under name, replacing any file
// of that name. Returns ErrDuplicateContent, wrapped with the existing file
// name, when the encoded bytes match another saved image.
func (m *Manager) SaveImage(img image.Image, name string) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: m.quality}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	sum := fingerprint(buf.Bytes())

	m.mu.RLock()
	existing, dup := m.fingerprint[sum]
	m.mu.RUnlock()
	if dup && existing != name {
		return fmt.Errorf("%w: %s matches %s", ErrDuplicateContent, name, existing)
	}

	filename := filepath.Join(m.outputDir, name)
	if err := writeAtomic(filename, buf.Bytes()); err != nil {
		return err
	}

	m.mu.Lock()
	m.forget(name)
	m.saved[name] = true
	m.fingerprint[sum] = name
	m.contents[name] = sum
	m.mu.Unlock()

	return nil
}

// Remove deletes the stored file name. A missing file is not an error.
func (m *Manager) Remove(name string) error {
	if err := os.Remove(filepath.Join(m.outputDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}

	m.mu.Lock()
	m.forget(name)
	delete(m.saved, name)
	m.mu.Unlock()

	return nil
}

// forget drops the content hash indexed for name. Callers hold mu.
func (m *Manager) forget(name string) {
	sum, ok := m.contents[name]
	if !ok {
		return
	}
	if m.fingerprint[sum] == name {
		delete(m.fingerprint, sum)
	}
	delete(m.contents, name)
}

// writeAtomic writes data to a temporary file and renames it into place
func writeAtomic(filename string, data []byte) error {
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of stored images
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

func fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
