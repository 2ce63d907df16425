// Package storage saves downloaded images to the output directory.
//
// The storage package handles:
//   - Creating and managing the image directory
//   - Encoding images as JPEG and writing them atomically
//   - Naming files <label><index>.jpg
//   - Detecting duplicates by name and by BLAKE2b content fingerprint
//
// Existing files are indexed when a Manager is created, so a resumed
// collection does not write the same picture twice.
//
// Usage:
//
//	manager, err := storage.NewManager("data/imgs", 90)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name := storage.FileName("Cubism Painting", 3) // Cubism_Painting3.jpg
//	if !manager.IsSaved(name) {
//	    if err := manager.SaveImage(img, name); errors.Is(err, storage.ErrDuplicateContent) {
//	        // same picture under another name
//	    }
//	}
package storage
