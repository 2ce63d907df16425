// Package checkpoint saves and resumes collection progress.
//
// A collection run harvests references for several queries and then saves
// each image. If the run is interrupted, the checkpoint remembers per query:
//   - the harvested references, so the browser is not driven again
//   - which references were already saved, and under which file name
//   - how many references failed
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: ~/.local/share/artscrape/checkpoints/ (or $XDG_DATA_HOME)
//   - macOS: ~/Library/Application Support/artscrape/checkpoints/
//   - Windows: %APPDATA%/artscrape/checkpoints/
//
// Files are written atomically and carry a version number.
package checkpoint
