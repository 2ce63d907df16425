// Package logger provides the structured logging interface used across artscrape.
//
// It wraps zerolog with:
//   - levelled, coloured console output on stderr
//   - an optional log file rotated by lumberjack (max_size, max_backups, max_age, compress)
//   - child loggers via WithField, WithFields and WithError
//   - a global instance set up once by the CLI
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    log.Fatal(err)
//	}
//	logger.WithField("query", "Cubism Painting").Info("Harvest started")
//
// Tests can swap in NewTestLogger to assert on captured messages, or
// NewNopLogger to silence output.
package logger
