// Package config loads artscrape configuration from layered sources.
//
// Precedence, highest first:
//   - command line flags (passed as a map by the CLI)
//   - environment variables prefixed with ARTSCRAPE_
//   - .env files (./.env, ~/.artscrape.env)
//   - a YAML config file (./.artscrape.yaml, ~/.config/artscrape/config.yaml)
//   - DefaultConfig
//
// Usage:
//
//	flags := map[string]interface{}{
//	    "max-images": 25,
//	    "settle-delay": 2 * time.Second,
//	}
//	cfg, err := config.Load("", flags)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
