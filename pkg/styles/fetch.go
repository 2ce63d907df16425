package styles

import (
	"bytes"
	"fmt"

	"artscrape/pkg/config"
	"artscrape/pkg/logger"

	"github.com/gocolly/colly"
)

// Fetcher downloads and parses the style catalog
type Fetcher struct {
	collector *colly.Collector
	logger    logger.Logger
}

// NewFetcher creates a Fetcher using the download user agent and timeout
func NewFetcher(cfg *config.DownloadConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{collector: c, logger: log}
}

// Fetch visits url and parses the styles it lists
func (f *Fetcher) Fetch(url string) ([]Style, error) {
	c := f.collector.Clone()

	var (
		styles   []Style
		parseErr error
	)

	c.OnRequest(func(r *colly.Request) {
		f.logger.WithField("url", r.URL.String()).Debug("Fetching style catalog")
	})

	c.OnResponse(func(r *colly.Response) {
		styles, parseErr = Parse(bytes.NewReader(r.Body))
		f.logger.WithFields(map[string]interface{}{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
			"styles": len(styles),
		}).Debug("Style catalog fetched")
	})

	c.OnError(func(r *colly.Response, err error) {
		f.logger.WithError(err).WithFields(map[string]interface{}{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		}).Warn("Style catalog request failed")
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	return styles, nil
}
