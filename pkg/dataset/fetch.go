package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"artscrape/pkg/config"
	apperrors "artscrape/pkg/errors"
	"artscrape/pkg/logger"
)

// maxImageBytes bounds a single download
const maxImageBytes = 64 << 20

// Fetcher downloads image bytes, one reference at a time
type Fetcher struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewFetcher creates a Fetcher from the download settings
func NewFetcher(cfg *config.DownloadConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent": cfg.UserAgent,
			"Accept":     "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
		},
		logger: log,
	}
}

// Fetch performs a GET on url and returns the body. Transport failures and
// non-200 statuses come back as *errors.Error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.DebugWithFields("Image request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, apperrors.Wrap(apperrors.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.FromStatusCode(resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeNetwork, err, "failed to read body")
	}
	if len(data) > maxImageBytes {
		return nil, apperrors.New(apperrors.ErrorTypeClientError, fmt.Sprintf("body of %s exceeds %d bytes", url, maxImageBytes))
	}

	f.logger.DebugWithFields("Image fetched", map[string]interface{}{
		"url":      url,
		"bytes":    len(data),
		"duration": time.Since(start),
	})

	return data, nil
}
