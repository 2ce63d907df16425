// Package browser implements the harvest driver on a Chromium page driven by go-rod.
package browser

import (
	"context"
	"fmt"
	"strings"

	"artscrape/pkg/config"
	"artscrape/pkg/harvest"
	"artscrape/pkg/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const scrollScript = `() => window.scrollTo(0, document.body.scrollHeight)`

var _ harvest.Driver = (*Browser)(nil)

// Browser is a Chromium session driven through rod. It owns a single page
// that every harvest step runs against.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	thumbnailSelector string
	enlargedSelector  string
	referenceAttr     string

	logger logger.Logger
}

// Launch starts Chromium and connects to it. The caller must Close the
// returned Browser.
func Launch(cfg *config.BrowserConfig, log logger.Logger) (*Browser, error) {
	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logger.LogComponentStart(log, "browser", map[string]interface{}{
		"headless": cfg.Headless,
		"bin":      cfg.Bin,
	})

	return &Browser{
		launcher:          l,
		browser:           b,
		thumbnailSelector: classSelector(cfg.ThumbnailClass),
		enlargedSelector:  classSelector(cfg.EnlargedClass),
		referenceAttr:     cfg.ReferenceAttr,
		logger:            log,
	}, nil
}

// Close tears down the page, the browser and the launched process
func (b *Browser) Close() error {
	var firstErr error
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close page: %w", err)
		}
		b.page = nil
	}
	if err := b.browser.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close browser: %w", err)
	}
	b.launcher.Kill()
	b.launcher.Cleanup()

	reason := "closed"
	if firstErr != nil {
		reason = firstErr.Error()
	}
	logger.LogComponentStop(b.logger, "browser", reason)
	return firstErr
}

// Navigate loads target, reusing the session page, and waits for the load event
func (b *Browser) Navigate(ctx context.Context, target string) error {
	if b.page == nil {
		page, err := b.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		b.page = page
	}

	page := b.page.Context(ctx)
	if err := page.Navigate(target); err != nil {
		return err
	}
	return page.WaitLoad()
}

// ScrollToBottom scrolls the window so more results are loaded
func (b *Browser) ScrollToBottom(ctx context.Context) error {
	page, err := b.current(ctx)
	if err != nil {
		return err
	}
	_, err = page.Eval(scrollScript)
	return err
}

// Thumbnails returns the result thumbnails currently in the page
func (b *Browser) Thumbnails(ctx context.Context) ([]harvest.Thumbnail, error) {
	page, err := b.current(ctx)
	if err != nil {
		return nil, err
	}

	els, err := page.Elements(b.thumbnailSelector)
	if err != nil {
		return nil, err
	}

	thumbs := make([]harvest.Thumbnail, 0, len(els))
	for _, el := range els {
		thumbs = append(thumbs, thumbnail{el: el})
	}
	return thumbs, nil
}

// EnlargedCandidates returns the enlarged previews currently rendered
func (b *Browser) EnlargedCandidates(ctx context.Context) ([]harvest.Candidate, error) {
	page, err := b.current(ctx)
	if err != nil {
		return nil, err
	}

	els, err := page.Elements(b.enlargedSelector)
	if err != nil {
		return nil, err
	}

	candidates := make([]harvest.Candidate, 0, len(els))
	for _, el := range els {
		candidates = append(candidates, candidate{el: el, attr: b.referenceAttr})
	}
	return candidates, nil
}

func (b *Browser) current(ctx context.Context) (*rod.Page, error) {
	if b.page == nil {
		return nil, fmt.Errorf("no page open, navigate first")
	}
	return b.page.Context(ctx), nil
}

type thumbnail struct {
	el *rod.Element
}

// Expand clicks the thumbnail. Any failure, including an element that went
// stale or is covered, is reported as a skip.
func (t thumbnail) Expand(ctx context.Context) harvest.ExpandOutcome {
	if err := t.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return harvest.Skip(err)
	}
	return harvest.Expanded()
}

type candidate struct {
	el   *rod.Element
	attr string
}

func (c candidate) Reference() (string, bool) {
	v, err := c.el.Attribute(c.attr)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

// classSelector turns a class attribute value such as "a b" into ".a.b"
func classSelector(class string) string {
	fields := strings.Fields(class)
	if len(fields) == 0 {
		return ""
	}
	for i, f := range fields {
		fields[i] = "." + strings.TrimPrefix(f, ".")
	}
	return strings.Join(fields, "")
}
