// Package fetcher composes the probe fast path and the headless browser into
// the crawl.Fetcher used by the worker pool.
package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/crawl"
	"github.com/mailsift/mailsift/internal/fetcher/probe"
)

// Pipeline tries the probe first and promotes to the headless browser when
// the detector flags a JS-rendered page. With no probe configured, every URL
// goes straight to the browser.
type Pipeline struct {
	probe           *probe.Fetcher
	detector        *probe.Detector
	headless        crawl.Fetcher
	maxContactPages int
	logger          *zap.Logger
}

// NewPipeline wires the fetch path. probeFetcher and detector may be nil to
// disable the fast path; headless is required.
func NewPipeline(
	probeFetcher *probe.Fetcher,
	detector *probe.Detector,
	headless crawl.Fetcher,
	maxContactPages int,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		probe:           probeFetcher,
		detector:        detector,
		headless:        headless,
		maxContactPages: maxContactPages,
		logger:          logger,
	}
}

// Fetch implements crawl.Fetcher.
func (p *Pipeline) Fetch(ctx context.Context, rawURL string) (crawl.Page, error) {
	if p.probe == nil {
		return p.headless.Fetch(ctx, rawURL)
	}

	probed, err := p.probe.Fetch(ctx, rawURL)
	if err != nil {
		// The browser gets its own try: some sites reject plain HTTP
		// clients yet serve a full browser.
		p.logger.Debug("probe failed, promoting to headless",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return p.headless.Fetch(ctx, rawURL)
	}
	if p.detector.NeedsJS(probed.HTML) {
		p.logger.Debug("render promotion", zap.String("url", rawURL))
		return p.headless.Fetch(ctx, rawURL)
	}

	page := crawl.Page{
		URL:        rawURL,
		FinalURL:   probed.FinalURL,
		Text:       probed.HTML + "\n" + crawl.VisibleText(probed.HTML),
		StatusCode: probed.StatusCode,
	}
	p.appendContactPages(ctx, &page, probed.HTML)
	return page, nil
}

// appendContactPages mirrors the headless fetcher's subpage enhancement on
// the fast path. Failures degrade silently.
func (p *Pipeline) appendContactPages(ctx context.Context, page *crawl.Page, pageHTML string) {
	links := crawl.ContactLinks(pageHTML, page.FinalURL, p.maxContactPages)
	for _, link := range links {
		sub, err := p.probe.Fetch(ctx, link)
		if err != nil {
			p.logger.Debug("contact subpage skipped",
				zap.String("url", link),
				zap.Error(err),
			)
			continue
		}
		page.Text += "\n" + sub.HTML + "\n" + crawl.VisibleText(sub.HTML)
	}
}
