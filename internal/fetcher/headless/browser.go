// Package headless fetches rendered page content using Chrome via chromedp.
package headless

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mailsift/mailsift/internal/crawl"
)

// Config controls browser construction and navigation behavior.
type Config struct {
	// Headless disables the visible viewport. A job started with the
	// show-browser display mode runs with Headless false; extraction
	// semantics are identical either way.
	Headless        bool
	UserAgent       string
	NavTimeout      time.Duration
	MaxRetries      int
	Backoff         time.Duration
	MaxContactPages int
	DomainQPS       float64
}

// Browser implements crawl.Fetcher on a shared Chrome instance. Each Fetch
// runs in its own tab; the instance itself lives for one job.
type Browser struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	cfg             Config
	retry           crawl.RetryPolicy
	domainLimiters  sync.Map
}

// New launches Chrome with the configured flags and warms it up.
func New(cfg Config, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 90 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Browser{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		cfg:             cfg,
		retry:           crawl.NewRetryPolicy(cfg.MaxRetries, cfg.Backoff),
	}, nil
}

// Close tears down the browser and allocator contexts.
func (b *Browser) Close() error {
	if b == nil {
		return nil
	}
	b.browserCancel()
	b.allocatorCancel()
	return nil
}

// Fetch navigates to url, appends text from likely contact subpages, and
// returns the combined content. Navigation failures are classified and
// retried per the configured budget before surfacing.
func (b *Browser) Fetch(ctx context.Context, rawURL string) (crawl.Page, error) {
	if err := b.waitDomainBudget(ctx, rawURL); err != nil {
		return crawl.Page{}, fmt.Errorf("fetch rate limit: %w", err)
	}

	var loaded loadedPage
	err := b.retry.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			b.logger.Debug("retrying navigation",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
			)
		}
		result, navErr := b.loadPage(ctx, rawURL, b.cfg.NavTimeout)
		if navErr != nil {
			return navErr
		}
		loaded = result
		return nil
	})
	if err != nil {
		if fe, ok := err.(*crawl.FetchError); ok {
			return crawl.Page{}, fe
		}
		return crawl.Page{}, crawl.Classify(rawURL, err)
	}

	page := loaded.page
	b.appendContactPages(ctx, &page, loaded.html)
	return page, nil
}

// loadedPage keeps the raw HTML alongside the page so that contact-link
// discovery parses markup, not the combined text blob.
type loadedPage struct {
	page crawl.Page
	html string
}

// loadPage navigates one tab and captures HTML, visible text, and the
// document response status.
func (b *Browser) loadPage(ctx context.Context, rawURL string, timeout time.Duration) (loadedPage, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, timeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := newResponseMeta()
	recordResponse(tabCtx, meta)

	var html, bodyText string
	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return loadedPage{}, crawl.Classify(rawURL, err)
	}
	if meta.statusCode >= 400 {
		return loadedPage{}, crawl.ClassifyStatus(rawURL, meta.statusCode)
	}

	return loadedPage{
		page: crawl.Page{
			URL:          rawURL,
			FinalURL:     meta.finalURL(rawURL),
			Text:         html + "\n" + bodyText,
			StatusCode:   meta.statusCode,
			UsedHeadless: true,
		},
		html: html,
	}, nil
}

// appendContactPages visits up to MaxContactPages contact-style links found
// on the page and appends their text. Subpage failures degrade silently; the
// main page text is already secured.
func (b *Browser) appendContactPages(ctx context.Context, page *crawl.Page, pageHTML string) {
	links := crawl.ContactLinks(pageHTML, page.FinalURL, b.cfg.MaxContactPages)
	for _, link := range links {
		sub, err := b.loadPage(ctx, link, b.cfg.NavTimeout/2)
		if err != nil {
			b.logger.Debug("contact subpage skipped",
				zap.String("url", link),
				zap.Error(err),
			)
			continue
		}
		page.Text += "\n" + sub.page.Text
	}
}

func (b *Browser) waitDomainBudget(ctx context.Context, rawURL string) error {
	if b.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse fetch url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := b.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(b.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait limiter: %w", err)
	}
	return nil
}

type responseMeta struct {
	once       sync.Once
	statusCode int
	url        string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) finalURL(raw string) string {
	if m.url == "" {
		return raw
	}
	return m.url
}

// recordResponse captures the first document response on the tab.
func recordResponse(tabCtx context.Context, meta *responseMeta) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
			meta.url = resp.Response.URL
		})
	})
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
