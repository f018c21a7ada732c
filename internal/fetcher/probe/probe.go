// Package probe implements the plain-HTTP fast path using the Colly
// collector. Pages that need JavaScript are promoted to the headless browser
// by the fetch pipeline.
package probe

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/crawl"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Result is a fetched page with its raw HTML retained for the detector and
// contact-link scan.
type Result struct {
	FinalURL   string
	StatusCode int
	HTML       string
}

// Fetcher retrieves pages over plain HTTP via Colly.
type Fetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New constructs a configured Colly-based Fetcher.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []colly.CollectorOption{}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Fetch retrieves a page, classifying transport and HTTP-status failures as
// crawl.FetchError values.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{result: Result{
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			HTML:       string(r.Body),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 400 {
			send(fetchResult{err: crawl.ClassifyStatus(rawURL, r.StatusCode)})
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: crawl.Classify(rawURL, err)})
	})

	if err := collector.Visit(rawURL); err != nil {
		return Result{}, crawl.Classify(rawURL, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Result{}, crawl.Classify(rawURL, err)
		}
		return res.result, res.err
	default:
		return Result{}, crawl.Classify(rawURL, errors.New("probe produced no result"))
	}
}

type fetchResult struct {
	result Result
	err    error
}
