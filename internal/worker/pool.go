// Package worker implements the bounded pool that drains the job queue.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/crawl"
)

// Pool fans a fixed number of execution slots out over the job queue. The
// concurrency bound protects target sites and caps local browser usage; it
// is fixed at construction for the pool's lifetime.
type Pool struct {
	concurrency int
	fetcher     crawl.Fetcher
	extractor   crawl.EmailExtractor
	control     *crawl.Control
	logger      *zap.Logger
}

// New constructs a Pool. Concurrency is clamped to at least one slot.
func New(
	concurrency int,
	fetcher crawl.Fetcher,
	extractor crawl.EmailExtractor,
	control *crawl.Control,
	logger *zap.Logger,
) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		concurrency: concurrency,
		fetcher:     fetcher,
		extractor:   extractor,
		control:     control,
		logger:      logger,
	}
}

// Run drains the queue with exactly the configured number of slots and
// blocks until all slots exit. onOutcome is invoked concurrently from slot
// goroutines; the caller serializes.
func (p *Pool) Run(ctx context.Context, queue *crawl.Queue, onOutcome func(crawl.Outcome)) {
	var wg sync.WaitGroup
	for slot := 0; slot < p.concurrency; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			p.runSlot(ctx, slot, queue, onOutcome)
		}(slot)
	}
	wg.Wait()
}

// runSlot is the per-slot loop. The pause gate sits between dequeues, so an
// in-flight fetch always completes before the slot suspends or exits.
func (p *Pool) runSlot(ctx context.Context, slot int, queue *crawl.Queue, onOutcome func(crawl.Outcome)) {
	for {
		if ctx.Err() != nil || p.control.Stopped() {
			return
		}
		if !p.control.Await() {
			return
		}
		task, ok := queue.TryDequeue()
		if !ok {
			return
		}

		p.logger.Debug("processing url",
			zap.Int("slot", slot),
			zap.String("url", task.URL),
		)
		onOutcome(p.process(ctx, task))
	}
}

func (p *Pool) process(ctx context.Context, task crawl.Task) crawl.Outcome {
	page, err := p.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		return crawl.Outcome{
			URL:    task.URL,
			Failed: true,
			Reason: crawl.Reason(err),
		}
	}
	return crawl.Outcome{
		URL:    task.URL,
		Emails: p.extractor.Extract(page.Text),
	}
}
