package sinks

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mailsift/mailsift/internal/events"
)

// PrometheusSink exports extraction progress metrics. It owns all collectors
// for jobs, URL outcomes, and discovered emails.
type PrometheusSink struct {
	jobsCompleted  prometheus.Counter
	jobErrors      prometheus.Counter
	emailsFound    prometheus.Counter
	urlsFailed     prometheus.Counter
	urlsNoEmail    prometheus.Counter
	progressEvents prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_jobs_completed_total",
			Help: "Total extraction jobs that reached completion.",
		}),
		jobErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_job_errors_total",
			Help: "Total error events emitted by jobs.",
		}),
		emailsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_emails_found_total",
			Help: "Total unique emails discovered across all jobs.",
		}),
		urlsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_urls_failed_total",
			Help: "Total URLs that failed to fetch after retries.",
		}),
		urlsNoEmail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_urls_no_email_total",
			Help: "Total URLs fetched successfully but yielding no emails.",
		}),
		progressEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_progress_events_total",
			Help: "Total progress events emitted.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsCompleted,
		s.jobErrors,
		s.emailsFound,
		s.urlsFailed,
		s.urlsNoEmail,
		s.progressEvents,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register event collector: %w", err)
		}
	}
	return s, nil
}

// Emit updates the collectors from the event stream. Snapshot events carry
// full lists, so counters track only the deltas implied by batch events; the
// failed/no-email totals increment once per snapshot, which arrives once per
// classified URL.
func (s *PrometheusSink) Emit(evt events.Event) {
	switch evt.Type {
	case events.TypeComplete:
		s.jobsCompleted.Inc()
	case events.TypeError:
		s.jobErrors.Inc()
	case events.TypeEmail:
		s.emailsFound.Add(float64(len(evt.Emails)))
	case events.TypeFailedURLs:
		s.urlsFailed.Inc()
	case events.TypeNoEmailURLs:
		s.urlsNoEmail.Inc()
	case events.TypeProgress:
		s.progressEvents.Inc()
	}
}
