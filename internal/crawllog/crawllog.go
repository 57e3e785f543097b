// Package crawllog submits the gateway's logCrawl transactions
// asynchronously, after the client response has already been written. It
// never extends client-visible latency and never surfaces a failure to the
// client.
package crawllog

import (
	"context"
	"log/slog"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/justin-graham/Tachi-sub009/internal/chain"
	"github.com/justin-graham/Tachi-sub009/internal/metrics"
	"github.com/justin-graham/Tachi-sub009/internal/signer"
)

// Job is the unit of work enqueued after a successful proxied response.
type Job struct {
	RequestID string
	TokenID   *big.Int
	Crawler   common.Address
	UserAgent string
	Timestamp int64
}

// submitTimeout bounds a single submission attempt per §4.7.
const submitTimeout = 15 * time.Second

// backoff is the jittered retry schedule: 1s, 3s, 9s.
var backoff = []time.Duration{time.Second, 3 * time.Second, 9 * time.Second}

// jitterFraction adds up to 20% of extra delay on top of each fixed backoff
// step, so concurrently-failing submissions don't retry in lockstep.
const jitterFraction = 0.2

// Logger owns the bounded job queue and the worker goroutine that drains
// it. Jobs are single-flight: the worker processes one at a time, so a
// slow chain never causes unbounded goroutine growth under load.
type Logger struct {
	jobs    chan Job
	signer  *signer.Signer
	client  chain.Client
	metrics *metrics.Metrics
	done    chan struct{}
}

// New starts a Logger with a bounded queue of the given capacity.
func New(sg *signer.Signer, client chain.Client, m *metrics.Metrics, queueCapacity int) *Logger {
	l := &Logger{
		jobs:    make(chan Job, queueCapacity),
		signer:  sg,
		client:  client,
		metrics: m,
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Enqueue schedules job for background submission. It never blocks the
// caller beyond the queue having capacity; if the queue is full the job is
// dropped and logged, since §9 promises fire-and-forget, not guaranteed
// delivery.
func (l *Logger) Enqueue(job Job) {
	select {
	case l.jobs <- job:
	default:
		slog.Warn("crawl log queue full, dropping job", "request_id", job.RequestID)
	}
}

func (l *Logger) run() {
	for job := range l.jobs {
		l.submitWithRetry(job)
	}
	close(l.done)
}

func (l *Logger) submitWithRetry(job Job) {
	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < len(backoff)+1; attempt++ {
		if attempt > 0 {
			if l.metrics != nil {
				l.metrics.CrawlLogRetried.Inc()
			}
			time.Sleep(jittered(backoff[attempt-1]))
		}

		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		hash, err := l.signer.SubmitLogCrawl(ctx, l.client, job.TokenID, job.Crawler, job.UserAgent, job.Timestamp)
		cancel()
		if err == nil {
			slog.Info("crawl log submitted", "request_id", job.RequestID, "tx_hash", hash.Hex())
			if l.metrics != nil {
				l.metrics.CrawlLogSubmitted.Inc()
				l.metrics.CrawlLogLatency.Observe(time.Since(start).Seconds())
			}
			return
		}
		lastErr = err
	}

	slog.Error("crawl log submission exhausted retries", "request_id", job.RequestID, "err", lastErr)
	if l.metrics != nil {
		l.metrics.CrawlLogFailed.Inc()
	}
}

// jittered adds a random fraction of d (up to jitterFraction) on top of d
// itself, so the schedule is a floor rather than a fixed lockstep delay.
func jittered(d time.Duration) time.Duration {
	return d + time.Duration(rand.Float64()*jitterFraction*float64(d))
}

// Drain stops accepting new jobs and blocks until the queue is empty or ctx
// is cancelled, for graceful shutdown.
func (l *Logger) Drain(ctx context.Context) {
	close(l.jobs)
	select {
	case <-l.done:
	case <-ctx.Done():
		slog.Warn("crawl log drain timed out, some jobs may be lost")
	}
}
