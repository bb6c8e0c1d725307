package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReports = "jobs:reports"

	JobWeeklyReport = "weekly_report"

	maxJobAttempts = 3
)

// ErrPermanent marks a job failure that retrying cannot fix (bad payload,
// unknown job type). Such jobs go straight to the DLQ.
var ErrPermanent = errors.New("permanent job failure")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one job payload. Returned errors are retried with backoff.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueWeeklyReport pushes a report job to Redis.
func (d *Dispatcher) EnqueueWeeklyReport(ctx context.Context, payload WeeklyReportPayload) error {
	return d.enqueue(ctx, QueueReports, JobWeeklyReport, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	backoff  time.Duration
	// deadLetter defaults to SendToDLQ
	deadLetter func(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int)
}

func NewPool(rdb *redis.Client) *Pool {
	p := &Pool{rdb: rdb, handlers: make(map[string]Handler), backoff: time.Second}
	p.deadLetter = func(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
		SendToDLQ(ctx, rdb, queue, jobType, payload, reason, attempts)
	}
	return p
}

// Register binds a job type to its handler. Call before Start.
func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines consuming the report queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	queues := []string{QueueReports}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue // timeout or context cancelled
				}
				// Redis unreachable: don't spin
				log.Warn().Err(err).Int("worker", id).Msg("dequeue failed, backing off")
				sleepCtx(ctx, p.backoff)
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.deadLetter(ctx, queue, "unknown", json.RawMessage(fmt.Sprintf("%q", raw)), "malformed envelope: "+err.Error(), 0)
		return
	}

	handler, ok := p.handlers[job.Type]
	if !ok {
		p.deadLetter(ctx, queue, job.Type, job.Payload, "no handler registered", 0)
		return
	}

	log.Info().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	attempts := 0
	err := withRetry(ctx, maxJobAttempts, p.backoff, func(int) error {
		attempts++
		return handler(ctx, job.Payload)
	})
	if err != nil {
		p.deadLetter(ctx, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	log.Info().Str("type", job.Type).Int("attempts", attempts).Msg("job done")
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, base, 2×base …). ErrPermanent stops retrying at once.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * base
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrPermanent) {
			return err
		}
	}
	return lastErr
}
