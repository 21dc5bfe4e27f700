package queue

import (
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	U "consultly/util"
)

const (
	// SyncJobQueue durable queue carrying sync run jobs. Delivery is
	// at-least-once, the pipeline is idempotent by design.
	SyncJobQueue = "crm_sync_jobs"
	// SyncJobRetryQueue parks failed scheduled jobs for their backoff delay.
	// Messages carry a per-message TTL and dead-letter back onto the work
	// queue, so a pending retry survives a worker restart.
	SyncJobRetryQueue = "crm_sync_jobs_retry"

	maxPriority = 10
	// Manual runs jump the queue, a human is waiting on the result.
	PriorityManual    = 9
	PriorityScheduled = 1
)

const (
	SyncJobTypeManual    = "manual"
	SyncJobTypeScheduled = "scheduled"
)

// SyncJob payload of one queued sync run.
type SyncJob struct {
	ID         string `json:"id"`
	SyncType   string `json:"sync_type"`
	Attempt    int    `json:"attempt"`
	MaxRetries int    `json:"max_retries"`
	EnqueuedAt int64  `json:"enqueued_at"`
}

// Counts live queue depth counters for the admin surface.
type Counts struct {
	Waiting   int   `json:"waiting"`
	Active    int   `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Client wraps the amqp connection for the sync job queue.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	// Channel operations are not safe for concurrent use.
	mu sync.Mutex

	active    int32
	completed int64
	failed    int64
}

func NewClient(amqpURL string) (*Client, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to amqp")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open amqp channel")
	}

	_, err = ch.QueueDeclare(SyncJobQueue, true, false, false, false,
		amqp.Table{"x-max-priority": int32(maxPriority)})
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "failed to declare sync job queue")
	}

	_, err = ch.QueueDeclare(SyncJobRetryQueue, true, false, false, false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": SyncJobQueue,
		})
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "failed to declare sync job retry queue")
	}

	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) publish(queueName string, job *SyncJob, priority uint8, expiration string) error {
	body, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to encode sync job")
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Priority:     priority,
		Expiration:   expiration,
		Body:         body,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.Publish("", queueName, false, false, publishing)
}

// EnqueueManualSync enqueues a high priority run with no automatic retry. The
// operator observes the outcome and re-triggers.
func (c *Client) EnqueueManualSync() (string, error) {
	job := &SyncJob{
		ID:         uuid.New().String(),
		SyncType:   SyncJobTypeManual,
		EnqueuedAt: U.TimeNowUnix(),
	}

	if err := c.publish(SyncJobQueue, job, PriorityManual, ""); err != nil {
		return "", errors.Wrap(err, "failed to enqueue manual sync")
	}
	return job.ID, nil
}

// EnqueueScheduledSync enqueues a recurring run with bounded retry.
func (c *Client) EnqueueScheduledSync(maxRetries int) (string, error) {
	job := &SyncJob{
		ID:         uuid.New().String(),
		SyncType:   SyncJobTypeScheduled,
		MaxRetries: maxRetries,
		EnqueuedAt: U.TimeNowUnix(),
	}

	if err := c.publish(SyncJobQueue, job, PriorityScheduled, ""); err != nil {
		return "", errors.Wrap(err, "failed to enqueue scheduled sync")
	}
	return job.ID, nil
}

// BackoffDelay exponential backoff for retried jobs, base delay doubling per
// attempt already made.
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// nextRetry the re-enqueued copy of a failed job and the backoff delay it
// waits out on the retry queue.
func nextRetry(job *SyncJob, base time.Duration) (*SyncJob, time.Duration) {
	retry := *job
	retry.Attempt++
	return &retry, BackoffDelay(base, job.Attempt)
}

// retryExpiration per-message TTL in milliseconds, the amqp wire format.
func retryExpiration(delay time.Duration) string {
	return strconv.FormatInt(delay.Milliseconds(), 10)
}

// StartWorker consumes sync jobs with a single worker slot, the only guard
// against overlapping runs. A failed job with retries left is re-enqueued
// after its backoff delay. Blocks until the channel closes.
func (c *Client) StartWorker(handler func(job *SyncJob) error, retryBaseDelay time.Duration) error {
	if err := c.ch.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "failed to set worker prefetch")
	}

	deliveries, err := c.ch.Consume(SyncJobQueue, "crm_sync_worker", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "failed to consume sync job queue")
	}

	for delivery := range deliveries {
		var job SyncJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			log.WithError(err).Error("Dropping undecodable sync job.")
			delivery.Ack(false)
			continue
		}

		logCtx := log.WithField("job_id", job.ID).WithField("sync_type", job.SyncType).
			WithField("attempt", job.Attempt)

		atomic.StoreInt32(&c.active, 1)
		err := handler(&job)
		atomic.StoreInt32(&c.active, 0)

		if err == nil {
			atomic.AddInt64(&c.completed, 1)
			delivery.Ack(false)
			continue
		}

		if job.SyncType == SyncJobTypeScheduled && job.Attempt < job.MaxRetries {
			retry, delay := nextRetry(&job, retryBaseDelay)
			logCtx.WithError(err).WithField("delay", delay.String()).
				Warn("Sync job failed. Parking on the retry queue with backoff.")

			// Published before the ack, so a crash in between duplicates
			// the retry instead of losing it.
			if err := c.publish(SyncJobRetryQueue, retry, PriorityScheduled,
				retryExpiration(delay)); err != nil {

				log.WithField("job_id", retry.ID).WithError(err).
					Error("Failed to park sync job for retry.")
				atomic.AddInt64(&c.failed, 1)
			}
		} else {
			atomic.AddInt64(&c.failed, 1)
			logCtx.WithError(err).Error("Sync job failed with no retries left.")
		}

		delivery.Ack(false)
	}

	return nil
}

// GetCounts queue depth plus this worker's lifetime counters.
func (c *Client) GetCounts() (*Counts, error) {
	c.mu.Lock()
	queue, err := c.ch.QueueInspect(SyncJobQueue)
	c.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to inspect sync job queue")
	}

	return &Counts{
		Waiting:   queue.Messages,
		Active:    int(atomic.LoadInt32(&c.active)),
		Completed: atomic.LoadInt64(&c.completed),
		Failed:    atomic.LoadInt64(&c.failed),
	}, nil
}

// IsHealthy reports queue reachability.
func (c *Client) IsHealthy() bool {
	if c.conn == nil || c.conn.IsClosed() {
		return false
	}

	_, err := c.GetCounts()
	return err == nil
}
