package queue

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler enqueues the recurring sync job on a fixed interval. Registered
// exactly once per process, repeated Start calls are no-ops so restarts never
// stack duplicate timers.
type Scheduler struct {
	client     *Client
	interval   time.Duration
	maxRetries int

	startOnce sync.Once
	stop      chan struct{}
}

func NewScheduler(client *Client, interval time.Duration, maxRetries int) *Scheduler {
	return &Scheduler{
		client:     client,
		interval:   interval,
		maxRetries: maxRetries,
		stop:       make(chan struct{}),
	}
}

// Start begins the recurring enqueue loop. A non-positive interval disables
// the recurring job entirely, manual triggers still work.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		if s.interval <= 0 {
			log.Info("Recurring crm sync is disabled by configuration.")
			return
		}

		log.WithField("interval", s.interval.String()).Info("Registered recurring crm sync.")
		go s.run()
	})
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jobID, err := s.client.EnqueueScheduledSync(s.maxRetries)
			if err != nil {
				log.WithError(err).Error("Failed to enqueue scheduled sync job.")
				continue
			}
			log.WithField("job_id", jobID).Debug("Enqueued scheduled sync job.")
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
}
