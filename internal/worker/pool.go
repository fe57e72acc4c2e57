package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

const (
	QueueLeadNotifications = "queue:lead-notifications"

	lockTTL      = 10 * time.Minute
	popTimeout   = 5 * time.Second
	maxAttempts  = 3
	pendingSweep = 100
)

// redisClient is the subset of *redis.Client the queue and pool use.
type redisClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type leadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
	ListPending(ctx context.Context, limit int) ([]models.Lead, error)
}

type notifier interface {
	SendLeadNotification(lead *models.Lead) error
}

// Queue pushes lead notification jobs onto Redis.
type Queue struct {
	redis redisClient
}

func NewQueue(client redisClient) *Queue {
	return &Queue{redis: client}
}

func (q *Queue) Enqueue(ctx context.Context, leadID uuid.UUID) error {
	return q.push(ctx, models.LeadNotificationJob{LeadID: leadID})
}

func (q *Queue) push(ctx context.Context, job models.LeadNotificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to encode job")
	}
	return q.redis.LPush(ctx, QueueLeadNotifications, string(payload)).Err()
}

type Pool struct {
	redis       redisClient
	queue       *Queue
	leads       leadRepository
	notifier    notifier
	workerCount int
	backoff     func(attempt int) time.Duration
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewPool(client redisClient, leads leadRepository, n notifier, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       client,
		queue:       NewQueue(client),
		leads:       leads,
		notifier:    n,
		workerCount: workerCount,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
		stopChan: make(chan struct{}),
	}
}

// Start re-queues leads that were never notified and launches the workers.
func (p *Pool) Start(ctx context.Context) {
	p.requeuePending(ctx)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Info().Int("workers", p.workerCount).Msg("started notification workers")
}

// Stop signals the workers and waits for the jobs in progress.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) requeuePending(ctx context.Context) {
	pending, err := p.leads.ListPending(ctx, pendingSweep)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list pending leads")
		return
	}
	for _, l := range pending {
		if err := p.queue.Enqueue(ctx, l.ID); err != nil {
			log.Warn().Err(err).Str("lead_id", l.ID.String()).Msg("failed to requeue lead")
		}
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, QueueLeadNotifications).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		p.handle(ctx, id, result[1])
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, payload string) {
	var job models.LeadNotificationJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Error().Err(err).Int("worker", workerID).Msg("failed to parse job")
		return
	}

	lockKey := fmt.Sprintf("lead_lock:%s", job.LeadID)
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return // Another worker has this lead
	}
	defer p.redis.Del(ctx, lockKey)

	if err := p.process(ctx, job.LeadID); err != nil {
		p.handleFailure(ctx, job, err)
		return
	}

	log.Info().Int("worker", workerID).Str("lead_id", job.LeadID.String()).Msg("lead notification sent")
}

func (p *Pool) process(ctx context.Context, leadID uuid.UUID) error {
	lead, err := p.leads.GetByID(ctx, leadID)
	if err != nil {
		return errors.Wrap(err, "failed to load lead")
	}
	if lead.NotifiedAt != nil {
		return nil
	}

	if err := p.notifier.SendLeadNotification(lead); err != nil {
		return err
	}

	return errors.Wrap(p.leads.MarkNotified(ctx, lead.ID), "failed to mark lead notified")
}

func (p *Pool) handleFailure(ctx context.Context, job models.LeadNotificationJob, err error) {
	job.Attempt++
	logger := log.With().Str("lead_id", job.LeadID.String()).Int("attempt", job.Attempt).Logger()

	if job.Attempt >= maxAttempts {
		logger.Error().Err(err).Msg("lead notification failed permanently")
		return
	}

	logger.Warn().Err(err).Msg("lead notification failed, retrying")
	time.AfterFunc(p.backoff(job.Attempt), func() {
		if err := p.queue.push(context.Background(), job); err != nil {
			logger.Error().Err(err).Msg("failed to requeue lead notification")
		}
	})
}
