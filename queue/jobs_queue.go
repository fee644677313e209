package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeSendNotification JobType = "send_notification"
)

const (
	DefaultMaxRetries = 5
	retryBaseDelay    = 15 * time.Second
)

type Job struct {
	ID         string                 `json:"id"`
	Type       JobType                `json:"type"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`

	// raw is the payload as popped, used to remove the entry from the
	// processing list after Data has been mutated.
	raw string
}

type Queue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string
	maxRetries int
	now        func() time.Time
}

func NewQueue(redisURL, queueName string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewQueueWithClient(client, queueName), nil
}

// NewQueueWithClient builds a queue over an existing client. Close closes the client.
func NewQueueWithClient(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:     client,
		queueName:  queueName,
		processing: queueName + ":processing",
		delayed:    queueName + ":delayed",
		failed:     queueName + ":failed",
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
}

func (q *Queue) newJob(jobType JobType, data map[string]interface{}) Job {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Data:      data,
		CreatedAt: q.now().UTC(),
	}
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) error {
	job := q.newJob(jobType, data)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}

	log.Printf("Enqueued job %s of type %s", job.ID, job.Type)
	return nil
}

// Dequeue blocks up to timeout. It returns nil, nil when nothing arrived.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.Data == nil {
		job.Data = map[string]interface{}{}
	}
	job.raw = result[1]

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		log.Printf("Warning: Failed to move job %s to processing queue: %v", job.ID, err)
	}

	return &job, nil
}

func (q *Queue) CompleteJob(ctx context.Context, job *Job) error {
	if err := q.removeProcessing(ctx, job); err != nil {
		return err
	}

	log.Printf("Completed job %s of type %s", job.ID, job.Type)
	return nil
}

// FailJob reschedules the job with exponential backoff, or parks it on the
// failed list once maxRetries is exceeded.
func (q *Queue) FailJob(ctx context.Context, job *Job, jobErr error) error {
	if err := q.removeProcessing(ctx, job); err != nil {
		log.Printf("Warning: %v", err)
	}

	job.RetryCount++
	job.Data["last_error"] = jobErr.Error()
	job.Data["failed_at"] = q.now().UTC()

	if job.RetryCount <= q.maxRetries {
		delay := retryBaseDelay * time.Duration(1<<(job.RetryCount-1))
		retryAt := q.now().Add(delay)
		job.Data["next_retry_at"] = retryAt.UTC()

		jobJSON, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
			Score:  float64(retryAt.Unix()),
			Member: jobJSON,
		}).Err(); err != nil {
			log.Printf("Warning: Failed to add job to delayed queue, adding to failed queue: %v", err)
			if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
				return fmt.Errorf("failed to push job to failed queue: %w", err)
			}
			return nil
		}

		log.Printf("Job %s of type %s scheduled for retry %d/%d in %s",
			job.ID, job.Type, job.RetryCount, q.maxRetries, delay)
		return nil
	}

	job.Data["all_retries_exhausted"] = true
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %w", err)
	}

	log.Printf("Job %s of type %s moved to failed queue after %d retries", job.ID, job.Type, job.RetryCount)
	return nil
}

// ProcessDelayedJobs moves every due delayed job back onto the main queue.
func (q *Queue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", q.now().Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed jobs: %w", err)
	}

	moved := 0
	for _, jobJSON := range jobs {
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			log.Printf("Warning: Failed to remove job from delayed queue: %v", err)
			continue
		}
		// another worker already claimed it
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			log.Printf("Warning: Failed to move delayed job to main queue: %v", err)
			continue
		}
		moved++
	}

	if moved > 0 {
		log.Printf("Moved %d delayed jobs to main queue", moved)
	}
	return moved, nil
}

// FailedJobs lists the jobs parked after exhausting their retries.
func (q *Queue) FailedJobs(ctx context.Context) ([]Job, error) {
	entries, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list failed jobs: %w", err)
	}

	jobs := make([]Job, 0, len(entries))
	for _, entry := range entries {
		var job Job
		if err := json.Unmarshal([]byte(entry), &job); err != nil {
			log.Printf("Warning: Failed to unmarshal job: %v", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RetryJob requeues a job from the failed list with its retry count reset.
func (q *Queue) RetryJob(ctx context.Context, jobID string) error {
	jobs, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list failed jobs: %w", err)
	}

	for _, jobJSON := range jobs {
		var job Job
		if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
			log.Printf("Warning: Failed to unmarshal job: %v", err)
			continue
		}
		if job.ID != jobID {
			continue
		}

		if err := q.client.LRem(ctx, q.failed, 1, jobJSON).Err(); err != nil {
			return fmt.Errorf("failed to remove job from failed queue: %w", err)
		}

		job.RetryCount = 0
		if job.Data == nil {
			job.Data = map[string]interface{}{}
		}
		delete(job.Data, "all_retries_exhausted")
		delete(job.Data, "next_retry_at")
		job.Data["manual_retry"] = true

		updated, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := q.client.RPush(ctx, q.queueName, updated).Err(); err != nil {
			return fmt.Errorf("failed to push job to main queue: %w", err)
		}

		log.Printf("Manually requeued job %s of type %s", job.ID, job.Type)
		return nil
	}

	return fmt.Errorf("job %s not found in failed queue", jobID)
}

func (q *Queue) removeProcessing(ctx context.Context, job *Job) error {
	payload := job.raw
	if payload == "" {
		b, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		payload = string(b)
	}
	if err := q.client.LRem(ctx, q.processing, 1, payload).Err(); err != nil {
		return fmt.Errorf("failed to remove job %s from processing queue: %w", job.ID, err)
	}
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
