package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"payment-pipeline-api/models"
	"payment-pipeline-api/queue"
	"payment-pipeline-api/services/notification"
)

const (
	MaxConcurrency = 8

	jobTimeout     = 30 * time.Second
	delayedTick    = 5 * time.Second
	defaultPolling = 5 * time.Second
)

type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	CompleteJob(ctx context.Context, job *queue.Job) error
	FailJob(ctx context.Context, job *queue.Job, err error) error
	ProcessDelayedJobs(ctx context.Context) (int, error)
}

type Sender interface {
	Send(ctx context.Context, contact models.ContactInfo) error
}

// Worker delivers queued payment confirmations.
type Worker struct {
	queue       JobQueue
	sender      Sender
	pollTimeout time.Duration
	shutdown    chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
}

func NewWorker(q JobQueue, sender Sender) (*Worker, error) {
	if q == nil {
		return nil, fmt.Errorf("job queue is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender is required")
	}
	return &Worker{
		queue:       q,
		sender:      sender,
		pollTimeout: defaultPolling,
		shutdown:    make(chan struct{}),
	}, nil
}

// ClampConcurrency keeps n within 1..MaxConcurrency.
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

func (w *Worker) Start(concurrency int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return
	}
	w.isRunning = true

	concurrency = ClampConcurrency(concurrency)
	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i)
	}
	w.wg.Add(1)
	go w.promoteDelayed()

	log.Printf("Started %d notification worker goroutines", concurrency)
}

// Stop signals every goroutine and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	close(w.shutdown)
	w.mu.Unlock()

	log.Println("Stopping notification worker...")
	w.wg.Wait()
}

func (w *Worker) processJobs(workerID int) {
	defer w.wg.Done()
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.pollTimeout+time.Second)
		job, err := w.queue.Dequeue(ctx, w.pollTimeout)
		cancel()
		if err != nil {
			log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
			w.sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)
		w.runJob(workerID, job)
	}
}

func (w *Worker) runJob(workerID int, job *queue.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if jobErr := w.HandleJob(ctx, job); jobErr != nil {
		log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)
		if err := w.queue.FailJob(ctx, job, jobErr); err != nil {
			log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, err)
		}
		return
	}

	if err := w.queue.CompleteJob(ctx, job); err != nil {
		log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, err)
	}
}

// HandleJob runs a single job without touching the queue.
func (w *Worker) HandleJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSendNotification:
		contact, err := notification.ContactFromJobData(job.Data)
		if err != nil {
			return err
		}
		return w.sender.Send(ctx, contact)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) promoteDelayed() {
	defer w.wg.Done()
	ticker := time.NewTicker(delayedTick)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.shutdown:
	case <-time.After(d):
	}
}
