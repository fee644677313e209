package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"payment-pipeline-api/models"
	"payment-pipeline-api/queue"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []models.ContactInfo
	err  error
}

func (s *recordingSender) Send(ctx context.Context, contact models.ContactInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, contact)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newQueue(t *testing.T) (*queue.Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q := queue.NewQueueWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "notifications")
	t.Cleanup(func() { q.Close() })
	return q, mr
}

func TestHandleJobSendsNotification(t *testing.T) {
	q, _ := newQueue(t)
	sender := &recordingSender{}
	w, err := NewWorker(q, sender)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	job := &queue.Job{ID: "1", Type: queue.JobTypeSendNotification, Data: map[string]interface{}{"email": "a@example.com", "phone": ""}}
	if err := w.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if sender.count() != 1 || sender.sent[0].Email != "a@example.com" {
		t.Fatalf("unexpected sends %+v", sender.sent)
	}
}

func TestHandleJobRejectsUnknownType(t *testing.T) {
	q, _ := newQueue(t)
	w, _ := NewWorker(q, &recordingSender{})

	err := w.HandleJob(context.Background(), &queue.Job{ID: "1", Type: "void_transaction"})
	if err == nil {
		t.Fatalf("expected error for unknown job type")
	}
}

func TestWorkerDrainsQueue(t *testing.T) {
	q, _ := newQueue(t)
	sender := &recordingSender{}
	w, _ := NewWorker(q, sender)
	w.pollTimeout = 100 * time.Millisecond

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, queue.JobTypeSendNotification, map[string]interface{}{"phone": "123"}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}

	w.Start(2)
	deadline := time.Now().Add(3 * time.Second)
	for sender.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	w.Stop()

	if sender.count() != 3 {
		t.Fatalf("expected 3 notifications, got %d", sender.count())
	}
}

func TestWorkerFailedJobIsDelayed(t *testing.T) {
	q, mr := newQueue(t)
	sender := &recordingSender{err: errors.New("smtp down")}
	w, _ := NewWorker(q, sender)
	w.pollTimeout = 100 * time.Millisecond

	if err := q.Enqueue(context.Background(), queue.JobTypeSendNotification, map[string]interface{}{"email": "a@example.com"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	w.Start(1)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if members, _ := mr.ZMembers("notifications:delayed"); len(members) == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	w.Stop()

	members, err := mr.ZMembers("notifications:delayed")
	if err != nil || len(members) != 1 {
		t.Fatalf("expected failed job in delayed set, got %v (%v)", members, err)
	}
}

func TestClampConcurrency(t *testing.T) {
	testCases := map[int]int{-1: 1, 0: 1, 1: 1, 4: 4, 8: 8, 20: 8}
	for in, want := range testCases {
		if got := ClampConcurrency(in); got != want {
			t.Fatalf("ClampConcurrency(%d): expected %d, got %d", in, want, got)
		}
	}
}

func TestNewWorkerRequiresDependencies(t *testing.T) {
	if _, err := NewWorker(nil, &recordingSender{}); err == nil {
		t.Fatalf("expected error for nil queue")
	}
	q, _ := newQueue(t)
	if _, err := NewWorker(q, nil); err == nil {
		t.Fatalf("expected error for nil sender")
	}
}
