package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"payment-pipeline-api/queue"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Inspect and requeue confirmation jobs that exhausted their retries",
}

var notificationsFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List failed notification jobs as JSON",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsFailed,
}

var notificationsRetryCmd = &cobra.Command{
	Use:     "retry <job-id>",
	Short:   "Move a failed notification job back onto the queue",
	Example: `  payment-pipeline-api notifications retry 6f1c2d3e-0000-4000-8000-000000000000`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNotificationsRetry,
}

func init() {
	notificationsCmd.AddCommand(notificationsFailedCmd)
	notificationsCmd.AddCommand(notificationsRetryCmd)
}

func openNotificationQueue() (*queue.Queue, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Redis.Enabled() {
		return nil, errors.New("REDIS_URL is required to manage notification jobs")
	}
	return queue.NewQueue(cfg.Redis.URL, notificationQueueName)
}

func runNotificationsFailed(cmd *cobra.Command, args []string) error {
	q, err := openNotificationQueue()
	if err != nil {
		return err
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs, err := q.FailedJobs(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}

func runNotificationsRetry(cmd *cobra.Command, args []string) error {
	q, err := openNotificationQueue()
	if err != nil {
		return err
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := q.RetryJob(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Requeued notification job %s\n", args[0])
	return nil
}
