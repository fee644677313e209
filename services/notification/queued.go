package notification

import (
    "context"
    "fmt"
    "log"

    "payment-pipeline-api/models"
    "payment-pipeline-api/queue"
    "payment-pipeline-api/services/payment"
    "payment-pipeline-api/types"
)

type JobEnqueuer interface {
    Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
}

// QueuedNotifier defers delivery to the notification worker. Only the
// enqueue can fail here; delivery errors surface in the worker.
type QueuedNotifier struct {
    queue JobEnqueuer
}

func NewQueuedNotifier(q JobEnqueuer) *QueuedNotifier {
    return &QueuedNotifier{queue: q}
}

func (n *QueuedNotifier) Channel(contact models.ContactInfo) types.NotificationChannel {
    return SelectChannel(contact)
}

func (n *QueuedNotifier) Send(ctx context.Context, contact models.ContactInfo) error {
    channel := SelectChannel(contact)
    if channel == types.ChannelNone {
        log.Println(NoContactDiagnostic)
        return nil
    }

    err := n.queue.Enqueue(ctx, queue.JobTypeSendNotification, ContactToJobData(contact))
    if err != nil {
        return &payment.NotificationError{
            Channel: channel.String(),
            Err:     fmt.Errorf("failed to enqueue notification: %w", err),
        }
    }
    return nil
}

func ContactToJobData(contact models.ContactInfo) map[string]interface{} {
    return map[string]interface{}{
        "email": contact.Email,
        "phone": contact.Phone,
    }
}

func ContactFromJobData(data map[string]interface{}) (models.ContactInfo, error) {
    contact := models.ContactInfo{}
    if v, ok := data["email"]; ok && v != nil {
        s, ok := v.(string)
        if !ok {
            return contact, fmt.Errorf("invalid email in job data")
        }
        contact.Email = s
    }
    if v, ok := data["phone"]; ok && v != nil {
        s, ok := v.(string)
        if !ok {
            return contact, fmt.Errorf("invalid phone in job data")
        }
        contact.Phone = s
    }
    return contact, nil
}
