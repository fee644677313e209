package notification

import (
    "context"
    "fmt"
    "log"
    "strings"

    "payment-pipeline-api/models"
    "payment-pipeline-api/services/email"
    "payment-pipeline-api/services/payment"
    "payment-pipeline-api/services/sms"
    "payment-pipeline-api/types"
)

const NoContactDiagnostic = "No valid contact information for notification"

// SelectChannel prefers email, then phone.
func SelectChannel(contact models.ContactInfo) types.NotificationChannel {
    switch {
    case contact.HasEmail():
        return types.ChannelEmail
    case contact.HasPhone():
        return types.ChannelSMS
    default:
        return types.ChannelNone
    }
}

// Channel delivers the confirmation over one transport.
type Channel interface {
    Notify(ctx context.Context, contact models.ContactInfo) error
}

type EmailNotifier struct {
    sender email.EmailSender
}

func NewEmailNotifier(sender email.EmailSender) *EmailNotifier {
    return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Notify(ctx context.Context, contact models.ContactInfo) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    to := strings.TrimSpace(contact.Email)
    return n.sender.SendEmail(to, email.ConfirmationSubject, email.ConfirmationBody)
}

type SMSNotifier struct {
    sender sms.SMSSender
}

func NewSMSNotifier(sender sms.SMSSender) *SMSNotifier {
    return &SMSNotifier{sender: sender}
}

func (n *SMSNotifier) Notify(ctx context.Context, contact models.ContactInfo) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    return n.sender.SendSMS(strings.TrimSpace(contact.Phone), email.ConfirmationBody)
}

// Dispatcher is the payment.Notifier that picks a channel per contact.
type Dispatcher struct {
    email Channel
    sms   Channel
}

func NewDispatcher(emailChannel, smsChannel Channel) (*Dispatcher, error) {
    if emailChannel == nil {
        return nil, fmt.Errorf("email channel is required")
    }
    if smsChannel == nil {
        return nil, fmt.Errorf("sms channel is required")
    }
    return &Dispatcher{email: emailChannel, sms: smsChannel}, nil
}

func (d *Dispatcher) Channel(contact models.ContactInfo) types.NotificationChannel {
    return SelectChannel(contact)
}

func (d *Dispatcher) Send(ctx context.Context, contact models.ContactInfo) error {
    channel := SelectChannel(contact)

    var err error
    switch channel {
    case types.ChannelEmail:
        err = d.email.Notify(ctx, contact)
    case types.ChannelSMS:
        err = d.sms.Notify(ctx, contact)
    default:
        log.Println(NoContactDiagnostic)
        return nil
    }

    if err != nil {
        return &payment.NotificationError{Channel: channel.String(), Err: err}
    }
    return nil
}
