package types

// NotificationChannel names the variant chosen to confirm a payment.
type NotificationChannel int

const (
    ChannelNone NotificationChannel = iota
    ChannelEmail
    ChannelSMS
)

func (c NotificationChannel) String() string {
    switch c {
    case ChannelEmail:
        return "email"
    case ChannelSMS:
        return "sms"
    default:
        return "none"
    }
}
