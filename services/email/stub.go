package email

import (
    "log"
    "sync"
)

type SentEmail struct {
    To      string
    Subject string
    Body    string
}

// StubSender stands in for a real mail transport. It logs the hand-off and
// keeps the messages it was given.
type StubSender struct {
    mu   sync.Mutex
    sent []SentEmail
}

func NewStubSender() *StubSender {
    return &StubSender{}
}

func (s *StubSender) SendEmail(to, subject, body string) error {
    s.mu.Lock()
    s.sent = append(s.sent, SentEmail{To: to, Subject: subject, Body: body})
    s.mu.Unlock()

    log.Printf("Email sent to %s", to)
    return nil
}

func (s *StubSender) Sent() []SentEmail {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]SentEmail, len(s.sent))
    copy(out, s.sent)
    return out
}
