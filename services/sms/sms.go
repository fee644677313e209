package sms

import (
    "log"
    "sync"
)

const DefaultGatewayName = "the custom SMS Gateway"

type SMSSender interface {
    SendSMS(phone, message string) error
}

type SentSMS struct {
    Phone   string
    Message string
}

// StubSender stands in for an SMS gateway integration.
type StubSender struct {
    gatewayName string
    mu          sync.Mutex
    sent        []SentSMS
}

func NewStubSender(gatewayName string) *StubSender {
    if gatewayName == "" {
        gatewayName = DefaultGatewayName
    }
    return &StubSender{gatewayName: gatewayName}
}

func (s *StubSender) SendSMS(phone, message string) error {
    s.mu.Lock()
    s.sent = append(s.sent, SentSMS{Phone: phone, Message: message})
    s.mu.Unlock()

    log.Printf("send the sms using %s: SMS sent to %s: %s", s.gatewayName, phone, message)
    return nil
}

func (s *StubSender) Sent() []SentSMS {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]SentSMS, len(s.sent))
    copy(out, s.sent)
    return out
}
