package types

import "fmt"

// TransactionState is a step of the linear payment pipeline.
type TransactionState int

const (
    StateStart TransactionState = iota
    StateCustomerValidated
    StatePaymentValidated
    StateCharged
    StateNotified
    StateLogged
    StateDone
    StateFailed
)

func (s TransactionState) String() string {
    switch s {
    case StateStart:
        return "start"
    case StateCustomerValidated:
        return "customer_validated"
    case StatePaymentValidated:
        return "payment_validated"
    case StateCharged:
        return "charged"
    case StateNotified:
        return "notified"
    case StateLogged:
        return "logged"
    case StateDone:
        return "done"
    case StateFailed:
        return "failed"
    default:
        return "unknown"
    }
}

func (s TransactionState) IsTerminal() bool {
    return s == StateDone || s == StateFailed
}

// CanTransition allows only the next forward step, or FAILED from any state
// before the charge has happened.
func (s TransactionState) CanTransition(next TransactionState) bool {
    if s.IsTerminal() {
        return false
    }
    if next == StateFailed {
        return s < StateCharged
    }
    return next == s+1
}

func (s TransactionState) Transition(next TransactionState) (TransactionState, error) {
    if !s.CanTransition(next) {
        return s, fmt.Errorf("invalid transaction state transition: %s -> %s", s, next)
    }
    return next, nil
}
