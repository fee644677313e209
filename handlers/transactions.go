package handlers

import (
    "context"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strconv"
    "strings"

    "github.com/google/uuid"
    "github.com/gorilla/mux"

    "payment-pipeline-api/database"
    "payment-pipeline-api/middleware"
    "payment-pipeline-api/models"
    "payment-pipeline-api/services/idempotency"
    "payment-pipeline-api/services/payment"
    "payment-pipeline-api/utils"
)

const (
    IdempotencyKeyHeader = "Idempotency-Key"
    maxBodyBytes         = 1 << 20
)

type TransactionProcessor interface {
    ProcessTransaction(ctx context.Context, customer models.CustomerData, pay models.PaymentData, logDestination string) (*models.Charge, error)
}

type TransactionReader interface {
    GetTransaction(ctx context.Context, id string) (*models.TransactionRecord, error)
}

type TransactionHandler struct {
    processor      TransactionProcessor
    idempotency    idempotency.Store
    reader         TransactionReader
    logDestination string
}

// NewTransactionHandler wires the HTTP surface of the pipeline. reader may be
// nil when no ledger is configured.
func NewTransactionHandler(processor TransactionProcessor, store idempotency.Store, reader TransactionReader, logDestination string) (*TransactionHandler, error) {
    if processor == nil {
        return nil, fmt.Errorf("transaction processor is required")
    }
    if store == nil {
        return nil, fmt.Errorf("idempotency store is required")
    }
    return &TransactionHandler{
        processor:      processor,
        idempotency:    store,
        reader:         reader,
        logDestination: logDestination,
    }, nil
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
    requestID := middleware.GetRequestID(r.Context())

    req, err := models.DecodeTransactionRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
    if err != nil {
        log.Printf("[%s] Error decoding transaction request: %v", requestID, err)
        utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
        return
    }

    key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
    fingerprint := req.Fingerprint()
    transactionID := uuid.New().String()
    ctx := payment.WithTransactionID(r.Context(), transactionID)

    if key != "" {
        stored, err := h.idempotency.Reserve(r.Context(), key, fingerprint)
        switch {
        case errors.Is(err, idempotency.ErrKeyMismatch):
            log.Printf("[%s] Idempotency key %s reused with a different request", requestID, key)
            utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
            return
        case errors.Is(err, idempotency.ErrInProgress):
            log.Printf("[%s] Idempotency key %s already in progress", requestID, key)
            utils.SendErrorResponse(w, http.StatusConflict, "A request with this Idempotency-Key is already being processed")
            return
        case errors.Is(err, idempotency.ErrOutcomeUnknown):
            log.Printf("[%s] Idempotency key %s held after an unconfirmed charge", requestID, key)
            w.Header().Set("Retry-After", strconv.Itoa(int(idempotency.UnknownHold.Seconds())))
            utils.SendErrorResponse(w, http.StatusConflict, "The previous attempt with this Idempotency-Key is still being confirmed")
            return
        case err != nil:
            log.Printf("[%s] Idempotency store error: %v", requestID, err)
            utils.SendErrorResponse(w, http.StatusServiceUnavailable, "Unable to process payment right now")
            return
        case stored != nil:
            log.Printf("[%s] Replaying transaction %s for idempotency key %s", requestID, stored.TransactionID, key)
            h.sendCharge(w, stored.TransactionID, stored.Charge, true)
            return
        }
        ctx = payment.WithIdempotencyKey(ctx, idempotency.GatewayKey(key, fingerprint))
    }

    log.Printf("[%s] Processing transaction %s for %s", requestID, transactionID, req.Customer.Name)
    charge, err := h.processor.ProcessTransaction(ctx, req.Customer, req.Payment, h.logDestination)
    if err != nil {
        if key != "" {
            h.settleFailure(requestID, key, fingerprint, err)
        }
        status, message := statusForError(err)
        log.Printf("[%s] Transaction %s failed (%d): %v", requestID, transactionID, status, err)
        utils.SendErrorResponse(w, status, message)
        return
    }

    if key != "" {
        result := &idempotency.Result{TransactionID: transactionID, Charge: charge}
        if err := h.idempotency.MarkSuccess(context.Background(), key, fingerprint, result); err != nil {
            log.Printf("[%s] Warning: failed to store idempotency result for %s: %v", requestID, key, err)
        }
    }

    h.sendCharge(w, transactionID, charge, false)
}

// settleFailure releases the key only when no charge was created. Any other
// failure holds it for idempotency.UnknownHold.
func (h *TransactionHandler) settleFailure(requestID, key, fingerprint string, chargeErr error) {
    if payment.ChargeNotCreated(chargeErr) {
        if err := h.idempotency.MarkFailure(context.Background(), key); err != nil {
            log.Printf("[%s] Warning: failed to release idempotency key %s: %v", requestID, key, err)
        }
        return
    }
    if err := h.idempotency.MarkUnknown(context.Background(), key, fingerprint); err != nil {
        log.Printf("[%s] Warning: failed to hold idempotency key %s: %v", requestID, key, err)
    }
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
    if h.reader == nil {
        utils.SendErrorResponse(w, http.StatusNotImplemented, "Transaction ledger is not configured")
        return
    }

    id := mux.Vars(r)["id"]
    record, err := h.reader.GetTransaction(r.Context(), id)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            utils.SendErrorResponse(w, http.StatusNotFound, "Transaction not found")
            return
        }
        log.Printf("[%s] Error getting transaction %s: %v", middleware.GetRequestID(r.Context()), id, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to load transaction")
        return
    }

    utils.SendSuccessResponse(w, models.APIResponse{
        Status:  "success",
        Message: "Transaction found",
        Data:    record,
    })
}

func (h *TransactionHandler) sendCharge(w http.ResponseWriter, transactionID string, charge *models.Charge, replay bool) {
    utils.SendSuccessResponse(w, models.APIResponse{
        Status:  "success",
        Message: "Payment processed successfully",
        Data: models.TransactionResponse{
            TransactionID: transactionID,
            ChargeID:      charge.ID,
            Status:        charge.Status.String(),
            Description:   charge.Description,
            Amount:        charge.Amount,
            DisplayAmount: utils.FormatAmount(charge.Amount, charge.Currency),
            Currency:      charge.Currency,
            IsReplay:      replay,
        },
    })
}

func statusForError(err error) (int, string) {
    var validationErr *payment.ValidationError
    if errors.As(err, &validationErr) {
        return http.StatusBadRequest, validationErr.Error()
    }

    var gatewayErr *payment.GatewayError
    if errors.As(err, &gatewayErr) {
        if gatewayErr.IsDecline() {
            return http.StatusPaymentRequired, gatewayErr.Message
        }
        return http.StatusBadGateway, "Payment gateway error"
    }

    return http.StatusInternalServerError, "Failed to process payment"
}
