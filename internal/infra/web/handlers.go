package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
	"realty-payments/internal/infra/logging"
	"realty-payments/internal/infra/metrics"
)

// coarseStatus is the payer-facing view: full detail is for admins only.
func coarseStatus(s model.PaymentStatus) string {
	switch s {
	case model.PaymentStatusConfirmed:
		return "succeeded"
	case model.PaymentStatusFailed, model.PaymentStatusCancelled:
		return "failed"
	default:
		return "pending"
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ----- Card webhook -----

func (s *Server) handleCardWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	err = s.cardUC.HandleEvent(r.Context(), body, r.Header.Get("Signature"))
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		metrics.IncWebhookRejected()
		http.Error(w, "invalid signature", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "malformed event", http.StatusBadRequest)
	case err != nil:
		// Non-2xx so the provider redelivers.
		http.Error(w, "processing failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// ----- Mobile money -----

type momoInitiateRequest struct {
	Phone       string  `json:"phone"`
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	ListingID   *string `json:"listingId,omitempty"`
}

func (s *Server) handleMomoInitiate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req momoInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.momoUC.Initiate(r.Context(), req.Phone, req.Amount, claims.UserID, req.ListingID, req.Description)
	switch {
	case errors.Is(err, domain.ErrInvalidPhoneFormat), errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrUnavailable):
		http.Error(w, "mobile money unavailable", http.StatusServiceUnavailable)
		return
	case errors.Is(err, domain.ErrPaymentInitiationFailed):
		http.Error(w, "payment initiation failed", http.StatusBadGateway)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Reference string `json:"reference"`
		PaymentID string `json:"paymentId"`
	}{Reference: p.ExternalRef, PaymentID: p.ID})
}

type momoCallbackRequest struct {
	Reference   string                 `json:"reference"`
	Status      string                 `json:"status"`
	Transaction map[string]interface{} `json:"transaction"`
}

// handleMomoCallback always answers 200: the provider has no useful
// retry-on-failure behavior, so processing failures are logged, not signaled.
func (s *Server) handleMomoCallback(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)

	var req momoCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("momo callback: malformed body")
		w.WriteHeader(http.StatusOK)
		return
	}

	txnID := ""
	if v, ok := req.Transaction["id"].(string); ok {
		txnID = v
	}
	raw := map[string]interface{}{
		"reference":   req.Reference,
		"status":      req.Status,
		"transaction": req.Transaction,
	}

	if _, err := s.momoUC.HandleCallback(r.Context(), req.Reference, req.Status, txnID, raw); err != nil {
		if errors.Is(err, domain.ErrUnknownReference) {
			log.Warn().Str("reference", req.Reference).Msg("momo callback: unknown reference")
		} else {
			log.Error().Err(err).Str("reference", req.Reference).Msg("momo callback: processing failed")
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMomoStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	p, err := s.momoUC.CheckStatus(r.Context(), reference)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "unknown reference", http.StatusNotFound)
		return
	case err != nil:
		// Transient provider failure; the payer can re-poll.
		http.Error(w, "status unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Reference string    `json:"reference"`
		Amount    int64     `json:"amount"`
		CreatedAt time.Time `json:"createdAt"`
	}{Status: coarseStatus(p.Status), Reference: p.ExternalRef, Amount: p.Amount, CreatedAt: p.CreatedAt})
}

// ----- Manual transfers -----

type manualInitiateRequest struct {
	SubjectID *string `json:"subjectId,omitempty"`
	Amount    int64   `json:"amount"`
	Currency  string  `json:"currency"`
}

func (s *Server) handleManualInitiate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req manualInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, account, err := s.manualUC.Initiate(r.Context(), claims.UserID, req.SubjectID, req.Amount, req.Currency)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		PaymentID        string `json:"paymentId"`
		Reference        string `json:"reference"`
		RecipientAccount string `json:"recipientAccount"`
	}{PaymentID: p.ID, Reference: p.ExternalRef, RecipientAccount: account})
}

type manualSubmitRequest struct {
	PaymentID      string `json:"paymentId"`
	SenderPhone    string `json:"senderPhone"`
	TransactionRef string `json:"transactionRef"`
}

func (s *Server) handleManualSubmit(w http.ResponseWriter, r *http.Request) {
	var req manualSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.manualUC.Submit(r.Context(), req.PaymentID, req.SenderPhone, req.TransactionRef)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PaymentID string `json:"paymentId"`
		Status    string `json:"status"`
	}{PaymentID: p.ID, Status: coarseStatus(p.Status)})
}

type manualConfirmRequest struct {
	PaymentID string `json:"paymentId"`
	Confirm   bool   `json:"confirm"`
}

func (s *Server) handleManualConfirm(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req manualConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.manualUC.Confirm(r.Context(), req.PaymentID, claims.UserID, req.Confirm)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PaymentID string `json:"paymentId"`
		Status    string `json:"status"`
	}{PaymentID: p.ID, Status: string(p.Status)})
}

// adminPayment exposes full detail, including the retained provider payload,
// for manual reconciliation.
type adminPayment struct {
	ID          string                 `json:"id"`
	Channel     string                 `json:"channel"`
	Reference   string                 `json:"reference"`
	Status      string                 `json:"status"`
	Activation  string                 `json:"activation"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	SubjectID   *string                `json:"subjectId,omitempty"`
	PayerID     *string                `json:"payerId,omitempty"`
	PayerPhone  string                 `json:"payerPhone,omitempty"`
	TxnID       string                 `json:"txnId,omitempty"`
	RawEvent    map[string]interface{} `json:"rawEvent,omitempty"`
	ConfirmedBy *string                `json:"confirmedBy,omitempty"`
	SubmittedAt *time.Time             `json:"submittedAt,omitempty"`
	ConfirmedAt *time.Time             `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func (s *Server) handleManualList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	filter := repository.ListFilter{}
	if v := q.Get("status"); v != "" {
		st := model.PaymentStatus(v)
		filter.Status = &st
	}
	if v := q.Get("channel"); v != "" {
		ch := model.PaymentChannel(v)
		filter.Channel = &ch
	}

	payments, total, err := s.manualUC.List(r.Context(), filter, (page-1)*limit, limit)
	if err != nil {
		http.Error(w, "failed to list payments", http.StatusInternalServerError)
		return
	}

	out := make([]adminPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, adminPayment{
			ID:          p.ID,
			Channel:     string(p.Channel),
			Reference:   p.ExternalRef,
			Status:      string(p.Status),
			Activation:  string(p.Activation),
			Amount:      p.Amount,
			Currency:    p.Currency,
			SubjectID:   p.SubjectID,
			PayerID:     p.PayerID,
			PayerPhone:  p.PayerPhone,
			TxnID:       p.TxnID,
			RawEvent:    p.RawEvent,
			ConfirmedBy: p.ConfirmedBy,
			SubmittedAt: p.SubmittedAt,
			ConfirmedAt: p.ConfirmedAt,
			CreatedAt:   p.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, struct {
		Payments []adminPayment `json:"payments"`
		Total    int            `json:"total"`
		Page     int            `json:"page"`
		Limit    int            `json:"limit"`
	}{Payments: out, Total: total, Page: page, Limit: limit})
}
