package server

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/huulo/storefront/internal/payment"
)

// webhookPayload mirrors the shape Paystack posts on transaction events. Only
// the event name and the reference matter here; the verify call during
// Resolve is the source of truth for the outcome.
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// signatureHeader carries the provider's HMAC-SHA512 of the raw body, keyed
// with the account's secret key.
const signatureHeader = "x-paystack-signature"

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "failed to read body")
		return
	}

	if !s.verifyWebhookSignature(body, r.Header.Get(signatureHeader)) {
		slog.Warn("webhook signature mismatch")
		respondError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid webhook payload")
		return
	}
	if payload.Data.Reference == "" {
		respondError(w, http.StatusBadRequest, "missing_reference", "reference is required")
		return
	}

	slog.Info("payment webhook received",
		"event", payload.Event,
		"reference", payload.Data.Reference)

	if err := s.payments.Resolve(r.Context(), payload.Data.Reference); err != nil {
		s.respondPaymentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (s *Server) verifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *Server) respondPaymentError(w http.ResponseWriter, err error) {
	if errors.Is(err, payment.ErrUnknownReference) {
		respondError(w, http.StatusNotFound, "unknown_reference", "no pending transaction for reference")
		return
	}
	slog.Error("payment operation failed", "error", err)
	respondError(w, http.StatusBadGateway, "payment_error", "payment provider unavailable")
}
