package controller

import (
	"net/http"

	"github.com/finadigital/wifipass/internal/checkout"
	"github.com/finadigital/wifipass/internal/domain/session"
	"github.com/finadigital/wifipass/internal/infrastructure/config"
	"github.com/finadigital/wifipass/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionController struct {
	storefront *service.Storefront
	portal     config.PortalConfig
}

func NewSessionController(storefront *service.Storefront, portal config.PortalConfig) *SessionController {
	return &SessionController{storefront: storefront, portal: portal}
}

func (h *SessionController) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.storefront.CreateSession()
	writeJSON(w, http.StatusCreated, FromSession(sess))
}

func (h *SessionController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.storefront.GetSession(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSession(sess))
}

func (h *SessionController) SelectPass(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SelectPassRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.storefront.SelectPass(id, req.PassID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSession(sess))
}

func (h *SessionController) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req BeginCheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	widget, err := h.storefront.BeginCheckout(id, req.toCustomer())
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.storefront.GetSession(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{Session: FromSession(sess), Widget: widget})
}

func (h *SessionController) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req CompleteCheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, result, err := h.storefront.CompleteCheckout(id, session.Transaction{
		ID:     string(req.TransactionID),
		Status: req.Status,
	})
	if err != nil {
		// A decline still reports the classification so the page can keep
		// the form open with a message.
		if result == checkout.ResultDeclined {
			writeJSON(w, http.StatusPaymentRequired, ErrorResponse{
				Error: "the payment could not be validated",
				Code:  "checkout_declined",
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Session: FromSession(sess), Result: string(result)})
}

func (h *SessionController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.storefront.CancelCheckout(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSession(sess))
}

func (h *SessionController) Manual(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.storefront.EnterManualMode(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSession(sess))
}

func (h *SessionController) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.storefront.ResetSession(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Code reports the session's retrieval outcome; the page polls it while the
// automatic lineage runs.
func (h *SessionController) Code(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	_, out, err := h.storefront.CodeOutcome(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromOutcome(out, h.portal))
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid session id", Code: "invalid_id"})
		return uuid.Nil, false
	}
	return id, true
}
