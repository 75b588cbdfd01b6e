package controller

import (
	"encoding/json"
	"time"

	"github.com/finadigital/wifipass/internal/checkout"
	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/domain/customer"
	"github.com/finadigital/wifipass/internal/domain/session"
	"github.com/finadigital/wifipass/internal/infrastructure/config"
	"github.com/finadigital/wifipass/internal/retrieval"
)

// --- Request DTOs ---

// SelectPassRequest picks a catalog pass for the session.
type SelectPassRequest struct {
	PassID string `json:"pass_id" validate:"required"`
}

// BeginCheckoutRequest carries the billing identity for the payment widget.
// Field-level rules live in customer.Info; validator tags here only reject
// outright junk before the domain sees it.
type BeginCheckoutRequest struct {
	FirstName      string `json:"firstname" validate:"required"`
	LastName       string `json:"lastname" validate:"required"`
	Email          string `json:"email" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Country        string `json:"country,omitempty"`
	IDReference    string `json:"id_reference" validate:"required"`
	WhatsAppNumber string `json:"whatsapp_number" validate:"required"`
}

// TransactionID accepts both JSON string and number; the widget has been
// seen sending either shape.
type TransactionID string

func (t *TransactionID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = TransactionID(n.String())
	return nil
}

// CompleteCheckoutRequest is the widget's completion callback relayed by the
// page. The status string is the widget's own vocabulary.
type CompleteCheckoutRequest struct {
	TransactionID TransactionID `json:"transaction_id" validate:"required"`
	Status        string        `json:"status" validate:"required"`
}

// ManualLookupRequest is a visitor-typed transaction id.
type ManualLookupRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

// --- Response DTOs ---

type SessionResponse struct {
	ID            string        `json:"id"`
	Status        string        `json:"status"`
	Pass          *catalog.Pass `json:"pass,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	ManualEntry   bool          `json:"manual_entry"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type PassListResponse struct {
	Passes   []catalog.Pass `json:"passes"`
	Currency string         `json:"currency"`
}

// CheckoutResponse arms the page's payment widget.
type CheckoutResponse struct {
	Session SessionResponse       `json:"session"`
	Widget  checkout.WidgetConfig `json:"widget"`
}

type CompleteResponse struct {
	Session SessionResponse `json:"session"`
	Result  string          `json:"result"`
}

// PortalInfo tells a visitor with a fresh code where to use it.
type PortalInfo struct {
	URL         string `json:"url"`
	NetworkName string `json:"network_name"`
}

// SupportInfo is shown when retrieval fails for good.
type SupportInfo struct {
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
}

// OutcomeResponse reports a retrieval outcome. Portal details accompany a
// resolved code; support contacts accompany a terminal failure.
type OutcomeResponse struct {
	State       string       `json:"state"`
	Code        string       `json:"code,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Attempt     int          `json:"attempt"`
	MaxAttempts int          `json:"max_attempts"`
	Portal      *PortalInfo  `json:"portal,omitempty"`
	Support     *SupportInfo `json:"support,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

func (r BeginCheckoutRequest) toCustomer() customer.Info {
	return customer.Info{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Country:        r.Country,
		IDReference:    r.IDReference,
		WhatsAppNumber: r.WhatsAppNumber,
	}
}

func FromSession(s session.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:          s.ID.String(),
		Status:      string(s.Status),
		Pass:        s.Pass,
		ManualEntry: s.ManualEntry,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Transaction != nil {
		resp.TransactionID = s.Transaction.ID
	}
	return resp
}

func FromOutcome(o retrieval.Outcome, portal config.PortalConfig) OutcomeResponse {
	resp := OutcomeResponse{
		State:       string(o.State),
		Code:        o.Code,
		Reason:      o.Reason,
		Attempt:     o.Attempt,
		MaxAttempts: o.MaxAttempts,
	}
	switch o.State {
	case retrieval.StateResolved:
		resp.Portal = &PortalInfo{URL: portal.URL, NetworkName: portal.NetworkName}
	case retrieval.StateFailed:
		resp.Support = &SupportInfo{Email: portal.SupportEmail, WhatsApp: portal.SupportWhatsApp}
	}
	return resp
}
