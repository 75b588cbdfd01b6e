package customer

import (
	"regexp"
	"strings"

	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
)

// Info is the billing and identity data collected per checkout attempt.
// Local telecom regulation requires the identity-document reference. Never
// stored by this service; a copy is forwarded to the record-keeping webhook
// after an approved payment.
type Info struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Country        string
	IDReference    string
	WhatsAppNumber string
}

const phoneLength = 8

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validate enforces the checkout gating rules. All five constraints must
// hold simultaneously before the payment widget may be armed.
func (i Info) Validate() error {
	if strings.TrimSpace(i.FirstName) == "" {
		return domainErrors.NewValidationError("firstname", "is required")
	}
	if strings.TrimSpace(i.LastName) == "" {
		return domainErrors.NewValidationError("lastname", "is required")
	}
	if !emailPattern.MatchString(i.Email) {
		return domainErrors.NewValidationError("email", "must be a valid email address")
	}
	if len(i.Phone) != phoneLength {
		return domainErrors.NewValidationError("phone", "must be exactly 8 digits")
	}
	if strings.TrimSpace(i.IDReference) == "" {
		return domainErrors.NewValidationError("id_reference", "is required")
	}
	if len(strings.TrimSpace(i.WhatsAppNumber)) < phoneLength {
		return domainErrors.NewValidationError("whatsapp_number", "must be at least 8 characters")
	}
	return nil
}
