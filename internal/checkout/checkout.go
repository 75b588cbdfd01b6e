package checkout

import (
	"fmt"

	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/domain/customer"
	"github.com/finadigital/wifipass/internal/infrastructure/config"
)

// WidgetConfig is the configuration object handed to the hosted payment
// widget in the page. The widget owns the whole payment exchange; this
// service only arms it and waits for its completion callback.
type WidgetConfig struct {
	PublicKey   string            `json:"public_key"`
	Transaction WidgetTransaction `json:"transaction"`
	Customer    WidgetCustomer    `json:"customer"`
}

type WidgetTransaction struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type WidgetCustomer struct {
	FirstName   string      `json:"firstname"`
	LastName    string      `json:"lastname"`
	Email       string      `json:"email"`
	PhoneNumber WidgetPhone `json:"phone_number"`
}

type WidgetPhone struct {
	Number  string `json:"number"`
	Country string `json:"country"`
}

// Builder assembles widget configurations from validated checkout input.
type Builder struct {
	cfg config.CheckoutConfig
}

func NewBuilder(cfg config.CheckoutConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build issues the widget configuration for one checkout attempt. The
// identity reference and WhatsApp contact travel in the transaction
// description so the upstream workflow can read them off the payment.
func (b *Builder) Build(pass catalog.Pass, info customer.Info) (WidgetConfig, error) {
	if err := info.Validate(); err != nil {
		return WidgetConfig{}, err
	}

	country := info.Country
	if country == "" {
		country = b.cfg.DefaultCountry
	}

	return WidgetConfig{
		PublicKey: b.cfg.PublicKey,
		Transaction: WidgetTransaction{
			Amount: pass.Price,
			Description: fmt.Sprintf("WiFi Fina Digital: %s | ID: %s | WA: %s",
				pass.Label, info.IDReference, info.WhatsAppNumber),
		},
		Customer: WidgetCustomer{
			FirstName: info.FirstName,
			LastName:  info.LastName,
			Email:     info.Email,
			PhoneNumber: WidgetPhone{
				Number:  info.Phone,
				Country: country,
			},
		},
	}, nil
}

// Result classifies a widget completion callback.
type Result string

const (
	ResultApproved Result = "approved"
	ResultCanceled Result = "canceled"
	ResultDeclined Result = "declined"
)

// Classify maps the widget's transaction status to a result. Approval and
// visitor cancellation are the only named statuses; everything else is a
// recoverable decline.
func Classify(status string) Result {
	switch status {
	case "approved":
		return ResultApproved
	case "canceled":
		return ResultCanceled
	default:
		return ResultDeclined
	}
}
