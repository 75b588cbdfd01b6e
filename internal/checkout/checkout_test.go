package checkout

import (
	"testing"

	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/domain/customer"
	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/finadigital/wifipass/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *Builder {
	return NewBuilder(config.CheckoutConfig{
		PublicKey:      "pk_test_abc",
		Currency:       "XOF",
		DefaultCountry: "BJ",
	})
}

func testInfo() customer.Info {
	return customer.Info{
		FirstName:      "Jean",
		LastName:       "Dupont",
		Email:          "jean@exemple.com",
		Phone:          "97000000",
		Country:        "BJ",
		IDReference:    "1029384756",
		WhatsAppNumber: "97111111",
	}
}

func TestBuild_WidgetConfigShape(t *testing.T) {
	pass := catalog.Pass{ID: "pass-150", Price: 150, Label: "Social Pass"}

	cfg, err := testBuilder().Build(pass, testInfo())
	require.NoError(t, err)

	assert.Equal(t, "pk_test_abc", cfg.PublicKey)
	assert.Equal(t, int64(150), cfg.Transaction.Amount)
	assert.Equal(t, "WiFi Fina Digital: Social Pass | ID: 1029384756 | WA: 97111111", cfg.Transaction.Description)
	assert.Equal(t, "Jean", cfg.Customer.FirstName)
	assert.Equal(t, "97000000", cfg.Customer.PhoneNumber.Number)
	assert.Equal(t, "BJ", cfg.Customer.PhoneNumber.Country)
}

func TestBuild_RejectsInvalidCustomer(t *testing.T) {
	info := testInfo()
	info.IDReference = "  "

	_, err := testBuilder().Build(catalog.Pass{ID: "p", Price: 100, Label: "X"}, info)
	var ve *domainErrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "id_reference", ve.Field)
}

func TestBuild_DefaultCountryApplied(t *testing.T) {
	info := testInfo()
	info.Country = ""

	cfg, err := testBuilder().Build(catalog.Pass{ID: "p", Price: 100, Label: "X"}, info)
	require.NoError(t, err)
	assert.Equal(t, "BJ", cfg.Customer.PhoneNumber.Country)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ResultApproved, Classify("approved"))
	assert.Equal(t, ResultCanceled, Classify("canceled"))
	assert.Equal(t, ResultDeclined, Classify("declined"))
	assert.Equal(t, ResultDeclined, Classify("pending"))
	assert.Equal(t, ResultDeclined, Classify(""))
}
