package testutil

import (
	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/domain/customer"
	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// NewTestMetrics returns metrics registered against a throwaway registry so
// parallel tests never collide on the default registerer.
func NewTestMetrics() *observability.Metrics {
	return observability.NewMetrics("test", prometheus.NewRegistry())
}

func NewTestCatalog() *catalog.Catalog {
	c, err := catalog.New(catalog.DefaultPasses())
	if err != nil {
		panic(err)
	}
	return c
}

func ValidCustomer() customer.Info {
	return customer.Info{
		FirstName:      "Jean",
		LastName:       "Dupont",
		Email:          "jean@exemple.com",
		Phone:          "97000000",
		Country:        "BJ",
		IDReference:    "1029384756",
		WhatsAppNumber: "97000000",
	}
}
