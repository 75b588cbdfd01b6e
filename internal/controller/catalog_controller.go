package controller

import (
	"net/http"

	"github.com/finadigital/wifipass/internal/infrastructure/config"
	"github.com/finadigital/wifipass/internal/service"
)

type CatalogController struct {
	storefront *service.Storefront
	currency   string
}

func NewCatalogController(storefront *service.Storefront, cfg config.CheckoutConfig) *CatalogController {
	return &CatalogController{storefront: storefront, currency: cfg.Currency}
}

func (h *CatalogController) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PassListResponse{
		Passes:   h.storefront.Passes(),
		Currency: h.currency,
	})
}
