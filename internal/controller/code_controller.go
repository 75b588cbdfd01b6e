package controller

import (
	"net/http"

	"github.com/finadigital/wifipass/internal/infrastructure/config"
	"github.com/finadigital/wifipass/internal/service"
)

// CodeController serves the sessionless manual lookup behind the footer
// link. One upstream request per call, no retry budget.
type CodeController struct {
	storefront *service.Storefront
	portal     config.PortalConfig
}

func NewCodeController(storefront *service.Storefront, portal config.PortalConfig) *CodeController {
	return &CodeController{storefront: storefront, portal: portal}
}

func (h *CodeController) Lookup(w http.ResponseWriter, r *http.Request) {
	var req ManualLookupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.storefront.ManualLookup(r.Context(), req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromOutcome(out, h.portal))
}
