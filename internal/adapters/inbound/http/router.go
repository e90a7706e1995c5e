package httpin

import (
	"net/http"

	"orderpipe/internal/ports/inbound"
)

func NewMux(h *Handlers, uc inbound.OrderUseCase, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	h.Register(mux)
	mux.Handle("/metrics", metricsHandler)

	ui := NewUI(uc)
	mux.HandleFunc("/", ui.Index)
	mux.HandleFunc("/ui/order", ui.FetchOrderSSE)

	return mux
}
