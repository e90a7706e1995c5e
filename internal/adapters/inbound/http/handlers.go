package httpin

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"orderpipe/internal/core/domain"
	"orderpipe/internal/metrics"
	"orderpipe/internal/ports/inbound"
	"orderpipe/internal/ports/outbound"
	"orderpipe/internal/web"
)

type Handlers struct {
	uc        inbound.OrderUseCase
	dlq       outbound.DeadLetterSink
	mx        *metrics.Registry
	adminTmpl *template.Template
}

func NewHandlers(uc inbound.OrderUseCase, dlq outbound.DeadLetterSink, mx *metrics.Registry) *Handlers {
	t := template.Must(template.ParseFS(web.MustFS(), "admin.html"))
	return &Handlers{
		uc:        uc,
		dlq:       dlq,
		mx:        mx,
		adminTmpl: t,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/orders", h.createOrder)
	mux.HandleFunc("/events", h.submitEvent)
	mux.HandleFunc("/order/", h.getOrderByID)
	mux.HandleFunc("/admin", h.admin)
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type createOrderRequest struct {
	OrderID string `json:"orderId"`
	Item    string `json:"item"`
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON in request body", http.StatusBadRequest)
		return
	}

	order, err := h.uc.CreateOrder(r.Context(), domain.Order{OrderID: req.OrderID, Item: req.Item})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderExists):
			writeError(w, "order already exists", http.StatusConflict)
		case errors.Is(err, domain.ErrMissingField):
			writeError(w, err.Error(), http.StatusBadRequest)
		default:
			writeError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, order, http.StatusCreated)
}

// submitEvent accepts a raw inbound event envelope and runs it through
// the ingestion handler. Rejected events are forwarded to the
// dead-letter channel before the error response goes out, so an
// invalid event is never lost.
func (h *Handlers) submitEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	h.mx.EventsReceived.Inc()
	if err := h.uc.ProcessEvent(r.Context(), raw); err != nil {
		reason := domain.ReasonFor(err)
		h.mx.EventsRejected.WithLabelValues(string(reason)).Inc()

		if domain.IsPermanent(err) {
			if derr := h.dlq.Publish(r.Context(), raw, reason, 1); derr != nil {
				// The rejection has not landed anywhere yet; the caller
				// keeps the event and resubmits.
				log.Printf("[http] dead-letter publish reason=%s err=%v", reason, derr)
				writeError(w, "dead-letter channel unavailable", http.StatusServiceUnavailable)
				return
			}
			h.mx.DeadLettered.Inc()
			writeError(w, string(reason), http.StatusBadRequest)
			return
		}
		// Transient: the caller owns the retry budget on this edge.
		writeError(w, string(reason), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handlers) getOrderByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/order/")
	id = strings.TrimSpace(id)
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	order, err := h.uc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, order, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, map[string]string{"error": msg}, status)
}

type adminVM struct {
	Page     int
	PageSize int
	Total    int
	Pages    int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
	Orders   []adminOrderRow
}

type adminOrderRow struct {
	OrderID   string
	Item      string
	Status    string
	UpdatedAt string
}

func (h *Handlers) admin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := intQuery(r, "page", 1)
	size := intQuery(r, "size", 20)

	orders, total, err := h.uc.ListPage(r.Context(), page, size)
	if err != nil {
		http.Error(w, "admin error", http.StatusInternalServerError)
		return
	}

	if size <= 0 {
		size = 20
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	vm := adminVM{
		Page:     page,
		PageSize: size,
		Total:    total,
		Pages:    pages,
		HasPrev:  page > 1,
		HasNext:  page < pages,
		PrevPage: page - 1,
		NextPage: page + 1,
	}

	for _, o := range orders {
		vm.Orders = append(vm.Orders, adminOrderRow{
			OrderID:   o.OrderID,
			Item:      o.Item,
			Status:    o.Status,
			UpdatedAt: o.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.adminTmpl.Execute(w, vm); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
