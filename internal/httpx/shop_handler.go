package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/orders"
	"github.com/matikep/heladoswilson/internal/reconcile"
	"github.com/matikep/heladoswilson/internal/rtdb"
	"github.com/matikep/heladoswilson/internal/whatsapp"
)

// ShopHandler serves the customer-facing storefront: browse what is in
// stock, submit an order, hand off to WhatsApp.
type ShopHandler struct {
	Ledger         *catalog.Ledger
	Queue          *orders.Queue
	Store          rtdb.Store
	WhatsAppNumber string
}

type ProductView struct {
	catalog.Product
	Badge reconcile.StockLevel `json:"badge"`
}

type SubmitOrderReq struct {
	CustomerName string                 `json:"customer_name"`
	Items        []orders.CartItemInput `json:"items"`
}

type SubmitOrderResp struct {
	Order        orders.Order `json:"order"`
	WhatsAppLink string       `json:"whatsapp_link"`
}

func (h *ShopHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/products", h.listProducts)
		r.Post("/orders", h.submitOrder)
	})
	r.Get("/events", h.streamStock)
}

// listProducts returns only what a customer can buy: sold-out products
// are filtered, the rest carry their stock badge.
func (h *ShopHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps := h.Ledger.Products()
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		if p.Stock == 0 {
			continue
		}
		out = append(out, ProductView{Product: p, Badge: reconcile.ClassifyStock(p)})
	}
	writeJSON(w, http.StatusOK, out)
}

// submitOrder validates, appends the pending order and returns it with
// the WhatsApp deep link. The append is awaited so a failure reaches the
// customer before they navigate away.
func (h *ShopHandler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	o, err := h.Queue.Submit(r.Context(), req.CustomerName, req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitOrderResp{
		Order:        o,
		WhatsAppLink: whatsapp.Link(h.WhatsAppNumber, o),
	})
}

// streamStock forwards catalog snapshots to the browser as server-sent
// events, one event per store fan-out. The subscription is torn down
// when the client disconnects.
func (h *ShopHandler) streamStock(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	snaps, err := h.Store.Subscribe(r.Context(), rtdb.RootStock)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	for snap := range snaps {
		fmt.Fprintf(w, "data: %s\n\n", snap)
		fl.Flush()
	}
}
