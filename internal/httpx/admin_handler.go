package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matikep/heladoswilson/internal/auth"
	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/orders"
	"github.com/matikep/heladoswilson/internal/reconcile"
)

// AdminHandler serves the operator screens: stock management and order
// review. Everything is behind the sign-in gate.
type AdminHandler struct {
	Ledger *catalog.Ledger
	Queue  *orders.Queue
	Gate   *auth.Gate
}

type AddProductReq struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
	Icon  string `json:"icon"`
	Stock int    `json:"stock"`
}

type UpdateProductReq struct {
	Name  *string `json:"name"`
	Price *int    `json:"price"`
	Icon  *string `json:"icon"`
	Stock *int    `json:"stock"`
}

type SetStockReq struct {
	Stock int `json:"stock"`
}

// OrderView decorates an order with its recomputed arrival sequence
// number for display.
type OrderView struct {
	orders.Order
	Seq int `json:"seq"`
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(h.Gate.Middleware)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.addProduct)
		r.Patch("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.removeProduct)
		r.Put("/products/{id}/stock", h.setStock)
		r.Post("/stock/reset", h.resetStock)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/groups", h.groupOrders)
		r.Post("/orders/{id}/confirm", h.confirmOrder)
		r.Post("/orders/{id}/reject", h.rejectOrder)
		r.Delete("/orders/{id}", h.removeOrder)
		r.Delete("/orders", h.removeAllOrders)
	})
}

func productID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps := h.Ledger.Products()
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ProductView{Product: p, Badge: reconcile.ClassifyStock(p)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	p, err := h.Ledger.Add(r.Context(), catalog.Product{
		Name:  req.Name,
		Price: req.Price,
		Icon:  req.Icon,
		Stock: req.Stock,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	var req UpdateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	f := catalog.Fields{Name: req.Name, Price: req.Price, Icon: req.Icon, Stock: req.Stock}
	if err := h.Ledger.Update(r.Context(), id, f); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	if !requireConfirm(w, r) {
		return
	}
	if err := h.Ledger.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *AdminHandler) setStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	var req SetStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.Ledger.SetStock(r.Context(), id, req.Stock); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) resetStock(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	if err := h.Ledger.ResetAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// listOrders returns the queue newest-first, each order labelled with
// its arrival sequence number.
func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	os := h.Queue.List()
	seq := reconcile.SequenceNumbers(os)
	out := make([]OrderView, 0, len(os))
	for _, o := range os {
		out = append(out, OrderView{Order: o, Seq: seq[o.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) groupOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reconcile.GroupOrders(h.Queue.List(), time.Now()))
}

func (h *AdminHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	o, err := h.Queue.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) rejectOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Queue.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) removeOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Queue.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *AdminHandler) removeAllOrders(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r) {
		return
	}
	if err := h.Queue.RemoveAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
