// Package shophttp is the storefront REST surface. Order and admin routes sit
// behind the X-Admin-Auth owner header; catalog reads, cart quotes, the
// notification feed and promo validation are public, the latter rate limited
// per client address.
package shophttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lighthub/lighthub/internal/invoice"
	"github.com/lighthub/lighthub/internal/models"
	"github.com/lighthub/lighthub/internal/pricing"
	"github.com/lighthub/lighthub/internal/services/catalog"
	"github.com/lighthub/lighthub/internal/services/notifications"
	"github.com/lighthub/lighthub/internal/services/orders"
	"github.com/lighthub/lighthub/internal/services/promo"
	"github.com/pkg/errors"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type API struct {
	orders  *orders.Service
	promos  *promo.Service
	catalog *catalog.Service
	notifs  *notifications.Service

	rl                 RateLimiter
	promoRatePerMinute int64

	adminSecret string
}

func New(o *orders.Service, p *promo.Service, c *catalog.Service, n *notifications.Service, rl RateLimiter, promoRatePerMinute int64, adminSecret string) *API {
	if promoRatePerMinute <= 0 {
		promoRatePerMinute = 30
	}
	return &API{
		orders: o, promos: p, catalog: c, notifs: n,
		rl: rl, promoRatePerMinute: promoRatePerMinute,
		adminSecret: adminSecret,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/cart/quote", a.cartQuote)
		r.Post("/promocodes/validate", a.validatePromo)

		r.Get("/products", a.listProducts)
		r.Get("/products/{id}", a.getProduct)

		r.Get("/notifications", a.listNotifications)
		r.Post("/notifications/{id}/read", a.markNotificationRead)
		r.Post("/notifications/read-all", a.markAllNotificationsRead)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAdmin)

			r.Post("/orders", a.createOrder)
			r.Get("/orders", a.listOrders)
			r.Get("/orders/{id}", a.getOrder)
			r.Patch("/orders/{id}/status", a.patchOrderStatus)
			r.Post("/orders/{id}/cancel", a.cancelOrder)
			r.Get("/orders/{id}/invoice", a.orderInvoice)

			r.Get("/promocodes", a.listPromoCodes)
			r.Post("/promocodes", a.createPromoCode)
			r.Patch("/promocodes/{id}", a.patchPromoCode)
			r.Delete("/promocodes/{id}", a.deletePromoCode)

			r.Post("/products", a.createProduct)
			r.Put("/products/{id}", a.updateProduct)
			r.Delete("/products/{id}", a.deleteProduct)
		})
	})

	return r
}

// requireAdmin guards admin routes. A missing server-side secret is a
// deployment fault, not a client fault, hence 500 and not 403.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminSecret == "" {
			writeError(w, http.StatusInternalServerError, "admin auth is not configured")
			return
		}
		if r.Header.Get("X-Admin-Auth") != a.adminSecret {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	var in models.OrderCreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	o, err := a.orders.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	if a.notifs != nil {
		_ = a.notifs.NotifyOrderCreated(r.Context(), o)
	}
	writeJSON(w, http.StatusCreated, o)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := a.orders.List(r.Context())
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, getErr := a.orders.Get(r.Context(), id)
	if err := a.orders.Cancel(r.Context(), id); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	// Cancelling an unknown or already-terminal order stays a silent no-op,
	// so the feed entry is only raised for a real transition.
	if a.notifs != nil && getErr == nil && !models.IsTerminalStatus(o.Status) {
		_ = a.notifs.NotifyStatusChanged(r.Context(), id, o.OrderNumber, models.OrderStatusCancelled)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) patchOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := a.orders.AdvanceStatus(r.Context(), chi.URLParam(r, "id"), in.Status, in.Message); err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) orderInvoice(w http.ResponseWriter, r *http.Request) {
	o, err := a.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	html, err := invoice.Render(o)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render invoice")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (a *API) cartQuote(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items []models.OrderItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	writeJSON(w, http.StatusOK, pricing.Cart(in.Items))
}

func (a *API) validatePromo(w http.ResponseWriter, r *http.Request) {
	if a.rl != nil {
		key := fmt.Sprintf("rl:promo:%s", clientAddr(r))
		allowed, _, err := a.rl.Allow(r.Context(), key, a.promoRatePerMinute, time.Minute)
		if err == nil && !allowed {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
	}

	var in struct {
		Code        string `json:"code"`
		OrderAmount int64  `json:"orderAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	res, err := a.promos.Validate(r.Context(), in.Code, in.OrderAmount)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) listPromoCodes(w http.ResponseWriter, r *http.Request) {
	out, err := a.promos.List(r.Context())
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createPromoCode(w http.ResponseWriter, r *http.Request) {
	var in models.PromoCode
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	p, err := a.promos.Create(r.Context(), &in)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) patchPromoCode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsActive *bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.IsActive == nil {
		writeError(w, http.StatusBadRequest, "isActive is required")
		return
	}
	if err := a.promos.SetActive(r.Context(), chi.URLParam(r, "id"), *in.IsActive); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deletePromoCode(w http.ResponseWriter, r *http.Request) {
	if err := a.promos.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	out, err := a.catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := a.catalog.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var in models.Product
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	p, err := a.catalog.Create(r.Context(), &in)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var in models.Product
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	in.ID = id
	if err := a.catalog.Update(r.Context(), &in); err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := a.catalog.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	out, err := a.notifs.List(r.Context())
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	unread, err := a.notifs.UnreadCount(r.Context())
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": out,
		"unreadCount":   unread,
	})
}

func (a *API) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := a.notifs.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := a.notifs.MarkAllRead(r.Context()); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceError maps the domain sentinels; anything else gets fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback int) {
	switch {
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrPromoCodeNotFound),
		errors.Is(err, models.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrPromoNotEligible):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrPromoCodeExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		writeError(w, fallback, err.Error())
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
