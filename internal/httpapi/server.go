package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает chi-роутер с базовыми middleware и маршрутами API.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/login", h.login)

		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/{id}", h.getProduct)

		r.Get("/stock/{productID}", h.getStock)
		r.Put("/stock/{productID}/{size}", h.setStock)
		r.Post("/stock/{productID}/{size}/increase", h.increaseStock)

		r.Post("/members", h.createMember)
		r.Get("/members", h.listMembers)

		r.Get("/reports/summary", h.reportSummary)
		r.Get("/reports/products", h.reportProducts)
		r.Get("/discount-rate", h.discountRate)
	})

	return r
}
