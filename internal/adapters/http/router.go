package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/ports"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/posts", handler.listPosts)
		r.Get("/pools", handler.listPools)
		r.Get("/pools/{pool_id}", handler.getPool)
		r.Get("/pools/{pool_id}/quote", handler.quote)
		r.Get("/pools/{pool_id}/trades", handler.listTrades)
		r.Get("/pools/{pool_id}/candles", handler.candles)
		r.Get("/treasury", handler.getTreasury)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/posts", handler.createPost)
			r.Post("/pools", handler.createPool)
			r.Post("/pools/{pool_id}/buy", handler.buy)
			r.Post("/pools/{pool_id}/sell", handler.sell)
			r.Post("/pools/{pool_id}/release", handler.release)
			r.Get("/holdings/me", handler.myHoldings)
			r.Get("/custody/me", handler.myCustody)
			r.Post("/treasury/withdrawals", handler.withdrawTreasury)
			r.Post("/admin/custody/credits", handler.creditCustody)
		})
	})

	return r
}
