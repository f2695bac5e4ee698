package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/contracts"
	"github.com/viralforge/trender/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.GetTreasury(r.Context()); err != nil {
		if errors.Is(err, domain.ErrTreasuryNotInitialized) {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "treasury is not initialized")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "ledger store unavailable")
		return
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		claims, err := h.verifier.Verify(raw)
		if err != nil {
			logHTTPOperationError(r.Context(), "auth_middleware", http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token", err)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) createPool(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreatePoolRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_pool", err)
		return
	}
	deposit, err := parseAmount("deposit", req.Deposit, true)
	if err != nil {
		writeValidationError(r.Context(), w, "create_pool", err)
		return
	}
	pool, err := h.service.CreatePool(r.Context(), actorFromRequest(r), application.CreatePoolInput{
		PostID:  req.PostID,
		Deposit: deposit,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "create_pool", err)
		return
	}
	h.writePool(w, r, "create_pool", http.StatusCreated, pool)
}

func (h *Handler) listPools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pools, err := h.service.ListPools(r.Context(), application.ListPoolsInput{
		Creator: q.Get("creator"),
		Sort:    q.Get("sort"),
		Limit:   parseIntDefault(q.Get("limit"), 0),
		Offset:  parseIntDefault(q.Get("offset"), 0),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_pools", err)
		return
	}
	views, err := h.service.PoolViews(r.Context(), pools)
	if err != nil {
		writeMappedError(r.Context(), w, "list_pools", err)
		return
	}
	out := make([]contracts.PoolResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toPoolViewResponse(v))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.GetPool(r.Context(), chi.URLParam(r, "pool_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_pool", err)
		return
	}
	h.writePool(w, r, "get_pool", http.StatusOK, pool)
}

// writePool writes one pool with its post attached.
func (h *Handler) writePool(w http.ResponseWriter, r *http.Request, operation string, status int, pool domain.Pool) {
	views, err := h.service.PoolViews(r.Context(), []domain.Pool{pool})
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, status, toPoolViewResponse(views[0]))
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "pool_id")
	amount, err := parseAmount("amount", r.URL.Query().Get("amount"), true)
	if err != nil {
		writeValidationError(r.Context(), w, "quote", err)
		return
	}
	side := domain.TradeSide(r.URL.Query().Get("side"))
	if side == "" {
		side = domain.SideBuy
	}
	q, err := h.service.Quote(r.Context(), poolID, side, amount)
	if err != nil {
		writeMappedError(r.Context(), w, "quote", err)
		return
	}
	writeSuccess(w, http.StatusOK, toQuoteResponse(poolID, q))
}
