package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/contracts"
)

func (h *Handler) buy(w http.ResponseWriter, r *http.Request) {
	var req contracts.BuyRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "buy", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount, true)
	if err != nil {
		writeValidationError(r.Context(), w, "buy", err)
		return
	}
	maxPrice, err := parseAmount("max_acceptable_price", req.MaxAcceptablePrice, true)
	if err != nil {
		writeValidationError(r.Context(), w, "buy", err)
		return
	}
	res, err := h.service.Buy(r.Context(), actorFromRequest(r), application.BuyInput{
		PoolID:             chi.URLParam(r, "pool_id"),
		Amount:             amount,
		MaxAcceptablePrice: maxPrice,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "buy", err)
		return
	}
	writeSuccess(w, http.StatusOK, toTradeResultResponse(res))
}

func (h *Handler) sell(w http.ResponseWriter, r *http.Request) {
	var req contracts.SellRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "sell", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount, true)
	if err != nil {
		writeValidationError(r.Context(), w, "sell", err)
		return
	}
	minRefund, err := parseAmount("min_acceptable_refund", req.MinAcceptableRefund, false)
	if err != nil {
		writeValidationError(r.Context(), w, "sell", err)
		return
	}
	res, err := h.service.Sell(r.Context(), actorFromRequest(r), application.SellInput{
		PoolID:              chi.URLParam(r, "pool_id"),
		HoldingID:           req.HoldingID,
		Amount:              amount,
		MinAcceptableRefund: minRefund,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "sell", err)
		return
	}
	writeSuccess(w, http.StatusOK, toTradeResultResponse(res))
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	var req contracts.ReleaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "release", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount, true)
	if err != nil {
		writeValidationError(r.Context(), w, "release", err)
		return
	}
	res, err := h.service.Release(r.Context(), actorFromRequest(r), application.ReleaseInput{
		PoolID: chi.URLParam(r, "pool_id"),
		Amount: amount,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "release", err)
		return
	}
	writeSuccess(w, http.StatusOK, toTradeResultResponse(res))
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.service.ListTrades(r.Context(), chi.URLParam(r, "pool_id"), parseIntDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeMappedError(r.Context(), w, "list_trades", err)
		return
	}
	out := make([]contracts.TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) candles(w http.ResponseWriter, r *http.Request) {
	interval, err := parseDurationParam("interval", r.URL.Query().Get("interval"))
	if err != nil {
		writeValidationError(r.Context(), w, "candles", err)
		return
	}
	window, err := parseDurationParam("window", r.URL.Query().Get("window"))
	if err != nil {
		writeValidationError(r.Context(), w, "candles", err)
		return
	}
	candles, err := h.service.Candles(r.Context(), application.CandlesInput{
		PoolID:   chi.URLParam(r, "pool_id"),
		Interval: interval,
		Window:   window,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "candles", err)
		return
	}
	out := make([]contracts.CandleResponse, 0, len(candles))
	for _, c := range candles {
		out = append(out, toCandleResponse(c))
	}
	writeSuccess(w, http.StatusOK, out)
}
