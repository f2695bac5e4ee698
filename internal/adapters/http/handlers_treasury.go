package http

import (
	"net/http"

	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/contracts"
)

func (h *Handler) getTreasury(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetTreasury(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "get_treasury", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.TreasuryResponse{
		Admin:   view.Treasury.Admin,
		Account: view.Treasury.Account,
		Balance: view.Balance,
	})
}

func (h *Handler) withdrawTreasury(w http.ResponseWriter, r *http.Request) {
	var req contracts.WithdrawTreasuryRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "withdraw_treasury", err)
		return
	}
	res, err := h.service.WithdrawTreasury(r.Context(), actorFromRequest(r), application.WithdrawInput{
		Recipient: req.Recipient,
		Amount:    req.Amount,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "withdraw_treasury", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.WithdrawalResponse{
		Recipient: res.Withdrawal.Recipient,
		Amount:    res.Withdrawal.Amount,
		Balance:   res.TreasuryBalance,
	})
}

func (h *Handler) creditCustody(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreditCustodyRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "credit_custody", err)
		return
	}
	res, err := h.service.CreditCustody(r.Context(), actorFromRequest(r), application.CreditInput{
		Subject: req.Subject,
		Amount:  req.Amount,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "credit_custody", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.BalanceResponse{Account: res.Account, Balance: res.Balance})
}

func (h *Handler) myCustody(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.MyCustodyBalance(r.Context(), actorFromRequest(r))
	if err != nil {
		writeMappedError(r.Context(), w, "my_custody", err)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.BalanceResponse{Account: res.Account, Balance: res.Balance})
}

func (h *Handler) myHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.MyHoldings(r.Context(), actorFromRequest(r))
	if err != nil {
		writeMappedError(r.Context(), w, "my_holdings", err)
		return
	}
	out := make([]contracts.HoldingResponse, 0, len(holdings))
	for _, hd := range holdings {
		out = append(out, toHoldingResponse(hd))
	}
	writeSuccess(w, http.StatusOK, out)
}
