package domain

const (
	bpsDenominator = 10_000

	// DepositFeeBps is charged on the creator's initial deposit.
	DepositFeeBps = 200
	// TradeFeeBps is charged on buy cost and sell refund. Creator releases are free.
	TradeFeeBps = 50
)

// DepositFee is 2% of the deposit, truncated.
func DepositFee(deposit Amount) (Amount, error) {
	return bpsOf(deposit, DepositFeeBps)
}

// TradeFee is 0.5% of value, truncated.
func TradeFee(value Amount) (Amount, error) {
	return bpsOf(value, TradeFeeBps)
}

func bpsOf(value Amount, bps uint64) (Amount, error) {
	scaled, err := value.Mul(NewAmount(bps))
	if err != nil {
		return Amount{}, err
	}
	return scaled.Div(NewAmount(bpsDenominator))
}
