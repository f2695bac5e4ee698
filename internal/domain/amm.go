package domain

// PriceForPurchase returns the base cost of removing hypeAmount from the hype
// reserve while holding k = reservedBase * reservedHype. The new base reserve
// is k / (reservedHype - hypeAmount) truncated.
func PriceForPurchase(reservedBase, reservedHype, hypeAmount Amount) (Amount, error) {
	if hypeAmount.IsZero() {
		return Amount{}, ErrInvalidHypeAmount
	}
	if !hypeAmount.LessThan(reservedHype) {
		return Amount{}, ErrInsufficientHypeReserve
	}
	k, err := reservedBase.Mul(reservedHype)
	if err != nil {
		return Amount{}, err
	}
	newHype, err := reservedHype.Sub(hypeAmount)
	if err != nil {
		return Amount{}, err
	}
	newBase, err := k.Div(newHype)
	if err != nil {
		return Amount{}, err
	}
	return newBase.Sub(reservedBase)
}

// RefundForSale returns the base amount released from the reserve when
// hypeAmount is added back to the hype reserve under the same k.
// Callers still check reservedBase >= refund before applying it.
func RefundForSale(reservedBase, reservedHype, hypeAmount Amount) (Amount, error) {
	if hypeAmount.IsZero() {
		return Amount{}, ErrInvalidHypeAmount
	}
	k, err := reservedBase.Mul(reservedHype)
	if err != nil {
		return Amount{}, err
	}
	newHype, err := reservedHype.Add(hypeAmount)
	if err != nil {
		return Amount{}, err
	}
	newBase, err := k.Div(newHype)
	if err != nil {
		return Amount{}, err
	}
	return reservedBase.Sub(newBase)
}
