package domain

import (
	"fmt"
	"time"
)

// Transfer is one custody leg. Legs are applied in order and every leg must
// succeed for the transition to commit.
type Transfer struct {
	From   string
	To     string
	Amount uint64
}

// Transition is the full effect of one ledger operation, computed without
// mutating any stored record.
type Transition struct {
	Pool      Pool
	Holding   *Holding
	Transfers []Transfer
	Trade     *Trade
	Fee       uint64
}

// Quote is the read-only price of a trade. Net is what the caller pays on a
// buy and what the caller receives on a sell or release.
type Quote struct {
	Side         TradeSide
	HypeAmount   Amount
	Value        Amount
	Fee          Amount
	Net          Amount
	PerUnitPrice Amount
}

type OpenPoolInput struct {
	Creator string
	PostID  uint64
	Deposit Amount
	Now     time.Time
}

func OpenPool(in OpenPoolInput) (Transition, error) {
	creator, err := NormalizeIdentity(in.Creator)
	if err != nil {
		return Transition{}, err
	}
	if in.Deposit.IsZero() {
		return Transition{}, ErrInvalidDepositAmount
	}
	deposit, err := in.Deposit.Uint64()
	if err != nil {
		return Transition{}, err
	}
	feeAmount, err := DepositFee(in.Deposit)
	if err != nil {
		return Transition{}, err
	}
	fee, err := feeAmount.Uint64()
	if err != nil {
		return Transition{}, err
	}
	reservedHype, err := in.Deposit.Mul(NewAmount(HypePerBaseUnit))
	if err != nil {
		return Transition{}, err
	}
	creatorSeed, err := reservedHype.Div(NewAmount(CreatorSeedDivisor))
	if err != nil {
		return Transition{}, err
	}

	pool := Pool{
		PoolID:             PoolAddress(creator, in.PostID),
		Creator:            creator,
		PostID:             in.PostID,
		VaultID:            VaultAddress(creator, in.PostID),
		ReservedBase:       in.Deposit,
		ReservedHype:       reservedHype,
		TotalHype:          creatorSeed,
		CreatorHypeBalance: creatorSeed,
		CreatedAt:          in.Now,
		UpdatedAt:          in.Now,
	}
	if err := pool.CheckInvariants(); err != nil {
		return Transition{}, err
	}
	return Transition{
		Pool: pool,
		Transfers: legs(
			Transfer{From: UserAccount(creator), To: pool.VaultAccount(), Amount: deposit},
			Transfer{From: UserAccount(creator), To: TreasuryAccount, Amount: fee},
		),
		Fee: fee,
	}, nil
}

func QuoteBuy(pool Pool, hypeAmount Amount) (Quote, error) {
	if hypeAmount.LessThan(NewAmount(MinBuyHype)) {
		return Quote{}, ErrInvalidHypeAmount
	}
	if !hypeAmount.LessThan(pool.ReservedHype) {
		return Quote{}, ErrInsufficientHypeReserve
	}
	cost, err := PriceForPurchase(pool.ReservedBase, pool.ReservedHype, hypeAmount)
	if err != nil {
		return Quote{}, err
	}
	fee, err := TradeFee(cost)
	if err != nil {
		return Quote{}, err
	}
	total, err := cost.Add(fee)
	if err != nil {
		return Quote{}, err
	}
	return newQuote(SideBuy, hypeAmount, cost, fee, total)
}

// QuoteSell prices a sale against the pool only; the seller's balance is
// checked by Sell.
func QuoteSell(pool Pool, hypeAmount Amount) (Quote, error) {
	if hypeAmount.LessThan(NewAmount(MinSellHype)) {
		return Quote{}, ErrInvalidHypeAmount
	}
	refund, err := RefundForSale(pool.ReservedBase, pool.ReservedHype, hypeAmount)
	if err != nil {
		return Quote{}, err
	}
	if pool.ReservedBase.LessThan(refund) {
		return Quote{}, ErrInsufficientBaseReserve
	}
	fee, err := TradeFee(refund)
	if err != nil {
		return Quote{}, err
	}
	net, err := refund.Sub(fee)
	if err != nil {
		return Quote{}, err
	}
	return newQuote(SideSell, hypeAmount, refund, fee, net)
}

// QuoteRelease prices a creator release. Releases use the purchase formula
// and carry no fee.
func QuoteRelease(pool Pool, hypeAmount Amount) (Quote, error) {
	if hypeAmount.IsZero() {
		return Quote{}, ErrInvalidHypeAmount
	}
	if hypeAmount.GreaterThan(pool.CreatorHypeBalance) {
		return Quote{}, ErrInsufficientHypeBalance
	}
	refund, err := PriceForPurchase(pool.ReservedBase, pool.ReservedHype, hypeAmount)
	if err != nil {
		return Quote{}, err
	}
	if pool.ReservedBase.LessThan(refund) {
		return Quote{}, ErrInsufficientBaseReserve
	}
	return newQuote(SideRelease, hypeAmount, refund, Amount{}, refund)
}

func newQuote(side TradeSide, hypeAmount, value, fee, net Amount) (Quote, error) {
	perUnit, err := value.Div(hypeAmount)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Side: side, HypeAmount: hypeAmount, Value: value, Fee: fee, Net: net, PerUnitPrice: perUnit}, nil
}

// Buy moves hypeAmount from the pool reserve into the buyer's holding.
// holding is nil when the buyer has never held this pool.
func Buy(pool Pool, holding *Holding, buyer string, hypeAmount, maxAcceptablePrice Amount, now time.Time) (Transition, error) {
	buyer, err := NormalizeIdentity(buyer)
	if err != nil {
		return Transition{}, err
	}
	q, err := QuoteBuy(pool, hypeAmount)
	if err != nil {
		return Transition{}, err
	}
	if q.Value.GreaterThan(maxAcceptablePrice) {
		return Transition{}, fmt.Errorf("%w: cost %s above max %s", ErrSlippageExceeded, q.Value, maxAcceptablePrice)
	}
	amount, cost, fee, perUnit, err := boundary(hypeAmount, q)
	if err != nil {
		return Transition{}, err
	}

	next := pool
	if next.ReservedBase, err = pool.ReservedBase.Add(q.Value); err != nil {
		return Transition{}, err
	}
	if next.ReservedHype, err = pool.ReservedHype.Sub(hypeAmount); err != nil {
		return Transition{}, err
	}
	if next.TotalHype, err = pool.TotalHype.Add(hypeAmount); err != nil {
		return Transition{}, err
	}
	next.UpdatedAt = now
	if err := next.CheckInvariants(); err != nil {
		return Transition{}, err
	}

	var h Holding
	if holding == nil {
		h = Holding{
			HoldingID: HoldingAddress(buyer, pool.PoolID),
			User:      buyer,
			PoolID:    pool.PoolID,
			CreatedAt: now,
		}
	} else {
		if holding.User != buyer || holding.PoolID != pool.PoolID {
			return Transition{}, ErrUnauthorized
		}
		h = *holding
	}
	if h.Amount, err = h.Amount.Add(hypeAmount); err != nil {
		return Transition{}, err
	}
	h.UpdatedAt = now

	return Transition{
		Pool:    next,
		Holding: &h,
		Transfers: legs(
			Transfer{From: UserAccount(buyer), To: pool.VaultAccount(), Amount: cost},
			Transfer{From: UserAccount(buyer), To: TreasuryAccount, Amount: fee},
		),
		Trade: &Trade{
			Side: SideBuy, PoolID: pool.PoolID, PostID: pool.PostID, User: buyer,
			Amount: amount, PerUnitPrice: perUnit, TotalValue: cost, Fee: fee, OccurredAt: now,
		},
		Fee: fee,
	}, nil
}

// Sell returns hypeAmount from the seller's holding to the pool reserve.
func Sell(pool Pool, holding Holding, seller string, hypeAmount, minAcceptableRefund Amount, now time.Time) (Transition, error) {
	seller, err := NormalizeIdentity(seller)
	if err != nil {
		return Transition{}, err
	}
	if holding.User != seller {
		return Transition{}, ErrUnauthorized
	}
	if holding.PoolID != pool.PoolID {
		return Transition{}, fmt.Errorf("%w: holding belongs to another pool", ErrInvalidInput)
	}
	if hypeAmount.LessThan(NewAmount(MinSellHype)) {
		return Transition{}, ErrInvalidHypeAmount
	}
	if holding.Amount.LessThan(hypeAmount) {
		return Transition{}, ErrInsufficientHypeBalance
	}
	q, err := QuoteSell(pool, hypeAmount)
	if err != nil {
		return Transition{}, err
	}
	if q.Value.LessThan(minAcceptableRefund) {
		return Transition{}, fmt.Errorf("%w: refund %s below min %s", ErrSlippageExceeded, q.Value, minAcceptableRefund)
	}
	amount, refund, fee, perUnit, err := boundary(hypeAmount, q)
	if err != nil {
		return Transition{}, err
	}
	payout := refund - fee

	next := pool
	if next.ReservedBase, err = pool.ReservedBase.Sub(q.Value); err != nil {
		return Transition{}, err
	}
	if next.ReservedHype, err = pool.ReservedHype.Add(hypeAmount); err != nil {
		return Transition{}, err
	}
	if next.TotalHype, err = pool.TotalHype.Sub(hypeAmount); err != nil {
		return Transition{}, err
	}
	next.UpdatedAt = now
	if err := next.CheckInvariants(); err != nil {
		return Transition{}, err
	}

	h := holding
	if h.Amount, err = holding.Amount.Sub(hypeAmount); err != nil {
		return Transition{}, err
	}
	h.UpdatedAt = now

	return Transition{
		Pool:    next,
		Holding: &h,
		Transfers: legs(
			Transfer{From: pool.VaultAccount(), To: UserAccount(seller), Amount: payout},
			Transfer{From: pool.VaultAccount(), To: TreasuryAccount, Amount: fee},
		),
		Trade: &Trade{
			Side: SideSell, PoolID: pool.PoolID, PostID: pool.PostID, User: seller,
			Amount: amount, PerUnitPrice: perUnit, TotalValue: refund, Fee: fee, OccurredAt: now,
		},
		Fee: fee,
	}, nil
}

// Release lets the creator sell from the seeded creator balance.
func Release(pool Pool, caller string, hypeAmount Amount, now time.Time) (Transition, error) {
	caller, err := NormalizeIdentity(caller)
	if err != nil {
		return Transition{}, err
	}
	if caller != pool.Creator {
		return Transition{}, ErrUnauthorized
	}
	q, err := QuoteRelease(pool, hypeAmount)
	if err != nil {
		return Transition{}, err
	}
	amount, refund, _, perUnit, err := boundary(hypeAmount, q)
	if err != nil {
		return Transition{}, err
	}

	next := pool
	if next.CreatorHypeBalance, err = pool.CreatorHypeBalance.Sub(hypeAmount); err != nil {
		return Transition{}, err
	}
	if next.TotalHype, err = pool.TotalHype.Sub(hypeAmount); err != nil {
		return Transition{}, err
	}
	if next.ReservedBase, err = pool.ReservedBase.Sub(q.Value); err != nil {
		return Transition{}, err
	}
	if next.ReservedHype, err = pool.ReservedHype.Add(hypeAmount); err != nil {
		return Transition{}, err
	}
	next.UpdatedAt = now
	if err := next.CheckInvariants(); err != nil {
		return Transition{}, err
	}

	return Transition{
		Pool:      next,
		Transfers: legs(Transfer{From: pool.VaultAccount(), To: UserAccount(caller), Amount: refund}),
		Trade: &Trade{
			Side: SideRelease, PoolID: pool.PoolID, PostID: pool.PostID, User: caller,
			Amount: amount, PerUnitPrice: perUnit, TotalValue: refund, OccurredAt: now,
		},
	}, nil
}

// Withdraw moves fees out of the treasury. The custody layer rejects the leg
// when the treasury balance is short.
func Withdraw(treasury Treasury, caller, recipient string, amount uint64, now time.Time) (Transfer, TreasuryWithdrawal, error) {
	caller, err := NormalizeIdentity(caller)
	if err != nil {
		return Transfer{}, TreasuryWithdrawal{}, err
	}
	if caller != treasury.Admin {
		return Transfer{}, TreasuryWithdrawal{}, ErrUnauthorized
	}
	recipient, err = NormalizeIdentity(recipient)
	if err != nil {
		return Transfer{}, TreasuryWithdrawal{}, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if amount == 0 {
		return Transfer{}, TreasuryWithdrawal{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	account := treasury.Account
	if account == "" {
		account = TreasuryAccount
	}
	return Transfer{From: account, To: UserAccount(recipient), Amount: amount},
		TreasuryWithdrawal{Admin: caller, Recipient: recipient, Amount: amount, OccurredAt: now},
		nil
}

// boundary narrows a quote to the 64-bit transfer and event range.
func boundary(hypeAmount Amount, q Quote) (amount, value, fee, perUnit uint64, err error) {
	if amount, err = hypeAmount.Uint64(); err != nil {
		return 0, 0, 0, 0, err
	}
	if value, err = q.Value.Uint64(); err != nil {
		return 0, 0, 0, 0, err
	}
	if fee, err = q.Fee.Uint64(); err != nil {
		return 0, 0, 0, 0, err
	}
	if perUnit, err = q.PerUnitPrice.Uint64(); err != nil {
		return 0, 0, 0, 0, err
	}
	return amount, value, fee, perUnit, nil
}

// legs drops zero-value transfers.
func legs(transfers ...Transfer) []Transfer {
	out := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t.Amount > 0 {
			out = append(out, t)
		}
	}
	return out
}
