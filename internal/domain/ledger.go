package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// HypePerBaseUnit sets the initial hype reserve relative to the deposit.
	HypePerBaseUnit = 10
	// CreatorSeedDivisor gives the creator 1/10 of the initial hype reserve.
	CreatorSeedDivisor = 10

	MinBuyHype  = 1_000_000
	MinSellHype = 1_000_000

	TreasuryAccount = "treasury"
)

// addressNamespace scopes every deterministic ledger address.
var addressNamespace = uuid.MustParse("6f1d2c8e-3b7a-5e49-9a0c-2d4e8f7b1a63")

type Treasury struct {
	Admin     string
	Account   string
	CreatedAt time.Time
}

type Pool struct {
	PoolID             string
	Creator            string
	PostID             uint64
	VaultID            string
	ReservedBase       Amount
	ReservedHype       Amount
	TotalHype          Amount
	CreatorHypeBalance Amount
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VaultAccount is the custody handle that holds the pool's base reserve.
func (p Pool) VaultAccount() string { return VaultAccount(p.VaultID) }

// CheckInvariants validates the pool after a transition.
func (p Pool) CheckInvariants() error {
	if p.CreatorHypeBalance.GreaterThan(p.TotalHype) {
		return fmt.Errorf("%w: creator balance %s exceeds total hype %s", ErrInvariantViolated, p.CreatorHypeBalance, p.TotalHype)
	}
	return nil
}

type Holding struct {
	HoldingID string
	User      string
	PoolID    string
	Amount    Amount
	CreatedAt time.Time
	UpdatedAt time.Time
}

func PoolAddress(creator string, postID uint64) string {
	return address(fmt.Sprintf("post:%s:%d", creator, postID))
}

func VaultAddress(creator string, postID uint64) string {
	return address(fmt.Sprintf("vault:%s:%d", creator, postID))
}

func HoldingAddress(user, poolID string) string {
	return address("hype_record:" + user + ":" + poolID)
}

func address(seed string) string {
	return uuid.NewSHA1(addressNamespace, []byte(seed)).String()
}

func UserAccount(subject string) string { return "user:" + subject }

func VaultAccount(vaultID string) string { return "vault:" + vaultID }

// NormalizeIdentity trims an identity and rejects empty values.
func NormalizeIdentity(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrUnauthorized
	}
	return id, nil
}
