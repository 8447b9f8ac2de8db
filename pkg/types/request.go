package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// ForwardRequest is the per-call input of a fee and buyback notification.
// It is never persisted.
type ForwardRequest struct {
	Token            common.Address
	TotalAmount      *big.Int
	FeeAmount        *big.Int
	BuybackAmount    *big.Int
	MinBuybackOutput *big.Int
	RecipientPool    common.Address
}

// Total returns TotalAmount, or FeeAmount+BuybackAmount when it is nil.
// An explicit zero is a real total.
func (r ForwardRequest) Total() *big.Int {
	if r.TotalAmount != nil {
		return new(big.Int).Set(r.TotalAmount)
	}
	return r.Pulled()
}

// Pulled is the amount actually taken from the caller.
func (r ForwardRequest) Pulled() *big.Int {
	return new(big.Int).Add(OrZero(r.FeeAmount), OrZero(r.BuybackAmount))
}

type ForwardResult struct {
	ID            uuid.UUID
	FeeOutput     *big.Int
	BuybackOutput *big.Int
}

// OrZero maps a nil amount to zero.
func OrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return amount
}
