package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Pair is a liquidity pair of an exchange. Reserves are not cached here, they
// are the pair account's balances on the ledger.
type Pair struct {
	PairAddress   common.Address
	Token0Address common.Address
	Token1Address common.Address
}
