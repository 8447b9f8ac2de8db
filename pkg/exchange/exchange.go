// Package exchange defines the swap capability the forwarder converts fees
// through, and a constant-product implementation that lives on the ledger.
package exchange

import (
	"errors"
	"math/big"

	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrExchangeUnavailable   = errors.New("exchange unavailable")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrNoPair                = errors.New("no pair for hop")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidPath           = errors.New("invalid path")
	ErrInsufficientInput     = errors.New("insufficient input amount")
)

// Exchange is shaped like a UniswapV2 router. Both calls run inside the
// caller's ledger transaction.
type Exchange interface {
	// Address is the account the trader approves before swapping.
	Address() common.Address
	GetAmountsOut(tx *ledger.Tx, amountIn *big.Int, path types.RoutePath) ([]*big.Int, error)
	SwapExactTokensForTokens(tx *ledger.Tx, amountIn, amountOutMin *big.Int, path types.RoutePath, trader, to common.Address) ([]*big.Int, error)
}

// GetAmountOut is the UniswapV2 output formula with the 0.3% fee.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(1000))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}
