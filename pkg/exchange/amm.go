package exchange

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/RestinGreen/fee-forwarder/pkg/chain"
	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AMM is a set of constant-product pairs whose reserves are the pair accounts'
// ledger balances.
type AMM struct {
	router common.Address

	mu     sync.RWMutex
	pairs  map[string]*types.Pair
	paused bool
}

func NewAMM(router common.Address) *AMM {

	return &AMM{
		router: router,
		pairs:  map[string]*types.Pair{},
	}
}

func (a *AMM) Address() common.Address {
	return a.router
}

// SetPaused makes every quote and swap fail with ErrExchangeUnavailable.
func (a *AMM) SetPaused(paused bool) {
	a.mu.Lock()
	a.paused = paused
	a.mu.Unlock()
}

func getPairKey(tokenA, tokenB common.Address) string {
	token0, token1, _ := chain.SortAddress(tokenA, tokenB)
	return token0.Hex() + token1.Hex()
}

// PairFor returns the pair of two tokens, deriving its account address the
// way a factory would.
func (a *AMM) PairFor(tokenA, tokenB common.Address) (*types.Pair, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pair, exists := a.pairs[getPairKey(tokenA, tokenB)]
	return pair, exists
}

func (a *AMM) pairFor(tokenA, tokenB common.Address) *types.Pair {
	key := getPairKey(tokenA, tokenB)

	a.mu.Lock()
	defer a.mu.Unlock()
	if pair, exists := a.pairs[key]; exists {
		return pair
	}
	token0, token1, _ := chain.SortAddress(tokenA, tokenB)
	pair := &types.Pair{
		PairAddress:   common.BytesToAddress(crypto.Keccak256(a.router.Bytes(), token0.Bytes(), token1.Bytes())),
		Token0Address: token0,
		Token1Address: token1,
	}
	a.pairs[key] = pair
	return pair
}

// AddLiquidity moves both amounts from provider into the pair of tokenA and tokenB.
func (a *AMM) AddLiquidity(tx *ledger.Tx, provider, tokenA, tokenB common.Address, amountA, amountB *big.Int) error {
	if tokenA == tokenB {
		return fmt.Errorf("%w: identical tokens", ErrInvalidPath)
	}
	pair := a.pairFor(tokenA, tokenB)
	if err := tx.Transfer(tokenA, provider, pair.PairAddress, amountA); err != nil {
		return err
	}
	return tx.Transfer(tokenB, provider, pair.PairAddress, amountB)
}

// Reserves returns the reserves of tokenIn and tokenOut in their pair.
func (a *AMM) Reserves(tx *ledger.Tx, tokenIn, tokenOut common.Address) (*big.Int, *big.Int, error) {
	pair, exists := a.PairFor(tokenIn, tokenOut)
	if !exists {
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrNoPair, tokenIn.Hex(), tokenOut.Hex())
	}
	return tx.BalanceOf(tokenIn, pair.PairAddress), tx.BalanceOf(tokenOut, pair.PairAddress), nil
}

func (a *AMM) GetAmountsOut(tx *ledger.Tx, amountIn *big.Int, path types.RoutePath) ([]*big.Int, error) {
	a.mu.RLock()
	paused := a.paused
	a.mu.RUnlock()
	if paused {
		return nil, ErrExchangeUnavailable
	}
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}

	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := a.Reserves(tx, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		amounts[i+1], err = GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

// SwapExactTokensForTokens pulls amountIn from trader using the allowance given
// to the router and sends the last hop's output to `to`.
func (a *AMM) SwapExactTokensForTokens(tx *ledger.Tx, amountIn, amountOutMin *big.Int, path types.RoutePath, trader, to common.Address) ([]*big.Int, error) {
	amounts, err := a.GetAmountsOut(tx, amountIn, path)
	if err != nil {
		return nil, err
	}
	if amountOutMin != nil && amounts[len(amounts)-1].Cmp(amountOutMin) < 0 {
		return nil, fmt.Errorf("%w: output %s below minimum %s", ErrSlippageExceeded, amounts[len(amounts)-1], amountOutMin)
	}

	first, _ := a.PairFor(path[0], path[1])
	if err := tx.TransferFrom(path[0], a.router, trader, first.PairAddress, amountIn); err != nil {
		return nil, err
	}
	for i := 0; i < len(path)-1; i++ {
		pair, _ := a.PairFor(path[i], path[i+1])
		recipient := to
		if i < len(path)-2 {
			next, _ := a.PairFor(path[i+1], path[i+2])
			recipient = next.PairAddress
		}
		if err := tx.Transfer(path[i+1], pair.PairAddress, recipient, amounts[i+1]); err != nil {
			return nil, err
		}
	}
	return amounts, nil
}
