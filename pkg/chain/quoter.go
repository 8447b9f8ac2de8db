package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/RestinGreen/fee-forwarder/pkg/binding"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// maxInflightCalls bounds concurrent eth_calls during a fan-out.
const maxInflightCalls = 8

type Quote struct {
	Route   types.Route
	Amounts []*big.Int
	Err     error
}

func (q Quote) Output() *big.Int {
	if len(q.Amounts) == 0 {
		return new(big.Int)
	}
	return q.Amounts[len(q.Amounts)-1]
}

// Quoter prices configured routes against live UniswapV2 routers.
type Quoter struct {
	binding *binding.Binding
}

func NewQuoter(binding *binding.Binding) *Quoter {

	return &Quoter{binding: binding}
}

func (q *Quoter) Quote(ctx context.Context, route types.Route, amountIn *big.Int) (Quote, error) {
	router := q.binding.RouterContract(route.Exchange.Router)
	amounts, err := router.GetAmountsOut(&bind.CallOpts{Context: ctx}, amountIn, route.Path)
	if err != nil {
		return Quote{Route: route, Err: err}, fmt.Errorf("failed to quote %s on %s: %w", route.Path, route.Exchange, err)
	}
	return Quote{Route: route, Amounts: amounts}, nil
}

// QuoteAll prices every route with the same input. Per-route failures are
// reported in Quote.Err, only context cancellation aborts the batch.
func (q *Quoter) QuoteAll(ctx context.Context, routes []types.Route, amountIn *big.Int) ([]Quote, error) {
	quotes := make([]Quote, len(routes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflightCalls)
	for i, route := range routes {
		i, route := i, route
		g.Go(func() error {
			quote, _ := q.Quote(ctx, route, amountIn)
			quotes[i] = quote
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// RouterFactory is the factory a route's router reports. A router that cannot
// answer is not a UniswapV2 router.
type RouterFactory struct {
	Exchange types.ExchangeRef
	Factory  common.Address
	Err      error
}

// Factories asks every distinct router of routes for its factory, in the
// order the routers first appear.
func (q *Quoter) Factories(ctx context.Context, routes []types.Route) ([]RouterFactory, error) {
	var factories []RouterFactory
	seen := map[common.Address]bool{}
	for _, route := range routes {
		if seen[route.Exchange.Router] {
			continue
		}
		seen[route.Exchange.Router] = true
		factories = append(factories, RouterFactory{Exchange: route.Exchange})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflightCalls)
	for i := range factories {
		i := i
		g.Go(func() error {
			router := q.binding.RouterContract(factories[i].Exchange.Router)
			factory, err := router.Factory(&bind.CallOpts{Context: ctx})
			if err != nil {
				factories[i].Err = fmt.Errorf("router %s has no factory: %w", factories[i].Exchange, err)
			} else {
				factories[i].Factory = factory
			}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return factories, nil
}

// BalanceReader answers underlying-asset balanceOf queries from the chain.
type BalanceReader struct {
	binding *binding.Binding
}

func NewBalanceReader(binding *binding.Binding) *BalanceReader {

	return &BalanceReader{binding: binding}
}

func (r *BalanceReader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return r.binding.TokenContract(token).BalanceOf(&bind.CallOpts{Context: ctx}, account)
}

// Allowance is what owner approved spender for, the ceiling of a forwarder pull.
func (r *BalanceReader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return r.binding.TokenContract(token).Allowance(&bind.CallOpts{Context: ctx}, owner, spender)
}

// Describe returns the symbol and decimals of token.
func (r *BalanceReader) Describe(ctx context.Context, token common.Address) (string, uint8, error) {
	contract := r.binding.TokenContract(token)
	opts := &bind.CallOpts{Context: ctx}
	symbol, err := contract.Symbol(opts)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read symbol of %s: %w", token.Hex(), err)
	}
	decimals, err := contract.Decimals(opts)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read decimals of %s: %w", token.Hex(), err)
	}
	return symbol, decimals, nil
}
