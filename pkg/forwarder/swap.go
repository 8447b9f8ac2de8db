package forwarder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/RestinGreen/fee-forwarder/pkg/exchange"
	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// conversion is a resolved route bound to the exchange that executes it.
// direct is set when the token already is the underlying asset.
type conversion struct {
	route    types.Route
	exchange exchange.Exchange
	direct   bool
}

func (f *Forwarder) resolve(token common.Address) (conversion, error) {
	if token == f.config.Underlying {
		return conversion{direct: true}, nil
	}
	route, err := f.routes.Resolve(token)
	if err != nil {
		return conversion{}, fmt.Errorf("%w: %w", ErrRouteResolutionFailed, err)
	}
	ex, err := f.dexes.Exchange(route.Exchange)
	if err != nil {
		return conversion{}, fmt.Errorf("%w: %w", ErrRouteResolutionFailed, err)
	}
	return conversion{route: route, exchange: ex}, nil
}

// convert walks the route hop by hop. Each hop is fed the output the previous
// hop actually delivered, not what was quoted for it.
func (f *Forwarder) convert(ctx context.Context, tx *ledger.Tx, conv conversion, amountIn *big.Int, log *zap.Logger) (*big.Int, error) {
	if conv.direct {
		return new(big.Int).Set(amountIn), nil
	}

	amount := new(big.Int).Set(amountIn)
	path := conv.route.Path
	for i := 0; i < path.Hops(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hop := path[i : i+2]
		out, err := f.swapHop(tx, conv.exchange, hop, amount)
		if err != nil {
			return nil, fmt.Errorf("hop %d %s: %w", i, hop, err)
		}
		log.Debug("Hop swapped",
			zap.Int("hop", i),
			zap.String("from", hop[0].Hex()),
			zap.String("to", hop[1].Hex()),
			zap.Stringer("in", amount),
			zap.Stringer("out", out))
		amount = out
	}
	return amount, nil
}

func (f *Forwarder) swapHop(tx *ledger.Tx, ex exchange.Exchange, hop types.RoutePath, amountIn *big.Int) (*big.Int, error) {
	self := f.config.Self
	router := ex.Address()
	tokenIn, tokenOut := hop[0], hop[1]

	quoted, err := ex.GetAmountsOut(tx, amountIn, hop)
	if err != nil {
		return nil, fmt.Errorf("%w: quote: %w", ErrSwapFailed, err)
	}
	expected := quoted[len(quoted)-1]
	if expected.Sign() <= 0 {
		return nil, fmt.Errorf("%w: exchange quotes zero output for %s", ErrSwapFailed, amountIn)
	}

	if err := tx.Approve(tokenIn, self, router, amountIn); err != nil {
		return nil, fmt.Errorf("%w: approve: %w", ErrSwapFailed, err)
	}
	before := tx.BalanceOf(tokenOut, self)
	if _, err := ex.SwapExactTokensForTokens(tx, amountIn, expected, hop, self, self); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}
	received := new(big.Int).Sub(tx.BalanceOf(tokenOut, self), before)
	if received.Sign() <= 0 {
		return nil, fmt.Errorf("%w: exchange delivered nothing", ErrSwapFailed)
	}
	if err := tx.Approve(tokenIn, self, router, new(big.Int)); err != nil {
		return nil, fmt.Errorf("%w: reset approval: %w", ErrSwapFailed, err)
	}
	return received, nil
}
