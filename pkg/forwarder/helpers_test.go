package forwarder

import (
	"math/big"
	"testing"

	"github.com/RestinGreen/fee-forwarder/pkg/exchange"
	"github.com/RestinGreen/fee-forwarder/pkg/governance"
	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/RestinGreen/fee-forwarder/pkg/memory"
	"github.com/RestinGreen/fee-forwarder/pkg/rewardpool"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	governanceAddr = common.HexToAddress("0xf00dD244228F51547f0563e60bCa65a30FBF5f7f")
	stranger       = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	forwarderAddr  = common.HexToAddress("0x00000000000000000000000000000000000f0f0f")
	poolAddr       = common.HexToAddress("0x000000000000000000000000000000000000b001")
	provider       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	collector      = common.HexToAddress("0x00000000000000000000000000000000000000cc")

	quick = common.HexToAddress("0x831753dd7087cac61ab5644b308642cc1c33dc13")
	sushi = common.HexToAddress("0x0b3f868e0be5597d5db7feb59e1cadbb0fdda50a")
	weth  = common.HexToAddress("0x7ceb23fd6bc0add59e62ac25578270cff1b9f619")
	ifarm = common.HexToAddress("0xab0b2ddb9c7e440fac8e140a89c0dbcbf2d7bbff")
	dai   = common.HexToAddress("0x8f3cf7ad23cd3cadbd9735aff958023239c6a063")

	quickRouter = common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff")
	sushiRouter = common.HexToAddress("0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type testEnv struct {
	ledger    *ledger.Ledger
	authority *governance.Authority
	gov       governance.Capability
	mem       *memory.Memory
	quickswap *exchange.AMM
	sushiswap *exchange.AMM
	pool      *rewardpool.PotPool
	fwd       *Forwarder
}

// newTestEnv wires a forwarder the way the protocol deploys it: the fee sink
// and the profit share pool are both governance, buybacks go to a PotPool.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		ledger:    ledger.New(),
		authority: governance.NewAuthority(governanceAddr),
		quickswap: exchange.NewAMM(quickRouter),
		sushiswap: exchange.NewAMM(sushiRouter),
		pool:      rewardpool.NewPotPool(poolAddr, ifarm),
	}
	var err error
	e.gov, err = e.authority.Grant(governanceAddr)
	require.NoError(t, err)

	for _, token := range []common.Address{quick, sushi, weth, ifarm} {
		require.NoError(t, e.ledger.Mint(token, provider, e18(10_000_000)))
	}
	err = e.ledger.Update(func(tx *ledger.Tx) error {
		for _, l := range []struct {
			amm            *exchange.AMM
			tokenA, tokenB common.Address
			amountA        *big.Int
			amountB        *big.Int
		}{
			{e.quickswap, quick, weth, e18(100_000), e18(1_000)},
			{e.quickswap, weth, ifarm, e18(1_000), e18(50_000)},
			{e.sushiswap, sushi, weth, e18(50_000), e18(1_000)},
			{e.sushiswap, weth, ifarm, e18(1_000), e18(50_000)},
		} {
			if err := l.amm.AddLiquidity(tx, provider, l.tokenA, l.tokenB, l.amountA, l.amountB); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	e.mem = memory.NewMemory(ifarm, e.authority, zap.NewNop())
	require.NoError(t, e.mem.DexMemory.AddDex(e.quickswap))
	require.NoError(t, e.mem.DexMemory.AddDex(e.sushiswap))
	require.NoError(t, e.mem.RouteMemory.ConfigureRoute(e.gov, quick, types.RoutePath{quick, weth, ifarm}, types.ExchangeRef{Name: "quickswap", Router: quickRouter}))
	require.NoError(t, e.mem.RouteMemory.ConfigureRoute(e.gov, sushi, types.RoutePath{sushi, weth, ifarm}, types.ExchangeRef{Name: "sushiswap", Router: sushiRouter}))

	e.fwd, err = New(Config{
		Underlying:      ifarm,
		FeeSink:         governanceAddr,
		Self:            forwarderAddr,
		ProfitSharePool: rewardpool.NewSink(governanceAddr, ifarm),
	}, e.ledger, e.authority, e.mem, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, e.fwd.RegisterPool(e.gov, e.pool))

	require.NoError(t, e.ledger.Mint(quick, governanceAddr, e18(1_000)))
	require.NoError(t, e.ledger.Mint(sushi, governanceAddr, e18(500)))
	return e
}

func (e *testEnv) approve(t *testing.T, token common.Address, amount *big.Int) {
	t.Helper()
	require.NoError(t, e.ledger.Approve(token, governanceAddr, forwarderAddr, amount))
}

func (e *testEnv) balance(token, account common.Address) *big.Int {
	return e.ledger.BalanceOf(token, account)
}

// snapshot captures every balance a forwarding call could touch.
func (e *testEnv) snapshot() map[string]string {
	accounts := []common.Address{governanceAddr, forwarderAddr, poolAddr, collector}
	for _, amm := range []*exchange.AMM{e.quickswap, e.sushiswap} {
		for _, pair := range [][2]common.Address{{quick, weth}, {sushi, weth}, {weth, ifarm}} {
			if p, ok := amm.PairFor(pair[0], pair[1]); ok {
				accounts = append(accounts, p.PairAddress)
			}
		}
	}
	out := map[string]string{}
	for _, account := range accounts {
		for _, token := range []common.Address{quick, sushi, weth, ifarm} {
			out[account.Hex()+"/"+token.Hex()] = e.balance(token, account).String()
		}
		out[account.Hex()+"/allowance/quick"] = e.ledger.Allowance(quick, governanceAddr, account).String()
	}
	notified, count := e.pool.Notified()
	out["pool/notified"] = notified.String()
	out["pool/count"] = big.NewInt(int64(count)).String()
	return out
}

// skimmingExchange delivers less than it quotes by taking a cut of every
// swap output after the trade settles.
type skimmingExchange struct {
	*exchange.AMM
	percent int64
}

func (s *skimmingExchange) SwapExactTokensForTokens(tx *ledger.Tx, amountIn, amountOutMin *big.Int, path types.RoutePath, trader, to common.Address) ([]*big.Int, error) {
	amounts, err := s.AMM.SwapExactTokensForTokens(tx, amountIn, amountOutMin, path, trader, to)
	if err != nil {
		return nil, err
	}
	out := amounts[len(amounts)-1]
	cut := new(big.Int).Div(new(big.Int).Mul(out, big.NewInt(s.percent)), big.NewInt(100))
	if err := tx.Transfer(path.Target(), to, collector, cut); err != nil {
		return nil, err
	}
	return amounts, nil
}
