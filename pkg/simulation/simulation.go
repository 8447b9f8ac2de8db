// Package simulation runs forwarder calls against an in-memory deployment
// described by a TOML file: tokens, AMM pairs, reward pools, routes and the
// ordered calls governance makes.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/RestinGreen/fee-forwarder/pkg/exchange"
	"github.com/RestinGreen/fee-forwarder/pkg/forwarder"
	"github.com/RestinGreen/fee-forwarder/pkg/governance"
	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/RestinGreen/fee-forwarder/pkg/memory"
	"github.com/RestinGreen/fee-forwarder/pkg/rewardpool"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	defaultForwarder = common.HexToAddress("0x00000000000000000000000000000000000f0f0f")
	defaultProvider  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

// StepReport is the outcome of one step and the balances right after it.
type StepReport struct {
	Index  int
	Step   StepEntry
	Result types.ForwardResult
	Err    error

	Governance *big.Int
	Pools      map[string]*big.Int
}

type Simulation struct {
	file     File
	decimals int
	logger   *zap.Logger

	tokens     map[string]common.Address
	governance common.Address
	provider   common.Address
	underlying common.Address

	Ledger    *ledger.Ledger
	Authority *governance.Authority
	Memory    *memory.Memory
	Forwarder *forwarder.Forwarder

	gov       governance.Capability
	exchanges map[string]*exchange.AMM
	pools     map[string]*rewardpool.PotPool
}

// New builds the deployment described by file. Liquidity is minted to a
// provider account, governance gets its balances and approves the forwarder.
func New(file File, logger *zap.Logger) (*Simulation, error) {
	s := &Simulation{
		file:      file,
		decimals:  file.decimals(),
		logger:    logger,
		tokens:    map[string]common.Address{},
		Ledger:    ledger.New(),
		exchanges: map[string]*exchange.AMM{},
		pools:     map[string]*rewardpool.PotPool{},
	}

	for name, hex := range file.Tokens {
		address, err := parseAddress(hex)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", name, err)
		}
		s.tokens[name] = address
	}

	var err error
	if s.governance, err = parseAddress(file.Governance); err != nil {
		return nil, fmt.Errorf("governance: %w", err)
	}
	if s.underlying, err = s.token(file.Underlying); err != nil {
		return nil, fmt.Errorf("underlying: %w", err)
	}
	self, err := parseAddressOr(file.Forwarder, defaultForwarder)
	if err != nil {
		return nil, fmt.Errorf("forwarder: %w", err)
	}
	if s.provider, err = parseAddressOr(file.Provider, defaultProvider); err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	feeSink, err := parseAddressOr(file.FeeSink, s.governance)
	if err != nil {
		return nil, fmt.Errorf("fee sink: %w", err)
	}

	s.Authority = governance.NewAuthority(s.governance)
	if s.gov, err = s.Authority.Grant(s.governance); err != nil {
		return nil, err
	}
	s.Memory = memory.NewMemory(s.underlying, s.Authority, logger)

	if err := s.buildExchanges(); err != nil {
		return nil, err
	}
	if err := s.buildRoutes(); err != nil {
		return nil, err
	}

	s.Forwarder, err = forwarder.New(forwarder.Config{
		Underlying:      s.underlying,
		FeeSink:         feeSink,
		Self:            self,
		ProfitSharePool: rewardpool.NewSink(feeSink, s.underlying),
	}, s.Ledger, s.Authority, s.Memory, logger)
	if err != nil {
		return nil, err
	}

	if err := s.buildPools(); err != nil {
		return nil, err
	}
	if err := s.fundGovernance(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) buildExchanges() error {
	return s.Ledger.Update(func(tx *ledger.Tx) error {
		for _, entry := range s.file.Exchanges {
			router, err := parseAddress(entry.Router)
			if err != nil {
				return fmt.Errorf("exchange %s: %w", entry.Name, err)
			}
			amm := exchange.NewAMM(router)
			for _, pair := range entry.Pairs {
				if err := s.addLiquidity(tx, amm, pair); err != nil {
					return fmt.Errorf("exchange %s: %w", entry.Name, err)
				}
			}
			amm.SetPaused(entry.Paused)
			if err := s.Memory.DexMemory.AddDex(amm); err != nil {
				return fmt.Errorf("exchange %s: %w", entry.Name, err)
			}
			s.exchanges[entry.Name] = amm
		}
		return nil
	})
}

func (s *Simulation) addLiquidity(tx *ledger.Tx, amm *exchange.AMM, pair PairEntry) error {
	var tokens [2]common.Address
	var amounts [2]*big.Int
	for i := range pair.Tokens {
		var err error
		if tokens[i], err = s.token(pair.Tokens[i]); err != nil {
			return err
		}
		if amounts[i], err = ParseAmount(pair.Reserves[i], s.decimals); err != nil {
			return err
		}
		if err := tx.Mint(tokens[i], s.provider, amounts[i]); err != nil {
			return err
		}
	}
	return amm.AddLiquidity(tx, s.provider, tokens[0], tokens[1], amounts[0], amounts[1])
}

func (s *Simulation) buildRoutes() error {
	routes := make([]types.Route, 0, len(s.file.Routes))
	for _, entry := range s.file.Routes {
		token, err := s.token(entry.Token)
		if err != nil {
			return fmt.Errorf("route: %w", err)
		}
		path := make(types.RoutePath, 0, len(entry.Path))
		for _, name := range entry.Path {
			hop, err := s.token(name)
			if err != nil {
				return fmt.Errorf("route %s: %w", entry.Token, err)
			}
			path = append(path, hop)
		}
		amm, ok := s.exchanges[entry.Exchange]
		if !ok {
			return fmt.Errorf("route %s: unknown exchange %q", entry.Token, entry.Exchange)
		}
		routes = append(routes, types.Route{
			Token:    token,
			Path:     path,
			Exchange: types.ExchangeRef{Name: entry.Exchange, Router: amm.Address()},
		})
	}
	return s.Memory.RouteMemory.Load(s.gov, routes)
}

func (s *Simulation) buildPools() error {
	for _, entry := range s.file.Pools {
		address, err := parseAddress(entry.Address)
		if err != nil {
			return fmt.Errorf("pool %s: %w", entry.Name, err)
		}
		pool := rewardpool.NewPotPool(address, s.underlying)
		if entry.Closed {
			pool.Close()
		}
		if err := s.Forwarder.RegisterPool(s.gov, pool); err != nil {
			return err
		}
		s.pools[entry.Name] = pool
	}
	return nil
}

func (s *Simulation) fundGovernance() error {
	return s.Ledger.Update(func(tx *ledger.Tx) error {
		for name, value := range s.file.Balances {
			token, err := s.token(name)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			amount, err := ParseAmount(value, s.decimals)
			if err != nil {
				return fmt.Errorf("balance %s: %w", name, err)
			}
			if err := tx.Mint(token, s.governance, amount); err != nil {
				return err
			}
		}
		for name, token := range s.tokens {
			allowance := maxAllowance()
			if value, ok := s.file.Allowances[name]; ok {
				var err error
				if allowance, err = ParseAmount(value, s.decimals); err != nil {
					return fmt.Errorf("allowance %s: %w", name, err)
				}
			}
			if err := tx.Approve(token, s.governance, s.Forwarder.Address(), allowance); err != nil {
				return err
			}
		}
		return nil
	})
}

// Run executes every step in order. A failing step is reported and the run
// goes on, the forwarder having rolled the step back. report, when not nil, is
// called after each step.
func (s *Simulation) Run(ctx context.Context, report func(StepReport)) ([]StepReport, error) {
	reports := make([]StepReport, 0, len(s.file.Steps))
	for i, step := range s.file.Steps {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r := StepReport{Index: i, Step: step}
		r.Result, r.Err = s.runStep(ctx, step)
		if errors.Is(r.Err, errMalformedStep) {
			return reports, fmt.Errorf("step %d: %w", i, r.Err)
		}
		r.Governance = s.Ledger.BalanceOf(s.underlying, s.governance)
		r.Pools = s.PoolBalances()
		reports = append(reports, r)
		if report != nil {
			report(r)
		}
	}
	return reports, nil
}

var errMalformedStep = errors.New("malformed step")

func (s *Simulation) runStep(ctx context.Context, step StepEntry) (types.ForwardResult, error) {
	token, err := s.token(step.Token)
	if err != nil {
		return types.ForwardResult{}, fmt.Errorf("%w: %w", errMalformedStep, err)
	}
	amounts := map[string]*big.Int{}
	for field, value := range map[string]string{
		"amount": step.Amount, "total": step.Total, "fee": step.Fee,
		"buyback": step.Buyback, "min_output": step.MinOutput,
	} {
		if amounts[field], err = ParseAmount(value, s.decimals); err != nil {
			return types.ForwardResult{}, fmt.Errorf("%w: %s: %w", errMalformedStep, field, err)
		}
	}

	switch step.Kind {
	case StepFixed:
		return s.Forwarder.PoolNotifyFixedTarget(ctx, s.gov, token, amounts["amount"])
	case StepBuyback:
		var recipient common.Address
		if pool, ok := s.pools[step.Pool]; ok {
			recipient = pool.Address()
		} else if step.Pool != "" {
			if recipient, err = parseAddress(step.Pool); err != nil {
				return types.ForwardResult{}, fmt.Errorf("%w: unknown pool %q", errMalformedStep, step.Pool)
			}
		}
		// an omitted total defaults to fee plus buyback
		var total *big.Int
		if step.Total != "" {
			total = amounts["total"]
		}
		return s.Forwarder.NotifyFeeAndBuybackAmounts(ctx, s.gov, types.ForwardRequest{
			Token:            token,
			TotalAmount:      total,
			FeeAmount:        amounts["fee"],
			BuybackAmount:    amounts["buyback"],
			MinBuybackOutput: amounts["min_output"],
			RecipientPool:    recipient,
		})
	default:
		return types.ForwardResult{}, fmt.Errorf("%w: unknown kind %q", errMalformedStep, step.Kind)
	}
}

// PoolBalances returns the underlying balance of every reward pool by name.
func (s *Simulation) PoolBalances() map[string]*big.Int {
	out := make(map[string]*big.Int, len(s.pools))
	for name, pool := range s.pools {
		out[name] = s.Ledger.BalanceOf(s.underlying, pool.Address())
	}
	return out
}

// PoolNames returns the reward pool names in sorted order.
func (s *Simulation) PoolNames() []string {
	names := make([]string, 0, len(s.pools))
	for name := range s.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Simulation) Decimals() int {
	return s.decimals
}

func (s *Simulation) Governance() common.Address {
	return s.governance
}

func (s *Simulation) Underlying() common.Address {
	return s.underlying
}

func (s *Simulation) token(name string) (common.Address, error) {
	if address, ok := s.tokens[name]; ok {
		return address, nil
	}
	return common.Address{}, fmt.Errorf("unknown token %q", name)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("not a hex address: %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAddressOr(s string, fallback common.Address) (common.Address, error) {
	if s == "" {
		return fallback, nil
	}
	return parseAddress(s)
}

func maxAllowance() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}
