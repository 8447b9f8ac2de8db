// Package forwarder converts protocol fee tokens into the underlying asset and
// splits the proceeds between the governance fee sink and reward pools.
//
// Every public operation runs as one ledger unit of work: either all of its
// transfers and swaps are committed or none are.
package forwarder

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/RestinGreen/fee-forwarder/pkg/governance"
	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/RestinGreen/fee-forwarder/pkg/memory"
	"github.com/RestinGreen/fee-forwarder/pkg/rewardpool"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	// Underlying is the asset every fee is converted into.
	Underlying common.Address
	// FeeSink receives the fee leg of NotifyFeeAndBuybackAmounts.
	FeeSink common.Address
	// Self is the forwarder's own ledger account. Callers approve it.
	Self common.Address
	// ProfitSharePool receives PoolNotifyFixedTarget proceeds.
	ProfitSharePool rewardpool.RewardPool
}

type Forwarder struct {
	config    Config
	ledger    *ledger.Ledger
	authority *governance.Authority
	routes    *memory.RouteMemory
	dexes     *memory.DexMemory
	logger    *zap.Logger

	poolsMutex      sync.RWMutex
	profitSharePool rewardpool.RewardPool
	pools           map[common.Address]rewardpool.RewardPool
}

func New(config Config, l *ledger.Ledger, authority *governance.Authority, mem *memory.Memory, logger *zap.Logger) (*Forwarder, error) {
	switch {
	case types.IsZero(config.Underlying):
		return nil, fmt.Errorf("%w: zero underlying", ErrInvalidRequest)
	case types.IsZero(config.FeeSink):
		return nil, fmt.Errorf("%w: zero fee sink", ErrInvalidRequest)
	case types.IsZero(config.Self):
		return nil, fmt.Errorf("%w: zero forwarder account", ErrInvalidRequest)
	case mem.RouteMemory.Underlying() != config.Underlying:
		return nil, fmt.Errorf("%w: route memory targets %s, forwarder %s", ErrInvalidRequest, mem.RouteMemory.Underlying().Hex(), config.Underlying.Hex())
	}

	return &Forwarder{
		config:          config,
		ledger:          l,
		authority:       authority,
		routes:          mem.RouteMemory,
		dexes:           mem.DexMemory,
		logger:          logger,
		profitSharePool: config.ProfitSharePool,
		pools:           map[common.Address]rewardpool.RewardPool{},
	}, nil
}

func (f *Forwarder) Address() common.Address {
	return f.config.Self
}

func (f *Forwarder) SetProfitSharePool(c governance.Capability, pool rewardpool.RewardPool) error {
	if err := f.authority.Verify(c); err != nil {
		return err
	}
	f.poolsMutex.Lock()
	f.profitSharePool = pool
	f.poolsMutex.Unlock()
	f.logger.Info("Profit share pool set", zap.String("pool", pool.Address().Hex()))
	return nil
}

// RegisterPool allows pool to be the target of buybacks.
func (f *Forwarder) RegisterPool(c governance.Capability, pool rewardpool.RewardPool) error {
	if err := f.authority.Verify(c); err != nil {
		return err
	}
	f.poolsMutex.Lock()
	f.pools[pool.Address()] = pool
	f.poolsMutex.Unlock()
	f.logger.Info("Reward pool registered", zap.String("pool", pool.Address().Hex()))
	return nil
}

// PoolNotifyFixedTarget converts amount of token into the underlying asset and
// hands all of it to the profit share pool. There is no minimum output.
func (f *Forwarder) PoolNotifyFixedTarget(ctx context.Context, c governance.Capability, token common.Address, amount *big.Int) (types.ForwardResult, error) {
	result := types.ForwardResult{ID: uuid.New(), FeeOutput: new(big.Int), BuybackOutput: new(big.Int)}
	log := f.logger.With(
		zap.String("call", result.ID.String()),
		zap.String("op", "poolNotifyFixedTarget"),
		zap.String("token", token.Hex()),
		zap.Stringer("amount", types.OrZero(amount)))

	err := f.poolNotifyFixedTarget(ctx, c, token, amount, &result, log)
	if err != nil {
		log.Warn("Forwarding failed", zap.Error(err))
		return types.ForwardResult{ID: result.ID}, err
	}
	log.Info("Forwarded to profit share pool", zap.Stringer("output", result.FeeOutput))
	return result, nil
}

func (f *Forwarder) poolNotifyFixedTarget(ctx context.Context, c governance.Capability, token common.Address, amount *big.Int, result *types.ForwardResult, log *zap.Logger) error {
	if err := f.authority.Verify(c); err != nil {
		return err
	}
	if types.IsZero(token) || (amount != nil && amount.Sign() < 0) {
		return fmt.Errorf("%w: token %s amount %s", ErrInvalidRequest, token.Hex(), amount)
	}
	if amount == nil || amount.Sign() == 0 {
		log.Debug("Nothing to forward")
		return nil
	}

	f.poolsMutex.RLock()
	pool := f.profitSharePool
	f.poolsMutex.RUnlock()
	if pool == nil {
		return fmt.Errorf("%w: no profit share pool configured", ErrTransferFailed)
	}
	conv, err := f.resolve(token)
	if err != nil {
		return err
	}

	return f.ledger.Update(func(tx *ledger.Tx) error {
		if err := f.pull(tx, c.Holder(), token, amount); err != nil {
			return err
		}
		out, err := f.convert(ctx, tx, conv, amount, log)
		if err != nil {
			return err
		}
		if err := f.deliver(tx, pool, out); err != nil {
			return err
		}
		result.FeeOutput = out
		return ctx.Err()
	})
}

// NotifyFeeAndBuybackAmounts converts the fee portion for the fee sink and the
// buyback portion for req.RecipientPool. The call fails as a whole when the
// buyback yields less than req.MinBuybackOutput.
func (f *Forwarder) NotifyFeeAndBuybackAmounts(ctx context.Context, c governance.Capability, req types.ForwardRequest) (types.ForwardResult, error) {
	result := types.ForwardResult{ID: uuid.New(), FeeOutput: new(big.Int), BuybackOutput: new(big.Int)}
	log := f.logger.With(
		zap.String("call", result.ID.String()),
		zap.String("op", "notifyFeeAndBuybackAmounts"),
		zap.String("token", req.Token.Hex()),
		zap.Stringer("fee", types.OrZero(req.FeeAmount)),
		zap.Stringer("buyback", types.OrZero(req.BuybackAmount)),
		zap.Stringer("minBuybackOutput", types.OrZero(req.MinBuybackOutput)),
		zap.String("pool", req.RecipientPool.Hex()))

	err := f.notifyFeeAndBuybackAmounts(ctx, c, req, &result, log)
	if err != nil {
		log.Warn("Forwarding failed", zap.Error(err))
		return types.ForwardResult{ID: result.ID}, err
	}
	log.Info("Fee and buyback forwarded",
		zap.Stringer("feeOutput", result.FeeOutput),
		zap.Stringer("buybackOutput", result.BuybackOutput))
	return result, nil
}

func (f *Forwarder) notifyFeeAndBuybackAmounts(ctx context.Context, c governance.Capability, req types.ForwardRequest, result *types.ForwardResult, log *zap.Logger) error {
	if err := f.authority.Verify(c); err != nil {
		return err
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	fee := types.OrZero(req.FeeAmount)
	buyback := types.OrZero(req.BuybackAmount)
	minOut := types.OrZero(req.MinBuybackOutput)
	pulled := req.Pulled()
	if pulled.Sign() == 0 {
		log.Debug("Nothing to forward")
		return nil
	}

	var pool rewardpool.RewardPool
	if buyback.Sign() > 0 {
		f.poolsMutex.RLock()
		pool = f.pools[req.RecipientPool]
		f.poolsMutex.RUnlock()
		if pool == nil {
			return fmt.Errorf("%w: pool %s is not registered", ErrTransferFailed, req.RecipientPool.Hex())
		}
	}
	conv, err := f.resolve(req.Token)
	if err != nil {
		return err
	}

	return f.ledger.Update(func(tx *ledger.Tx) error {
		if err := f.pull(tx, c.Holder(), req.Token, pulled); err != nil {
			return err
		}

		feeOut := new(big.Int)
		if fee.Sign() > 0 {
			if feeOut, err = f.convert(ctx, tx, conv, fee, log.With(zap.String("leg", "fee"))); err != nil {
				return err
			}
			if err := tx.Transfer(f.config.Underlying, f.config.Self, f.config.FeeSink, feeOut); err != nil {
				return fmt.Errorf("%w: fee sink: %w", ErrTransferFailed, err)
			}
		}

		buybackOut := new(big.Int)
		if buyback.Sign() > 0 {
			if buybackOut, err = f.convert(ctx, tx, conv, buyback, log.With(zap.String("leg", "buyback"))); err != nil {
				return err
			}
		}
		if buybackOut.Cmp(minOut) < 0 {
			return fmt.Errorf("%w: buyback yielded %s, minimum %s", ErrInsufficientOutput, buybackOut, minOut)
		}
		if buyback.Sign() > 0 {
			if err := f.deliver(tx, pool, buybackOut); err != nil {
				return err
			}
		}

		result.FeeOutput = feeOut
		result.BuybackOutput = buybackOut
		return ctx.Err()
	})
}

func validateRequest(req types.ForwardRequest) error {
	if types.IsZero(req.Token) {
		return fmt.Errorf("%w: zero token", ErrInvalidRequest)
	}
	for _, amount := range []*big.Int{req.TotalAmount, req.FeeAmount, req.BuybackAmount, req.MinBuybackOutput} {
		if amount != nil && amount.Sign() < 0 {
			return fmt.Errorf("%w: negative amount %s", ErrInvalidRequest, amount)
		}
	}
	if req.Pulled().Cmp(req.Total()) > 0 {
		return fmt.Errorf("%w: fee %s plus buyback %s exceed total %s", ErrInvalidRequest, types.OrZero(req.FeeAmount), types.OrZero(req.BuybackAmount), req.Total())
	}
	return nil
}

// pull takes amount of token from owner into the forwarder. The allowance is
// checked before anything moves.
func (f *Forwarder) pull(tx *ledger.Tx, owner, token common.Address, amount *big.Int) error {
	allowed := tx.Allowance(token, owner, f.config.Self)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s approved %s of %s, call needs %s", ErrAllowanceExceeded, owner.Hex(), allowed, token.Hex(), amount)
	}
	if err := tx.TransferFrom(token, f.config.Self, owner, f.config.Self, amount); err != nil {
		return fmt.Errorf("%w: pulling from %s: %w", ErrTransferFailed, owner.Hex(), err)
	}
	return nil
}

func (f *Forwarder) deliver(tx *ledger.Tx, pool rewardpool.RewardPool, amount *big.Int) error {
	if err := tx.Transfer(f.config.Underlying, f.config.Self, pool.Address(), amount); err != nil {
		return fmt.Errorf("%w: pool %s: %w", ErrTransferFailed, pool.Address().Hex(), err)
	}
	if err := pool.NotifyRewardAmount(tx, amount); err != nil {
		return fmt.Errorf("%w: pool %s rejected notification: %w", ErrTransferFailed, pool.Address().Hex(), err)
	}
	return nil
}
