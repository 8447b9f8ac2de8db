// Package rewardpool holds the pools that accept forwarded proceeds.
package rewardpool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrRewardNotFunded = errors.New("reward amount not funded")
	ErrPoolClosed      = errors.New("reward pool closed")
)

// RewardPool acknowledges rewards that were transferred to its address.
type RewardPool interface {
	Address() common.Address
	NotifyRewardAmount(tx *ledger.Tx, amount *big.Int) error
}

// PotPool accumulates notified rewards of a single reward token. Its balance
// must cover every reward it has acknowledged.
type PotPool struct {
	address     common.Address
	rewardToken common.Address

	mu            sync.Mutex
	closed        bool
	notified      *big.Int
	notifications int
}

func NewPotPool(address, rewardToken common.Address) *PotPool {

	return &PotPool{
		address:     address,
		rewardToken: rewardToken,
		notified:    new(big.Int),
	}
}

func (p *PotPool) Address() common.Address {
	return p.address
}

func (p *PotPool) RewardToken() common.Address {
	return p.rewardToken
}

func (p *PotPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *PotPool) NotifyRewardAmount(tx *ledger.Tx, amount *big.Int) error {
	p.mu.Lock()
	closed := p.closed
	owed := new(big.Int).Add(p.notified, amount)
	p.mu.Unlock()

	if closed {
		return ErrPoolClosed
	}
	balance := tx.BalanceOf(p.rewardToken, p.address)
	if balance.Cmp(owed) < 0 {
		return fmt.Errorf("%w: balance %s, owed %s", ErrRewardNotFunded, balance, owed)
	}

	tx.OnCommit(func() {
		p.mu.Lock()
		p.notified.Add(p.notified, amount)
		p.notifications++
		p.mu.Unlock()
	})
	return nil
}

// Notified returns the total acknowledged reward and the number of notifications.
func (p *PotPool) Notified() (*big.Int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.notified), p.notifications
}

// Sink is an account that takes proceeds without reward accounting, such as
// the governance fee sink.
type Sink struct {
	address common.Address
	token   common.Address
}

func NewSink(address, token common.Address) *Sink {

	return &Sink{address: address, token: token}
}

func (s *Sink) Address() common.Address {
	return s.address
}

func (s *Sink) NotifyRewardAmount(tx *ledger.Tx, amount *big.Int) error {
	if tx.BalanceOf(s.token, s.address).Cmp(amount) < 0 {
		return ErrRewardNotFunded
	}
	return nil
}
