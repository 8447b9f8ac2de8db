// Package ledger keeps token balances and allowances and runs every mutation
// as one all-or-nothing unit of work.
package ledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroAddress           = errors.New("zero address")
	ErrNegativeAmount        = errors.New("negative amount")
	ErrReadOnly              = errors.New("read-only transaction")
)

type balanceKey struct {
	token   common.Address
	account common.Address
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

type Ledger struct {
	mu sync.Mutex

	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
}

func New() *Ledger {

	return &Ledger{
		balances:   map[balanceKey]*big.Int{},
		allowances: map[allowanceKey]*big.Int{},
	}
}

// Update runs fn against a private overlay and commits the overlay only when fn
// returns nil. Calls are serialized, so two units of work never interleave.
func (l *Ledger) Update(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := newTx(l, false)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (l *Ledger) View(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return fn(newTx(l, true))
}

func (l *Ledger) BalanceOf(token, account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return copyOrZero(l.balances[balanceKey{token, account}])
}

func (l *Ledger) Allowance(token, owner, spender common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return copyOrZero(l.allowances[allowanceKey{token, owner, spender}])
}

// Mint credits amount of token to account. Used to fund accounts in setups.
func (l *Ledger) Mint(token, account common.Address, amount *big.Int) error {
	return l.Update(func(tx *Tx) error {
		return tx.Mint(token, account, amount)
	})
}

func (l *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) error {
	return l.Update(func(tx *Tx) error {
		return tx.Approve(token, owner, spender, amount)
	})
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
