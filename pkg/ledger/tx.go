package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Tx is a unit of work on the ledger. Writes stay in the overlay until the
// enclosing Update commits.
type Tx struct {
	ledger   *Ledger
	readOnly bool

	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
	onCommit   []func()
}

func newTx(l *Ledger, readOnly bool) *Tx {

	return &Tx{
		ledger:     l,
		readOnly:   readOnly,
		balances:   map[balanceKey]*big.Int{},
		allowances: map[allowanceKey]*big.Int{},
	}
}

func (tx *Tx) balance(k balanceKey) *big.Int {
	if v, exists := tx.balances[k]; exists {
		return v
	}
	return copyOrZero(tx.ledger.balances[k])
}

func (tx *Tx) allowance(k allowanceKey) *big.Int {
	if v, exists := tx.allowances[k]; exists {
		return v
	}
	return copyOrZero(tx.ledger.allowances[k])
}

func (tx *Tx) BalanceOf(token, account common.Address) *big.Int {
	return new(big.Int).Set(tx.balance(balanceKey{token, account}))
}

func (tx *Tx) Allowance(token, owner, spender common.Address) *big.Int {
	return new(big.Int).Set(tx.allowance(allowanceKey{token, owner, spender}))
}

func (tx *Tx) Mint(token, to common.Address, amount *big.Int) error {
	if err := tx.check(amount, token, to); err != nil {
		return err
	}
	k := balanceKey{token, to}
	tx.balances[k] = new(big.Int).Add(tx.balance(k), amount)
	return nil
}

func (tx *Tx) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if err := tx.check(amount, token, owner, spender); err != nil {
		return err
	}
	tx.allowances[allowanceKey{token, owner, spender}] = new(big.Int).Set(amount)
	return nil
}

func (tx *Tx) Transfer(token, from, to common.Address, amount *big.Int) error {
	if err := tx.check(amount, token, from, to); err != nil {
		return err
	}
	fromKey := balanceKey{token, from}
	fromBalance := tx.balance(fromKey)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance, token.Hex(), amount)
	}
	tx.balances[fromKey] = new(big.Int).Sub(fromBalance, amount)

	toKey := balanceKey{token, to}
	tx.balances[toKey] = new(big.Int).Add(tx.balance(toKey), amount)
	return nil
}

// TransferFrom moves amount from owner to to, spending spender's allowance.
func (tx *Tx) TransferFrom(token, spender, owner, to common.Address, amount *big.Int) error {
	if err := tx.check(amount, token, spender, owner, to); err != nil {
		return err
	}
	k := allowanceKey{token, owner, spender}
	allowed := tx.allowance(k)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s may spend %s of %s for %s, needs %s", ErrInsufficientAllowance, spender.Hex(), allowed, token.Hex(), owner.Hex(), amount)
	}
	if err := tx.Transfer(token, owner, to, amount); err != nil {
		return err
	}
	tx.allowances[k] = new(big.Int).Sub(allowed, amount)
	return nil
}

func (tx *Tx) check(amount *big.Int, addresses ...common.Address) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	for _, address := range addresses {
		if address == (common.Address{}) {
			return ErrZeroAddress
		}
	}
	return nil
}

// OnCommit registers fn to run after the transaction commits. Collaborators
// that keep state outside the ledger use it so a rolled back call leaves no trace.
func (tx *Tx) OnCommit(fn func()) {
	tx.onCommit = append(tx.onCommit, fn)
}

func (tx *Tx) commit() {
	for k, v := range tx.balances {
		if v.Sign() == 0 {
			delete(tx.ledger.balances, k)
			continue
		}
		tx.ledger.balances[k] = v
	}
	for k, v := range tx.allowances {
		if v.Sign() == 0 {
			delete(tx.ledger.allowances, k)
			continue
		}
		tx.ledger.allowances[k] = v
	}
	for _, fn := range tx.onCommit {
		fn()
	}
}
