package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	token = common.HexToAddress("0x831753dd7087cac61ab5644b308642cc1c33dc13")
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")
)

func TestTransfer(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(token, alice, big.NewInt(100)))

	err := l.Update(func(tx *Tx) error {
		return tx.Transfer(token, alice, bob, big.NewInt(40))
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(60), l.BalanceOf(token, alice))
	assert.Equal(t, big.NewInt(40), l.BalanceOf(token, bob))
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(token, alice, big.NewInt(10)))

	err := l.Update(func(tx *Tx) error {
		return tx.Transfer(token, alice, bob, big.NewInt(11))
	})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, big.NewInt(10), l.BalanceOf(token, alice))
	assert.Equal(t, 0, l.BalanceOf(token, bob).Sign())
}

func TestUpdateRollsBackOnError(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(token, alice, big.NewInt(100)))
	boom := errors.New("boom")

	err := l.Update(func(tx *Tx) error {
		require.NoError(t, tx.Transfer(token, alice, bob, big.NewInt(30)))
		require.NoError(t, tx.Approve(token, alice, carol, big.NewInt(5)))
		assert.Equal(t, big.NewInt(30), tx.BalanceOf(token, bob))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, big.NewInt(100), l.BalanceOf(token, alice))
	assert.Equal(t, 0, l.BalanceOf(token, bob).Sign())
	assert.Equal(t, 0, l.Allowance(token, alice, carol).Sign())
}

func TestTransferFrom(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(token, alice, big.NewInt(100)))
	require.NoError(t, l.Approve(token, alice, carol, big.NewInt(50)))

	t.Run("spends allowance", func(t *testing.T) {
		err := l.Update(func(tx *Tx) error {
			return tx.TransferFrom(token, carol, alice, bob, big.NewInt(20))
		})
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(30), l.Allowance(token, alice, carol))
		assert.Equal(t, big.NewInt(20), l.BalanceOf(token, bob))
	})

	t.Run("rejects over allowance", func(t *testing.T) {
		err := l.Update(func(tx *Tx) error {
			return tx.TransferFrom(token, carol, alice, bob, big.NewInt(31))
		})
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
		assert.Equal(t, big.NewInt(30), l.Allowance(token, alice, carol))
	})
}

func TestViewIsReadOnly(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(token, alice, big.NewInt(1)))

	err := l.View(func(tx *Tx) error {
		assert.Equal(t, big.NewInt(1), tx.BalanceOf(token, alice))
		return tx.Transfer(token, alice, bob, big.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestRejectsInvalidArguments(t *testing.T) {
	l := New()

	assert.ErrorIs(t, l.Mint(token, common.Address{}, big.NewInt(1)), ErrZeroAddress)
	assert.ErrorIs(t, l.Mint(token, alice, big.NewInt(-1)), ErrNegativeAmount)
	assert.ErrorIs(t, l.Mint(token, alice, nil), ErrNegativeAmount)
}

func TestReturnedBalancesAreCopies(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(token, alice, big.NewInt(7)))

	b := l.BalanceOf(token, alice)
	b.SetInt64(1000)

	assert.Equal(t, big.NewInt(7), l.BalanceOf(token, alice))
}

func TestOnCommit(t *testing.T) {
	l := New()
	committed := 0

	require.NoError(t, l.Update(func(tx *Tx) error {
		tx.OnCommit(func() { committed++ })
		return nil
	}))
	assert.Equal(t, 1, committed)

	_ = l.Update(func(tx *Tx) error {
		tx.OnCommit(func() { committed++ })
		return errors.New("rolled back")
	})
	assert.Equal(t, 1, committed)
}
