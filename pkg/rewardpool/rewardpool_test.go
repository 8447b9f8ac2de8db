package rewardpool

import (
	"errors"
	"math/big"
	"testing"

	"github.com/RestinGreen/fee-forwarder/pkg/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ifarm = common.HexToAddress("0xab0b2ddb9c7e440fac8e140a89c0dbcbf2d7bbff")
	pool  = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	gov   = common.HexToAddress("0xf00dD244228F51547f0563e60bCa65a30FBF5f7f")
)

func TestPotPoolNotify(t *testing.T) {
	l := ledger.New()
	p := NewPotPool(pool, ifarm)
	require.NoError(t, l.Mint(ifarm, gov, big.NewInt(100)))

	err := l.Update(func(tx *ledger.Tx) error {
		if err := tx.Transfer(ifarm, gov, pool, big.NewInt(60)); err != nil {
			return err
		}
		return p.NotifyRewardAmount(tx, big.NewInt(60))
	})
	require.NoError(t, err)

	notified, count := p.Notified()
	assert.Equal(t, big.NewInt(60), notified)
	assert.Equal(t, 1, count)
}

func TestPotPoolRejectsUnfundedReward(t *testing.T) {
	l := ledger.New()
	p := NewPotPool(pool, ifarm)
	require.NoError(t, l.Mint(ifarm, pool, big.NewInt(10)))

	err := l.Update(func(tx *ledger.Tx) error {
		return p.NotifyRewardAmount(tx, big.NewInt(10))
	})
	require.NoError(t, err)

	err = l.Update(func(tx *ledger.Tx) error {
		return p.NotifyRewardAmount(tx, big.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrRewardNotFunded)
}

func TestPotPoolRollbackLeavesNoTrace(t *testing.T) {
	l := ledger.New()
	p := NewPotPool(pool, ifarm)
	require.NoError(t, l.Mint(ifarm, pool, big.NewInt(10)))

	_ = l.Update(func(tx *ledger.Tx) error {
		require.NoError(t, p.NotifyRewardAmount(tx, big.NewInt(10)))
		return errors.New("later failure")
	})

	notified, count := p.Notified()
	assert.Equal(t, 0, notified.Sign())
	assert.Equal(t, 0, count)
}

func TestPotPoolClosed(t *testing.T) {
	l := ledger.New()
	p := NewPotPool(pool, ifarm)
	p.Close()

	err := l.Update(func(tx *ledger.Tx) error {
		return p.NotifyRewardAmount(tx, big.NewInt(0))
	})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestSink(t *testing.T) {
	l := ledger.New()
	s := NewSink(gov, ifarm)
	require.NoError(t, l.Mint(ifarm, gov, big.NewInt(5)))

	err := l.View(func(tx *ledger.Tx) error {
		assert.NoError(t, s.NotifyRewardAmount(tx, big.NewInt(5)))
		return s.NotifyRewardAmount(tx, big.NewInt(6))
	})
	assert.ErrorIs(t, err, ErrRewardNotFunded)
	assert.Equal(t, gov, s.Address())
}
