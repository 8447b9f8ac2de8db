package binding

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/RestinGreen/fee-forwarder/pkg/abihandler"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode answers eth_call by dispatching on the method selector.
type fakeNode struct {
	abis     *abihandler.AbiHandler
	balances map[common.Address]*big.Int
	calls    int
}

func (n *fakeNode) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (n *fakeNode) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	n.calls++
	method, err := n.lookup(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "balanceOf":
		account := args[0].(common.Address)
		balance, exists := n.balances[account]
		if !exists {
			balance = new(big.Int)
		}
		return method.Outputs.Pack(balance)
	case "getAmountsOut":
		amountIn := args[0].(*big.Int)
		path := args[1].([]common.Address)
		amounts := []*big.Int{amountIn}
		for i := 1; i < len(path); i++ {
			amounts = append(amounts, new(big.Int).Div(amounts[i-1], big.NewInt(2)))
		}
		return method.Outputs.Pack(amounts)
	case "allowance":
		return method.Outputs.Pack(big.NewInt(99))
	case "symbol":
		return method.Outputs.Pack("iFARM")
	case "decimals":
		return method.Outputs.Pack(uint8(18))
	case "factory":
		return method.Outputs.Pack(common.HexToAddress("0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32"))
	}
	return nil, errors.New("unsupported method " + method.Name)
}

func (n *fakeNode) lookup(selector []byte) (*abi.Method, error) {
	if m, err := n.abis.ERC20Abi.MethodById(selector); err == nil {
		return m, nil
	}
	return n.abis.UniV2RouterAbi.MethodById(selector)
}

func newFakeBinding(t *testing.T) (*Binding, *fakeNode) {
	t.Helper()
	abis, err := abihandler.NewAbiHandler()
	require.NoError(t, err)
	node := &fakeNode{abis: abis, balances: map[common.Address]*big.Int{}}
	return NewBinding(node, abis), node
}

func TestERC20BalanceOf(t *testing.T) {
	b, node := newFakeBinding(t)
	holder := common.HexToAddress("0xf00dD244228F51547f0563e60bCa65a30FBF5f7f")
	node.balances[holder] = big.NewInt(4242)

	token := b.TokenContract(common.HexToAddress("0xab0b2ddb9c7e440fac8e140a89c0dbcbf2d7bbff"))
	balance, err := token.BalanceOf(nil, holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4242), balance)
}

func TestERC20Metadata(t *testing.T) {
	b, node := newFakeBinding(t)
	token := b.TokenContract(common.HexToAddress("0xab0b2ddb9c7e440fac8e140a89c0dbcbf2d7bbff"))

	symbol, err := token.Symbol(nil)
	require.NoError(t, err)
	assert.Equal(t, "iFARM", symbol)

	decimals, err := token.Decimals(nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	allowance, err := token.Allowance(nil, common.HexToAddress("0xf00dD244228F51547f0563e60bCa65a30FBF5f7f"), common.HexToAddress("0x00000000000000000000000000000000000f0f0f"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), allowance)
	assert.Equal(t, 3, node.calls)
}

func TestRouterGetAmountsOut(t *testing.T) {
	b, _ := newFakeBinding(t)
	router := b.RouterContract(common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"))

	path := []common.Address{
		common.HexToAddress("0x831753dd7087cac61ab5644b308642cc1c33dc13"),
		common.HexToAddress("0x7ceb23fd6bc0add59e62ac25578270cff1b9f619"),
		common.HexToAddress("0xab0b2ddb9c7e440fac8e140a89c0dbcbf2d7bbff"),
	}
	amounts, err := router.GetAmountsOut(nil, big.NewInt(1000), path)
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{big.NewInt(1000), big.NewInt(500), big.NewInt(250)}, amounts)

	factory, err := router.Factory(nil)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32"), factory)
}

func TestContractsAreCached(t *testing.T) {
	b, _ := newFakeBinding(t)
	address := common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff")

	assert.Same(t, b.RouterContract(address), b.RouterContract(address))
	assert.Same(t, b.TokenContract(address), b.TokenContract(address))
	assert.Len(t, b.Routers, 1)
	assert.Len(t, b.Tokens, 1)
}
