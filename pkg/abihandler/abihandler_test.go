package abihandler

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAbiHandler(t *testing.T) {
	a, err := NewAbiHandler()
	require.NoError(t, err)

	for _, method := range []string{"balanceOf", "allowance", "decimals", "symbol"} {
		assert.Contains(t, a.ERC20Abi.Methods, method)
	}
	for _, method := range []string{"factory", "getAmountsOut"} {
		assert.Contains(t, a.UniV2RouterAbi.Methods, method)
	}
	// selector of getAmountsOut on UniswapV2 routers
	assert.Equal(t, "d06ca61f", hex.EncodeToString(a.UniV2RouterAbi.Methods["getAmountsOut"].ID))
}
