package chain

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// SortAddress orders two tokens the way UniswapV2 pairs do. The bool is true
// when the inputs were swapped.
func SortAddress(tokenA common.Address, tokenB common.Address) (common.Address, common.Address, bool) {

	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB, false
	}
	return tokenB, tokenA, true
}
