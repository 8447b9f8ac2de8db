package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// IsZero reports whether the address is the zero address.
func IsZero(address common.Address) bool {
	return address == (common.Address{})
}
