package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForwardRequestTotal(t *testing.T) {
	split := ForwardRequest{FeeAmount: big.NewInt(3), BuybackAmount: big.NewInt(4)}
	assert.Equal(t, big.NewInt(7), split.Total())
	assert.Equal(t, big.NewInt(7), split.Pulled())

	split.TotalAmount = big.NewInt(10)
	assert.Equal(t, big.NewInt(10), split.Total())

	split.TotalAmount = big.NewInt(0)
	assert.Equal(t, 0, split.Total().Sign())
	assert.Equal(t, big.NewInt(7), split.Pulled())
}
