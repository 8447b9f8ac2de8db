package memory

import (
	"github.com/RestinGreen/fee-forwarder/pkg/governance"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Memory holds the forwarder's configuration state: where every fee token is
// routed and which exchange runs each route.
type Memory struct {
	RouteMemory *RouteMemory
	DexMemory   *DexMemory
}

func NewMemory(underlying common.Address, authority *governance.Authority, logger *zap.Logger) *Memory {

	return &Memory{
		RouteMemory: NewRouteMemory(underlying, authority, logger),
		DexMemory:   NewDexMemory(logger),
	}
}
