package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// ExchangeRef identifies the exchange that executes the hops of a route.
type ExchangeRef struct {
	Name   string
	Router common.Address
}

func (e ExchangeRef) String() string {
	if e.Name == "" {
		return e.Router.Hex()
	}
	return e.Name + "@" + e.Router.Hex()
}
