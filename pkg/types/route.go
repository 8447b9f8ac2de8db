package types

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RoutePath is the ordered hop sequence of a conversion.
// path[0] is the source token and the last element is the underlying asset.
type RoutePath []common.Address

func (p RoutePath) Source() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[0]
}

func (p RoutePath) Target() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[len(p)-1]
}

// Hops returns the number of swaps needed to walk the path.
func (p RoutePath) Hops() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}

func (p RoutePath) Clone() RoutePath {
	if p == nil {
		return nil
	}
	out := make(RoutePath, len(p))
	copy(out, p)
	return out
}

func (p RoutePath) String() string {
	hops := make([]string, 0, len(p))
	for _, token := range p {
		hops = append(hops, token.Hex())
	}
	return strings.Join(hops, " -> ")
}

type Route struct {
	Token    common.Address
	Path     RoutePath
	Exchange ExchangeRef
}

func (r Route) Clone() Route {
	return Route{
		Token:    r.Token,
		Path:     r.Path.Clone(),
		Exchange: r.Exchange,
	}
}
