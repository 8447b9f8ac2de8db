package general

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/RestinGreen/fee-forwarder/pkg/memory"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// RoutesFile is the TOML layout of a route configuration:
//
//	[[route]]
//	token    = "0x8317..."
//	path     = ["0x8317...", "0x7ceb...", "0xab0b..."]
//	exchange = "quickswap"
//	router   = "0xa5E0..."
type RoutesFile struct {
	Routes []RouteEntry `toml:"route"`
}

type RouteEntry struct {
	Token    string   `toml:"token"`
	Path     []string `toml:"path"`
	Exchange string   `toml:"exchange"`
	Router   string   `toml:"router"`
}

func LoadRoutesFile(path string) ([]types.Route, error) {
	var file RoutesFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to decode routes file %s: %w", path, err)
	}
	return file.ToRoutes()
}

func DecodeRoutes(r io.Reader) ([]types.Route, error) {
	var file RoutesFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return file.ToRoutes()
}

func EncodeRoutes(w io.Writer, routes []types.Route) error {
	var file RoutesFile
	for _, route := range routes {
		entry := RouteEntry{
			Token:    route.Token.Hex(),
			Exchange: route.Exchange.Name,
			Router:   route.Exchange.Router.Hex(),
		}
		for _, hop := range route.Path {
			entry.Path = append(entry.Path, hop.Hex())
		}
		file.Routes = append(file.Routes, entry)
	}
	return toml.NewEncoder(w).Encode(file)
}

// ToRoutes converts the entries, checking that addresses parse and that no
// token is routed twice. Route semantics are validated by the route memory.
func (f RoutesFile) ToRoutes() ([]types.Route, error) {
	routes := make([]types.Route, 0, len(f.Routes))
	seen := make(map[common.Address]int, len(f.Routes))
	for i, entry := range f.Routes {
		token, err := ParseAddress(entry.Token)
		if err != nil {
			return nil, fmt.Errorf("route %d token: %w", i, err)
		}
		if first, exists := seen[token]; exists {
			return nil, fmt.Errorf("%w: routes %d and %d both convert %s", memory.ErrInvalidRoute, first, i, token.Hex())
		}
		seen[token] = i
		router, err := ParseAddress(entry.Router)
		if err != nil {
			return nil, fmt.Errorf("route %d router: %w", i, err)
		}
		path := make(types.RoutePath, 0, len(entry.Path))
		for j, hop := range entry.Path {
			address, err := ParseAddress(hop)
			if err != nil {
				return nil, fmt.Errorf("route %d hop %d: %w", i, j, err)
			}
			path = append(path, address)
		}
		routes = append(routes, types.Route{
			Token:    token,
			Path:     path,
			Exchange: types.ExchangeRef{Name: entry.Exchange, Router: router},
		})
	}
	return routes, nil
}

func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("not a hex address: %q", s)
	}
	return common.HexToAddress(s), nil
}
