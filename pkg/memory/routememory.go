package memory

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RestinGreen/fee-forwarder/pkg/governance"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	ErrNoRouteConfigured = errors.New("no route configured")
	ErrInvalidRoute      = errors.New("invalid route")
)

// RouteMemory maps a source token to the path that converts it into the
// underlying asset. It is the router registry of the forwarder.
type RouteMemory struct {
	underlying common.Address
	authority  *governance.Authority
	logger     *zap.Logger

	mu     sync.RWMutex
	routes map[common.Address]types.Route
}

func NewRouteMemory(underlying common.Address, authority *governance.Authority, logger *zap.Logger) *RouteMemory {

	return &RouteMemory{
		underlying: underlying,
		authority:  authority,
		logger:     logger,
		routes:     map[common.Address]types.Route{},
	}
}

func (m *RouteMemory) Underlying() common.Address {
	return m.underlying
}

// ConfigureRoute validates and installs the route for token, replacing any
// previous one in a single step.
func (m *RouteMemory) ConfigureRoute(c governance.Capability, token common.Address, path types.RoutePath, exchange types.ExchangeRef) error {
	if err := m.authority.Verify(c); err != nil {
		return err
	}
	route := types.Route{Token: token, Path: path.Clone(), Exchange: exchange}
	if err := ValidateRoute(m.underlying, route); err != nil {
		return err
	}

	m.mu.Lock()
	m.routes[token] = route
	m.mu.Unlock()

	m.logger.Info("Route configured",
		zap.String("token", token.Hex()),
		zap.String("path", route.Path.String()),
		zap.String("exchange", exchange.String()))
	return nil
}

func (m *RouteMemory) RemoveRoute(c governance.Capability, token common.Address) error {
	if err := m.authority.Verify(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.routes[token]; !exists {
		return fmt.Errorf("%w for %s", ErrNoRouteConfigured, token.Hex())
	}
	delete(m.routes, token)
	m.logger.Info("Route removed", zap.String("token", token.Hex()))
	return nil
}

// Load replaces the whole route set. Nothing is installed unless every route is valid.
func (m *RouteMemory) Load(c governance.Capability, routes []types.Route) error {
	if err := m.authority.Verify(c); err != nil {
		return err
	}
	next := make(map[common.Address]types.Route, len(routes))
	for _, route := range routes {
		if err := ValidateRoute(m.underlying, route); err != nil {
			return err
		}
		if _, exists := next[route.Token]; exists {
			return fmt.Errorf("%w: more than one route for %s", ErrInvalidRoute, route.Token.Hex())
		}
		next[route.Token] = route.Clone()
	}

	m.mu.Lock()
	m.routes = next
	m.mu.Unlock()

	m.logger.Info("Routes loaded", zap.Int("routes", len(next)))
	return nil
}

func (m *RouteMemory) Resolve(token common.Address) (types.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	route, exists := m.routes[token]
	if !exists {
		return types.Route{}, fmt.Errorf("%w for %s", ErrNoRouteConfigured, token.Hex())
	}
	return route.Clone(), nil
}

// Routes returns a snapshot ordered by source token.
func (m *RouteMemory) Routes() []types.Route {
	m.mu.RLock()
	out := make([]types.Route, 0, len(m.routes))
	for _, route := range m.routes {
		out = append(out, route.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Token.Bytes(), out[j].Token.Bytes()) < 0
	})
	return out
}

func ValidateRoute(underlying common.Address, route types.Route) error {
	path := route.Path
	switch {
	case types.IsZero(route.Token):
		return fmt.Errorf("%w: zero source token", ErrInvalidRoute)
	case len(path) == 0:
		return fmt.Errorf("%w: empty path for %s", ErrInvalidRoute, route.Token.Hex())
	case len(path) < 2:
		return fmt.Errorf("%w: path for %s has no hop", ErrInvalidRoute, route.Token.Hex())
	case path.Source() != route.Token:
		return fmt.Errorf("%w: path starts at %s, not %s", ErrInvalidRoute, path.Source().Hex(), route.Token.Hex())
	case path.Target() != underlying:
		return fmt.Errorf("%w: path ends at %s, not the underlying %s", ErrInvalidRoute, path.Target().Hex(), underlying.Hex())
	case types.IsZero(route.Exchange.Router):
		return fmt.Errorf("%w: zero exchange router", ErrInvalidRoute)
	}
	for i, hop := range path {
		if types.IsZero(hop) {
			return fmt.Errorf("%w: hop %d is the zero address", ErrInvalidRoute, i)
		}
		if i > 0 && path[i-1] == hop {
			return fmt.Errorf("%w: hop %d repeats %s", ErrInvalidRoute, i, hop.Hex())
		}
	}
	return nil
}
