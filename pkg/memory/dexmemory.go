package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RestinGreen/fee-forwarder/pkg/exchange"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	ErrUnknownExchange  = errors.New("unknown exchange")
	ErrExchangeConflict = errors.New("router already bound to another exchange")
)

// DexMemory binds exchange routers to the implementation that executes swaps.
type DexMemory struct {
	logger *zap.Logger

	mu sync.RWMutex
	//key is router
	DexMap map[common.Address]exchange.Exchange
}

func NewDexMemory(logger *zap.Logger) *DexMemory {

	return &DexMemory{
		logger: logger,
		DexMap: map[common.Address]exchange.Exchange{},
	}
}

// AddDex registers ex under its router. Adding the same exchange again is a
// no-op, a different exchange on a known router is rejected.
func (m *DexMemory) AddDex(ex exchange.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	router := ex.Address()
	if known, exists := m.DexMap[router]; exists {
		if known == ex {
			return nil
		}
		m.logger.Warn("Router already bound to another dex.", zap.String("router", router.Hex()))
		return fmt.Errorf("%w: %s", ErrExchangeConflict, router.Hex())
	}
	m.DexMap[router] = ex
	m.logger.Info("Dex added to memory.", zap.String("router", router.Hex()))
	return nil
}

func (m *DexMemory) Exchange(ref types.ExchangeRef) (exchange.Exchange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ex, exists := m.DexMap[ref.Router]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, ref)
	}
	return ex, nil
}
