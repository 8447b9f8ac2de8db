package binding

import (
	"sync"

	"github.com/RestinGreen/fee-forwarder/pkg/abihandler"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Binding caches read-only contract bindings per address.
type Binding struct {
	backend bind.ContractCaller
	abis    *abihandler.AbiHandler

	routersMutex *sync.Mutex
	tokensMutex  *sync.Mutex

	Routers map[common.Address]*UniV2Router
	Tokens  map[common.Address]*ERC20
}

func NewBinding(backend bind.ContractCaller, abis *abihandler.AbiHandler) *Binding {

	return &Binding{
		backend: backend,
		abis:    abis,

		routersMutex: &sync.Mutex{},
		tokensMutex:  &sync.Mutex{},

		Routers: map[common.Address]*UniV2Router{},
		Tokens:  map[common.Address]*ERC20{},
	}
}

func (b *Binding) RouterContract(routerAddress common.Address) *UniV2Router {
	b.routersMutex.Lock()
	defer b.routersMutex.Unlock()

	if router, exists := b.Routers[routerAddress]; exists {
		return router
	}
	router := &UniV2Router{
		Address:  routerAddress,
		contract: bind.NewBoundContract(routerAddress, b.abis.UniV2RouterAbi, b.backend, nil, nil),
	}
	b.Routers[routerAddress] = router
	return router
}

func (b *Binding) TokenContract(tokenAddress common.Address) *ERC20 {
	b.tokensMutex.Lock()
	defer b.tokensMutex.Unlock()

	if token, exists := b.Tokens[tokenAddress]; exists {
		return token
	}
	token := &ERC20{
		Address:  tokenAddress,
		contract: bind.NewBoundContract(tokenAddress, b.abis.ERC20Abi, b.backend, nil, nil),
	}
	b.Tokens[tokenAddress] = token
	return token
}
