// Package governance issues the capability every mutating forwarder and
// registry operation must present.
package governance

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnauthorized = errors.New("unauthorized")

// Capability proves that its holder was the governance account when it was granted.
// The zero value is never valid.
type Capability struct {
	holder    common.Address
	authority *Authority
	epoch     uint64
}

func (c Capability) Holder() common.Address {
	return c.holder
}

type Authority struct {
	mu         sync.RWMutex
	governance common.Address
	epoch      uint64
}

func NewAuthority(governance common.Address) *Authority {

	return &Authority{governance: governance}
}

func (a *Authority) Governance() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.governance
}

// Grant returns a capability for caller if caller is the governance account.
func (a *Authority) Grant(caller common.Address) (Capability, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if caller == (common.Address{}) || caller != a.governance {
		return Capability{}, ErrUnauthorized
	}
	return Capability{holder: caller, authority: a, epoch: a.epoch}, nil
}

func (a *Authority) Verify(c Capability) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if c.authority != a || c.epoch != a.epoch || c.holder != a.governance {
		return ErrUnauthorized
	}
	return nil
}

// SetGovernance hands governance to next. Capabilities granted before the
// rotation stop verifying.
func (a *Authority) SetGovernance(c Capability, next common.Address) error {
	if err := a.Verify(c); err != nil {
		return err
	}
	if next == (common.Address{}) {
		return errors.New("governance cannot be the zero address")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.governance = next
	a.epoch++
	return nil
}
