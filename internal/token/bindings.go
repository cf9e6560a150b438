package token

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
)

// Bindings is the chain-local table of which token lives at which address,
// the stand-in for the host chain's code-at-address lookup. An address is
// bound at most once.
type Bindings struct {
	mu sync.RWMutex
	m  map[common.Address]Token
}

func NewBindings() *Bindings {
	return &Bindings{m: make(map[common.Address]Token)}
}

func (b *Bindings) Bind(addr common.Address, t Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.m[addr]; ok {
		return errors.Wrapf(constant.ErrTokenAlreadyBound, "address %s", addr)
	}
	b.m[addr] = t
	return nil
}

func (b *Bindings) Get(addr common.Address) (Token, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.m[addr]
	return t, ok
}
